package hotkey

type Fake struct {
	toggle chan struct{}
}

func NewFake() *Fake {
	return &Fake{toggle: make(chan struct{}, 1)}
}

func (f *Fake) Register() error          { return nil }
func (f *Fake) Unregister()              {}
func (f *Fake) Toggle() <-chan struct{}  { return f.toggle }

// SimPress simulates one press of the configured combination.
func (f *Fake) SimPress() { f.toggle <- struct{}{} }
