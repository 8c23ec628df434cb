package audio

import (
	"sync"
	"sync/atomic"
)

// FakeContext is an in-memory Context for tests.
type FakeContext struct {
	DeviceList []DeviceInfo
	StartErr   error // returned by FakeCapture.Start when set
}

func NewFakeContext() *FakeContext { return &FakeContext{} }

func (f *FakeContext) Devices() ([]DeviceInfo, error) { return f.DeviceList, nil }
func (f *FakeContext) Close()                         {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{startErr: f.StartErr}, nil
}

// FakeCapture delivers whatever the test pushes through Emit. Capture state
// transitions are tracked so tests can assert exclusive device ownership.
type FakeCapture struct {
	startErr error

	mu       sync.Mutex
	cb       DataCallback
	started  atomic.Bool
	starts   int
	stops    int
	failures chan error
}

func (f *FakeCapture) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	f.mu.Lock()
	f.starts++
	f.mu.Unlock()
	f.started.Store(true)
	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	f.stops++
	f.mu.Unlock()
	f.started.Store(false)
}

func (f *FakeCapture) Close() {}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake" }

func (f *FakeCapture) Recording() bool { return f.started.Load() }

func (f *FakeCapture) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

// Emit pushes PCM data into the registered callback, as the platform stream
// thread would. A no-op while no callback is set.
func (f *FakeCapture) Emit(data []byte) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	if cb != nil && f.started.Load() {
		cb(data, uint32(len(data)/2))
	}
}

// EmitSilence pushes n frames of zero samples.
func (f *FakeCapture) EmitSilence(n int) {
	f.Emit(make([]byte, n*2))
}

func (f *FakeCapture) failureCh() chan error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures == nil {
		f.failures = make(chan error, 1)
	}
	return f.failures
}

func (f *FakeCapture) Failures() <-chan error { return f.failureCh() }

// Fail simulates the stream dying mid-session.
func (f *FakeCapture) Fail(err error) {
	f.failureCh() <- err
}
