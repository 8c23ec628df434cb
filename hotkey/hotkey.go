// Package hotkey delivers the global toggle event: one signal per press of
// the configured key combination, regardless of which window has focus.
package hotkey

import (
	"golang.design/x/hotkey"
)

type Hotkey interface {
	Register() error
	Unregister()
	// Toggle fires once per qualifying key press.
	Toggle() <-chan struct{}
}

type xHotkey struct {
	hk     *hotkey.Hotkey
	toggle chan struct{}
	done   chan struct{}
}

// New builds a listener for a combo spec like "ctrl+shift+space".
func New(spec string) (Hotkey, error) {
	mods, key, err := Parse(spec)
	if err != nil {
		return nil, err
	}
	return &xHotkey{
		hk:     hotkey.New(mods, key),
		toggle: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}, nil
}

func (h *xHotkey) Register() error {
	if err := h.hk.Register(); err != nil {
		return err
	}
	go func() {
		for {
			select {
			case <-h.hk.Keydown():
				h.toggle <- struct{}{}
			case <-h.done:
				return
			}
		}
	}()
	return nil
}

func (h *xHotkey) Unregister() {
	close(h.done)
	h.hk.Unregister()
}

func (h *xHotkey) Toggle() <-chan struct{} {
	return h.toggle
}
