// Package media pauses system audio playback while a recording is in
// progress, by synthesizing the play/pause media key. There is no way to ask
// the OS whether anything is actually playing, so pause and resume are both
// just toggles: harmless when nothing was playing.
package media

import "sync"

// Controller pairs a pause with its matching resume. Resume is a no-op
// unless a pause was sent first.
type Controller struct {
	mu     sync.Mutex
	paused bool
}

func NewController() *Controller { return &Controller{} }

func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		return nil
	}
	if err := playPause(); err != nil {
		return err
	}
	c.paused = true
	return nil
}

func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return nil
	}
	c.paused = false
	return playPause()
}
