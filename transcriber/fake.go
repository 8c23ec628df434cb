package transcriber

import (
	"context"
	"sync/atomic"
	"time"

	"murmur/audio"
)

// Fake is an Engine for tests: returns a fixed text or error, optionally
// after a delay so callers can exercise in-flight behavior.
type Fake struct {
	Text  string
	Err   error
	Delay time.Duration

	calls atomic.Int64
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Transcribe(ctx context.Context, buf *audio.Buffer) (Result, error) {
	f.calls.Add(1)
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	if f.Err != nil {
		return Result{}, f.Err
	}
	return Result{
		Text:           f.Text,
		Duration:       buf.Seconds(),
		ProcessingTime: f.Delay.Seconds(),
		Model:          "fake",
		Timestamp:      time.Now(),
	}, nil
}

func (f *Fake) Close() error { return nil }

// Calls reports how many times Transcribe ran.
func (f *Fake) Calls() int { return int(f.calls.Load()) }
