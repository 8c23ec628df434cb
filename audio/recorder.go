package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrCaptureUnavailable means the device could not be opened at session
	// start. Fatal to the session.
	ErrCaptureUnavailable = errors.New("capture device unavailable")

	// ErrCaptureInterrupted means the stream failed mid-session. Not fatal:
	// whatever was buffered up to the failure is still returned.
	ErrCaptureInterrupted = errors.New("capture interrupted")
)

// Recorder owns the audio buffering of a single recording session. It is
// created fresh per session, attaches to the shared capture device for the
// session's duration, and enforces the max-recording-duration cap two ways:
// the data callback stops appending past the frame budget, and a watchdog
// timer signals MaxDurationElapsed so the caller can run its normal stop path
// instead of silently truncating.
type Recorder struct {
	capture   CaptureDevice
	maxDur    time.Duration
	maxFrames uint64
	maxHit    chan struct{}
	failed    chan error
	done      chan struct{}
	timer     *time.Timer

	mu         sync.Mutex
	active     bool
	pcm        []byte
	frames     uint64
	failure    error
	sampleRate int
	startedAt  time.Time
}

func NewRecorder(capture CaptureDevice, sampleRate int, maxDur time.Duration) *Recorder {
	return &Recorder{
		capture:    capture,
		sampleRate: sampleRate,
		maxDur:     maxDur,
		maxFrames:  uint64(float64(sampleRate) * maxDur.Seconds()),
		maxHit:     make(chan struct{}),
		failed:     make(chan error, 1),
		done:       make(chan struct{}),
	}
}

// FailureReporter is implemented by capture devices that can detect the
// stream dying mid-session. The recorder subscribes for the session's
// duration and surfaces the first failure through Failed.
type FailureReporter interface {
	Failures() <-chan error
}

// Start attaches to the capture device and begins buffering. The watchdog is
// armed here and disarmed in Stop.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return fmt.Errorf("recorder already started")
	}
	r.active = true
	r.startedAt = time.Now()
	r.mu.Unlock()

	r.capture.SetCallback(r.append)
	if err := r.capture.Start(); err != nil {
		r.capture.ClearCallback()
		r.mu.Lock()
		r.active = false
		r.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}

	r.timer = time.AfterFunc(r.maxDur, func() {
		r.mu.Lock()
		active := r.active
		r.mu.Unlock()
		if active {
			close(r.maxHit)
		}
	})

	if fr, ok := r.capture.(FailureReporter); ok {
		go func() {
			select {
			case err := <-fr.Failures():
				if err != nil {
					r.Interrupt(err)
				}
			case <-r.done:
			}
		}()
	}
	return nil
}

// MaxDurationElapsed fires once when the recording reaches the configured cap.
func (r *Recorder) MaxDurationElapsed() <-chan struct{} { return r.maxHit }

// Interrupt reports a mid-session stream failure. Buffered audio is kept; the
// error surfaces from Stop as ErrCaptureInterrupted.
func (r *Recorder) Interrupt(err error) {
	r.mu.Lock()
	if r.failure == nil {
		r.failure = err
	}
	r.mu.Unlock()
	select {
	case r.failed <- err:
	default:
	}
}

// Failed fires if the capture stream breaks while recording.
func (r *Recorder) Failed() <-chan error { return r.failed }

func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return 0
	}
	return time.Since(r.startedAt)
}

func (r *Recorder) append(data []byte, frameCount uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active || r.failure != nil {
		return
	}
	if remaining := r.maxFrames - r.frames; uint64(frameCount) > remaining {
		frameCount = uint32(remaining)
		data = data[:remaining*2]
	}
	if frameCount == 0 {
		return
	}
	r.pcm = append(r.pcm, data...)
	r.frames += uint64(frameCount)
}

// Stop detaches from the device, disarms the watchdog, and returns the
// finalized, immutable buffer. After a mid-session failure the partial buffer
// is returned together with ErrCaptureInterrupted.
func (r *Recorder) Stop() (*Buffer, error) {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return nil, fmt.Errorf("recorder not started")
	}
	r.active = false
	r.mu.Unlock()

	// Detach before stopping the device so the stop is not mistaken for a
	// mid-session stream failure.
	r.capture.ClearCallback()
	r.capture.Stop()
	r.timer.Stop()
	close(r.done)

	r.mu.Lock()
	defer r.mu.Unlock()
	buf := &Buffer{pcm: r.pcm, sampleRate: r.sampleRate}
	r.pcm = nil
	if r.failure != nil {
		return buf, fmt.Errorf("%w: %v", ErrCaptureInterrupted, r.failure)
	}
	return buf, nil
}
