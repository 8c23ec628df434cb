package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"murmur/audio"
	"murmur/clipboard"
	"murmur/config"
	"murmur/log"
	"murmur/notify"
	"murmur/trainlog"
	"murmur/transcriber"
)

// State is the orchestrator's lifecycle position. At most one session is
// Recording or Transcribing at any instant.
type State int32

const (
	StateIdle State = iota
	StateRecording
	StateTranscribing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateTranscribing:
		return "transcribing"
	default:
		return "unknown"
	}
}

const (
	stopUser        = "user-toggled"
	stopMaxDuration = "max-duration-reached"
	stopError       = "error"
)

// minFrames is the smallest capture worth sending to the engine; anything
// shorter (under 100ms) is reported as no speech without an inference call.
func minFrames(sampleRate int) int { return sampleRate / 10 }

type Notifier interface {
	Notify(kind notify.Kind, message string) error
}

// Sink consumes one completed transcription. Failures are logged per sink
// and never abort the remaining sinks.
type Sink interface {
	Name() string
	Deliver(buf *audio.Buffer, res transcriber.Result) error
}

type ClipboardSink struct {
	AutoPaste bool
}

func (s *ClipboardSink) Name() string { return "clipboard" }

func (s *ClipboardSink) Deliver(_ *audio.Buffer, res transcriber.Result) error {
	if err := clipboard.Copy(res.Text); err != nil {
		return err
	}
	if s.AutoPaste {
		if err := clipboard.Paste(); err != nil {
			return fmt.Errorf("paste: %w", err)
		}
	}
	return nil
}

type NotifySink struct {
	N Notifier
}

func (s *NotifySink) Name() string { return "notification" }

func (s *NotifySink) Deliver(_ *audio.Buffer, res transcriber.Result) error {
	return s.N.Notify(notify.Transcribed, res.Text)
}

type TrainlogSink struct {
	L *trainlog.Logger
}

func (s *TrainlogSink) Name() string { return "trainlog" }

func (s *TrainlogSink) Deliver(buf *audio.Buffer, res transcriber.Result) error {
	_, err := s.L.Append(buf, res)
	return err
}

// SessionHooks are optional side effects fired on session boundaries
// (feedback beeps, media pause). All fields may be nil.
type SessionHooks struct {
	RecordingStarted func()
	RecordingStopped func()
	Failure          func()
}

func (h SessionHooks) started() {
	if h.RecordingStarted != nil {
		h.RecordingStarted()
	}
}

func (h SessionHooks) stopped() {
	if h.RecordingStopped != nil {
		h.RecordingStopped()
	}
}

func (h SessionHooks) failure() {
	if h.Failure != nil {
		h.Failure()
	}
}

type sessionResult struct {
	id         uint64
	stopReason string
	buf        *audio.Buffer
	res        transcriber.Result
	err        error
}

// Orchestrator coordinates one recording/transcription session at a time:
// hotkey toggles start and stop capture, a worker goroutine runs inference,
// and completed results fan out to the configured sinks. All state
// transitions happen on the Run loop goroutine; inference and sink delivery
// never run on it.
type Orchestrator struct {
	cfg      config.Config
	capture  audio.CaptureDevice
	engine   transcriber.Engine
	notifier Notifier
	sinks    []Sink
	hooks    SessionHooks

	state     atomic.Int32
	sessionID uint64
	recorder  *audio.Recorder
	startedAt time.Time
	results   chan sessionResult
	fanout    sync.WaitGroup

	count atomic.Uint64 // completed transcriptions, for session summary
}

func NewOrchestrator(cfg config.Config, capture audio.CaptureDevice, engine transcriber.Engine, notifier Notifier, sinks []Sink, hooks SessionHooks) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		capture:  capture,
		engine:   engine,
		notifier: notifier,
		sinks:    sinks,
		hooks:    hooks,
		results:  make(chan sessionResult, 1),
	}
}

// Sinks builds the fan-out list in delivery order: clipboard, notification,
// then the training log when logging is enabled.
func Sinks(cfg config.Config, notifier Notifier, tl *trainlog.Logger, autoPaste bool) []Sink {
	sinks := []Sink{
		&ClipboardSink{AutoPaste: autoPaste},
		&NotifySink{N: notifier},
	}
	if cfg.EnableLogging && tl != nil {
		sinks = append(sinks, &TrainlogSink{L: tl})
	}
	return sinks
}

func (o *Orchestrator) State() State { return State(o.state.Load()) }

func (o *Orchestrator) Completed() int { return int(o.count.Load()) }

// Flush blocks until all launched sink fan-outs have finished.
func (o *Orchestrator) Flush() { o.fanout.Wait() }

// Run drives the state machine until ctx is cancelled. Toggle events,
// watchdog expiry, capture failures and worker results all funnel through
// this single loop, so state is only ever mutated here.
func (o *Orchestrator) Run(ctx context.Context, toggle <-chan struct{}) error {
	for {
		// The recorder channels only participate while Recording; in any
		// other state they are nil and never selected.
		var maxHit <-chan struct{}
		var failed <-chan error
		if o.recorder != nil {
			maxHit = o.recorder.MaxDurationElapsed()
			failed = o.recorder.Failed()
		}

		select {
		case <-ctx.Done():
			if o.recorder != nil {
				o.recorder.Stop()
				o.recorder = nil
			}
			o.fanout.Wait()
			return ctx.Err()

		case <-toggle:
			o.handleToggle(ctx)

		case <-maxHit:
			log.Info("max_duration_reached")
			o.stopRecording(ctx, stopMaxDuration)

		case err := <-failed:
			log.Warnf("capture interrupted: %v", err)
			o.stopRecording(ctx, stopError)

		case res := <-o.results:
			o.handleResult(res)
		}
	}
}

func (o *Orchestrator) handleToggle(ctx context.Context) {
	switch o.State() {
	case StateIdle:
		o.startRecording()
	case StateRecording:
		o.stopRecording(ctx, stopUser)
	case StateTranscribing:
		// One session in flight at most; extra presses are dropped.
		log.Info("toggle_ignored_transcribing")
	}
}

func (o *Orchestrator) startRecording() {
	o.sessionID++
	rec := audio.NewRecorder(o.capture, o.cfg.SampleRate, o.cfg.MaxDuration())
	if err := rec.Start(); err != nil {
		log.Errorf("capture start error: %v", err)
		o.hooks.failure()
		o.notifyKind(notify.Error, "Microphone unavailable: "+err.Error())
		return
	}
	o.recorder = rec
	o.startedAt = time.Now()
	o.state.Store(int32(StateRecording))
	log.Info("recording_start: " + o.capture.DeviceName())
	o.hooks.started()
	o.notifyKind(notify.Started, "Listening...")
}

func (o *Orchestrator) stopRecording(ctx context.Context, reason string) {
	buf, err := o.recorder.Stop()
	o.recorder = nil
	o.hooks.stopped()
	log.Info(fmt.Sprintf("recording_stop: %s after %.1fs", reason, time.Since(o.startedAt).Seconds()))

	if err != nil && !errors.Is(err, audio.ErrCaptureInterrupted) {
		o.state.Store(int32(StateIdle))
		log.Errorf("capture stop error: %v", err)
		o.hooks.failure()
		o.notifyKind(notify.Error, "Recording failed: "+err.Error())
		return
	}
	stoppedMsg := "Transcribing..."
	if err != nil {
		// Interrupted capture keeps its partial audio and proceeds, but
		// the user has to hear about the loss.
		log.Warnf("proceeding with partial audio (%.1fs): %v", buf.Seconds(), err)
		stoppedMsg = fmt.Sprintf("Microphone lost; transcribing partial recording (%.1fs)...", buf.Seconds())
	}

	if buf.Frames() < minFrames(buf.SampleRate()) {
		o.state.Store(int32(StateIdle))
		log.Transcription(o.sessionID, reason, buf.Seconds(), 0, true)
		o.notifyKind(notify.NoSpeech, "No speech detected")
		return
	}

	o.state.Store(int32(StateTranscribing))
	o.notifyKind(notify.Stopped, stoppedMsg)

	id := o.sessionID
	go func() {
		start := time.Now()
		res, terr := o.engine.Transcribe(ctx, buf)
		if terr == nil && res.ProcessingTime == 0 {
			res.ProcessingTime = time.Since(start).Seconds()
		}
		if terr == nil && res.Timestamp.IsZero() {
			res.Timestamp = time.Now()
		}
		o.results <- sessionResult{id: id, stopReason: reason, buf: buf, res: res, err: terr}
	}()
}

func (o *Orchestrator) handleResult(sr sessionResult) {
	// result-ready returns to Idle first; sink fan-out may overlap the next
	// recording since buffers and results are owned per session.
	o.state.Store(int32(StateIdle))

	if sr.err != nil {
		log.Errorf("transcription error: %v", sr.err)
		log.Transcription(sr.id, stopError, sr.buf.Seconds(), 0, false)
		o.hooks.failure()
		o.notifyKind(notify.Error, "Transcription failed: "+sr.err.Error())
		return
	}

	if sr.res.NoSpeech() {
		log.Transcription(sr.id, sr.stopReason, sr.buf.Seconds(), sr.res.ProcessingTime, true)
		o.notifyKind(notify.NoSpeech, "No speech detected")
		return
	}

	o.count.Add(1)
	log.Transcription(sr.id, sr.stopReason, sr.buf.Seconds(), sr.res.ProcessingTime, false)
	log.TranscriptionText(sr.res.Text)

	o.fanout.Add(1)
	go func() {
		defer o.fanout.Done()
		for _, s := range o.sinks {
			if err := s.Deliver(sr.buf, sr.res); err != nil {
				log.SinkFailure(sr.id, s.Name(), err)
			}
		}
	}()
}

func (o *Orchestrator) notifyKind(kind notify.Kind, message string) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.Notify(kind, message); err != nil {
		log.SinkFailure(o.sessionID, "notification", err)
	}
}
