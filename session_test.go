package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"murmur/audio"
	"murmur/config"
	"murmur/hotkey"
	"murmur/log"
	"murmur/notify"
	"murmur/trainlog"
	"murmur/transcriber"
)

// memClipSink stands in for the OS clipboard in orchestrator tests.
type memClipSink struct {
	mu    sync.Mutex
	err   error
	texts []string
}

func (s *memClipSink) Name() string { return "clipboard" }

func (s *memClipSink) Deliver(_ *audio.Buffer, res transcriber.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.texts = append(s.texts, res.Text)
	return nil
}

func (s *memClipSink) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

// bufSink records the buffers delivered to it.
type bufSink struct {
	mu   sync.Mutex
	bufs []*audio.Buffer
}

func (s *bufSink) Name() string { return "buf" }

func (s *bufSink) Deliver(buf *audio.Buffer, _ transcriber.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bufs = append(s.bufs, buf)
	return nil
}

func (s *bufSink) Bufs() []*audio.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*audio.Buffer(nil), s.bufs...)
}

type harness struct {
	o    *Orchestrator
	dev  *audio.FakeCapture
	hk   *hotkey.Fake
	eng  *transcriber.Fake
	nf   *notify.Fake
	clip *memClipSink
	tl   *trainlog.Logger
}

func newHarness(t *testing.T, cfg config.Config, eng *transcriber.Fake, extraSinks ...Sink) *harness {
	t.Helper()

	fc := audio.NewFakeContext()
	dev, err := fc.NewCapture(nil, audio.CaptureConfig{SampleRate: uint32(cfg.SampleRate), Channels: 1})
	if err != nil {
		t.Fatal(err)
	}

	tl, err := trainlog.New(t.TempDir(), cfg.AudioFormat)
	if err != nil {
		t.Fatal(err)
	}

	nf := &notify.Fake{}
	clip := &memClipSink{}
	sinks := []Sink{clip, &NotifySink{N: nf}, &TrainlogSink{L: tl}}
	sinks = append(sinks, extraSinks...)

	h := &harness{
		o:    NewOrchestrator(cfg, dev, eng, nf, sinks, SessionHooks{}),
		dev:  dev.(*audio.FakeCapture),
		hk:   hotkey.NewFake(),
		eng:  eng,
		nf:   nf,
		clip: clip,
		tl:   tl,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.o.Run(ctx, h.hk.Toggle())
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("orchestrator did not shut down")
		}
	})
	return h
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func (h *harness) waitState(t *testing.T, want State) {
	t.Helper()
	waitFor(t, "state "+want.String(), func() bool { return h.o.State() == want })
}

// emitSeconds pushes s seconds of silence frames through the fake device.
func (h *harness) emitSeconds(s float64) {
	h.dev.EmitSilence(int(s * float64(h.o.cfg.SampleRate)))
}

func (h *harness) logEntries(t *testing.T) []trainlog.Entry {
	t.Helper()
	f, err := os.Open(filepath.Join(h.tl.Dir(), "transcriptions.jsonl"))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var entries []trainlog.Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e trainlog.Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad log line: %v", err)
		}
		entries = append(entries, e)
	}
	return entries
}

// diagnosticsLog routes the diagnostics logger into a temp dir for the
// duration of the test and returns a reader for what it has written so
// far. The logger is global, so tests using this must not run parallel.
func diagnosticsLog(t *testing.T) func() string {
	t.Helper()
	dir := t.TempDir()
	log.SetDir(dir)
	if err := log.Init(); err != nil {
		t.Fatalf("log init: %v", err)
	}
	t.Cleanup(func() {
		log.Close()
		log.SetDir("")
	})
	return func() string {
		data, err := os.ReadFile(filepath.Join(dir, "diagnostics_log.txt"))
		if err != nil {
			t.Fatalf("reading diagnostics log: %v", err)
		}
		return string(data)
	}
}

func TestToggleRoundTrip(t *testing.T) {
	cfg := config.Default()
	diag := diagnosticsLog(t)
	h := newHarness(t, cfg, &transcriber.Fake{Text: "hello world", Delay: 300 * time.Millisecond})

	if h.o.State() != StateIdle {
		t.Fatalf("initial state = %v, want idle", h.o.State())
	}

	h.hk.SimPress()
	h.waitState(t, StateRecording)
	h.emitSeconds(2.0)

	h.hk.SimPress()
	h.waitState(t, StateTranscribing)
	h.waitState(t, StateIdle)
	h.o.Flush()

	if got := h.clip.Texts(); len(got) != 1 || got[0] != "hello world" {
		t.Errorf("clipboard texts = %v, want [hello world]", got)
	}
	kinds := h.nf.Kinds()
	if len(kinds) != 3 || kinds[0] != notify.Started || kinds[1] != notify.Stopped || kinds[2] != notify.Transcribed {
		t.Errorf("notification kinds = %v, want [started stopped transcribed]", kinds)
	}
	entries := h.logEntries(t)
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	if math.Abs(entries[0].Duration-2.0) > 0.05 {
		t.Errorf("logged duration = %g, want ~2.0", entries[0].Duration)
	}
	if entries[0].Transcription != "hello world" {
		t.Errorf("logged text = %q", entries[0].Transcription)
	}
	if h.o.Completed() != 1 {
		t.Errorf("completed = %d, want 1", h.o.Completed())
	}
	if out := diag(); !strings.Contains(out, "stop_reason=user-toggled") {
		t.Errorf("diagnostics log missing stop_reason=user-toggled:\n%s", out)
	}
}

func TestToggleIgnoredWhileTranscribing(t *testing.T) {
	cfg := config.Default()
	h := newHarness(t, cfg, &transcriber.Fake{Text: "once", Delay: 300 * time.Millisecond})

	h.hk.SimPress()
	h.waitState(t, StateRecording)
	h.emitSeconds(0.5)
	h.hk.SimPress()
	h.waitState(t, StateTranscribing)

	// Presses during inference must not start a second session.
	h.hk.SimPress()
	h.hk.SimPress()

	h.waitState(t, StateIdle)
	h.o.Flush()

	if calls := h.eng.Calls(); calls != 1 {
		t.Errorf("engine calls = %d, want 1", calls)
	}
	if starts := h.dev.Starts(); starts != 1 {
		t.Errorf("device starts = %d, want 1", starts)
	}
}

func TestMaxDurationAutoStop(t *testing.T) {
	cfg := config.Default()
	cfg.MaxRecordingDuration = 0.15
	diag := diagnosticsLog(t)
	capture := &bufSink{}
	h := newHarness(t, cfg, &transcriber.Fake{Text: "capped"}, capture)

	h.hk.SimPress()
	h.waitState(t, StateRecording)
	h.emitSeconds(2.0) // far past the cap; the buffer must be truncated

	// No second press: the watchdog must stop the session on its own.
	h.waitState(t, StateIdle)
	h.o.Flush()

	bufs := capture.Bufs()
	if len(bufs) != 1 {
		t.Fatalf("delivered buffers = %d, want 1", len(bufs))
	}
	if got := bufs[0].Seconds(); got > 0.16 {
		t.Errorf("buffer duration = %gs, want <= max 0.15s", got)
	}
	if got := h.clip.Texts(); len(got) != 1 || got[0] != "capped" {
		t.Errorf("clipboard texts = %v", got)
	}
	out := diag()
	if !strings.Contains(out, "stop_reason=max-duration-reached") {
		t.Errorf("diagnostics log missing stop_reason=max-duration-reached:\n%s", out)
	}
	if strings.Contains(out, "stop_reason=user-toggled") {
		t.Errorf("watchdog stop logged as user toggle:\n%s", out)
	}
}

func TestEmptyCaptureIsNoSpeech(t *testing.T) {
	cfg := config.Default()
	h := newHarness(t, cfg, &transcriber.Fake{Text: "never"})

	h.hk.SimPress()
	h.waitState(t, StateRecording)
	// Stop immediately: nothing was captured.
	h.hk.SimPress()
	h.waitState(t, StateIdle)

	waitFor(t, "no-speech notification", func() bool {
		kinds := h.nf.Kinds()
		return len(kinds) > 0 && kinds[len(kinds)-1] == notify.NoSpeech
	})
	if calls := h.eng.Calls(); calls != 0 {
		t.Errorf("engine calls = %d, want 0 for empty capture", calls)
	}
	if entries := h.logEntries(t); len(entries) != 0 {
		t.Errorf("log entries = %d, want 0", len(entries))
	}
	if texts := h.clip.Texts(); len(texts) != 0 {
		t.Errorf("clipboard written on empty capture: %v", texts)
	}
}

func TestSilenceEngineReturnsEmpty(t *testing.T) {
	cfg := config.Default()
	h := newHarness(t, cfg, &transcriber.Fake{Text: ""})

	h.hk.SimPress()
	h.waitState(t, StateRecording)
	h.emitSeconds(1.0)
	h.hk.SimPress()
	h.waitState(t, StateIdle)

	waitFor(t, "no-speech notification", func() bool {
		kinds := h.nf.Kinds()
		return len(kinds) > 0 && kinds[len(kinds)-1] == notify.NoSpeech
	})
	if calls := h.eng.Calls(); calls != 1 {
		t.Errorf("engine calls = %d, want 1", calls)
	}
	if entries := h.logEntries(t); len(entries) != 0 {
		t.Errorf("log entries = %d, want 0", len(entries))
	}
	if texts := h.clip.Texts(); len(texts) != 0 {
		t.Errorf("clipboard changed on silence: %v", texts)
	}
}

func TestSinkFailureDoesNotBlockOthers(t *testing.T) {
	cfg := config.Default()
	h := newHarness(t, cfg, &transcriber.Fake{Text: "resilient"})
	h.clip.err = errors.New("clipboard locked")

	h.hk.SimPress()
	h.waitState(t, StateRecording)
	h.emitSeconds(0.5)
	h.hk.SimPress()
	h.waitState(t, StateIdle)
	h.o.Flush()

	waitFor(t, "transcribed notification", func() bool {
		for _, k := range h.nf.Kinds() {
			if k == notify.Transcribed {
				return true
			}
		}
		return false
	})
	if entries := h.logEntries(t); len(entries) != 1 {
		t.Errorf("log entries = %d, want 1 despite clipboard failure", len(entries))
	}
}

func TestRepeatedSessionsLogUniqueFiles(t *testing.T) {
	cfg := config.Default()
	h := newHarness(t, cfg, &transcriber.Fake{Text: "same words"})

	for i := 0; i < 3; i++ {
		h.hk.SimPress()
		h.waitState(t, StateRecording)
		h.emitSeconds(0.3)
		h.hk.SimPress()
		h.waitState(t, StateIdle)
		h.o.Flush()
	}

	entries := h.logEntries(t)
	if len(entries) != 3 {
		t.Fatalf("log entries = %d, want 3", len(entries))
	}
	seen := make(map[string]bool)
	for _, e := range entries {
		if seen[e.AudioFile] {
			t.Errorf("duplicate audio file %q", e.AudioFile)
		}
		seen[e.AudioFile] = true
	}
}

func TestCaptureInterruptedKeepsPartialAudio(t *testing.T) {
	cfg := config.Default()
	h := newHarness(t, cfg, &transcriber.Fake{Text: "partial"})

	h.hk.SimPress()
	h.waitState(t, StateRecording)
	h.emitSeconds(0.5)
	h.dev.Fail(errors.New("stream died"))

	// The failure alone must end the session and forward the partial buffer.
	h.waitState(t, StateIdle)
	h.o.Flush()

	if got := h.clip.Texts(); len(got) != 1 || got[0] != "partial" {
		t.Errorf("clipboard texts = %v, want [partial]", got)
	}
	if calls := h.eng.Calls(); calls != 1 {
		t.Errorf("engine calls = %d, want 1", calls)
	}

	// The user must be told the capture was cut short, not just shown
	// the usual transcribing message.
	var stoppedMsg string
	for i, k := range h.nf.Kinds() {
		if k == notify.Stopped {
			stoppedMsg = h.nf.Messages()[i]
		}
	}
	if !strings.Contains(stoppedMsg, "partial") {
		t.Errorf("stop notification %q does not mention the partial recording", stoppedMsg)
	}
}

func TestCaptureUnavailableStaysIdle(t *testing.T) {
	cfg := config.Default()
	fc := audio.NewFakeContext()
	fc.StartErr = errors.New("device busy")
	dev, err := fc.NewCapture(nil, audio.CaptureConfig{SampleRate: uint32(cfg.SampleRate), Channels: 1})
	if err != nil {
		t.Fatal(err)
	}

	eng := &transcriber.Fake{Text: "never"}
	nf := &notify.Fake{}
	o := NewOrchestrator(cfg, dev, eng, nf, nil, SessionHooks{})
	hk := hotkey.NewFake()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx, hk.Toggle())

	hk.SimPress()
	waitFor(t, "error notification", func() bool {
		kinds := nf.Kinds()
		return len(kinds) == 1 && kinds[0] == notify.Error
	})
	if o.State() != StateIdle {
		t.Errorf("state = %v, want idle after failed start", o.State())
	}
	if eng.Calls() != 0 {
		t.Errorf("engine called after failed capture start")
	}
}

func TestTranscriptionErrorNotifiesOnly(t *testing.T) {
	cfg := config.Default()
	h := newHarness(t, cfg, &transcriber.Fake{Err: transcriber.ErrInference})

	h.hk.SimPress()
	h.waitState(t, StateRecording)
	h.emitSeconds(0.5)
	h.hk.SimPress()
	h.waitState(t, StateIdle)

	waitFor(t, "error notification", func() bool {
		kinds := h.nf.Kinds()
		return len(kinds) > 0 && kinds[len(kinds)-1] == notify.Error
	})
	if texts := h.clip.Texts(); len(texts) != 0 {
		t.Errorf("clipboard written on inference error: %v", texts)
	}
	if entries := h.logEntries(t); len(entries) != 0 {
		t.Errorf("log entries = %d, want 0 on inference error", len(entries))
	}
}

func TestSessionHooksFire(t *testing.T) {
	cfg := config.Default()

	var mu sync.Mutex
	var events []string
	hook := func(name string) func() {
		return func() {
			mu.Lock()
			events = append(events, name)
			mu.Unlock()
		}
	}

	fc := audio.NewFakeContext()
	dev, err := fc.NewCapture(nil, audio.CaptureConfig{SampleRate: uint32(cfg.SampleRate), Channels: 1})
	if err != nil {
		t.Fatal(err)
	}
	o := NewOrchestrator(cfg, dev, &transcriber.Fake{Text: "hi"}, &notify.Fake{}, nil, SessionHooks{
		RecordingStarted: hook("start"),
		RecordingStopped: hook("stop"),
	})
	hk := hotkey.NewFake()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx, hk.Toggle())

	hk.SimPress()
	waitFor(t, "recording", func() bool { return o.State() == StateRecording })
	dev.(*audio.FakeCapture).EmitSilence(cfg.SampleRate / 2)
	hk.SimPress()
	waitFor(t, "idle", func() bool { return o.State() == StateIdle })

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 || events[0] != "start" || events[1] != "stop" {
		t.Errorf("hook events = %v, want [start stop]", events)
	}
}
