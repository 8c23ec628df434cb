package transcriber

import (
	"context"
	"errors"
	"strings"
	"time"

	"murmur/audio"
)

var (
	// ErrModelLoad means the speech model could not be loaded.
	ErrModelLoad = errors.New("model load failed")
	// ErrInference means the model rejected or failed on the given audio.
	ErrInference = errors.New("inference failed")
	// ErrDevice means the configured compute device is not usable.
	ErrDevice = errors.New("compute device unavailable")
)

// Config selects the model and how to run it. Validated by the caller before
// the engine is constructed.
type Config struct {
	Model     string // short model name, recorded in results ("small", ...)
	ModelPath string // path to the ggml weights file
	Device    string // "cpu" or "gpu"
	Language  string // ISO-639-1 hint, "" = auto-detect
	Threads   int    // 0 = runtime default
}

// Result is one finished transcription. Immutable once constructed.
type Result struct {
	Text           string
	Duration       float64 // seconds of audio transcribed
	ProcessingTime float64 // seconds spent in inference
	Model          string
	Timestamp      time.Time
}

// NoSpeech reports the distinct "nothing was said" outcome: the engine ran
// fine but produced no text.
func (r Result) NoSpeech() bool {
	return strings.TrimSpace(r.Text) == ""
}

// Engine turns a finished audio buffer into text. Transcribe is synchronous
// and may take seconds; callers run it off the hot path.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, buf *audio.Buffer) (Result, error)
	Close() error
}
