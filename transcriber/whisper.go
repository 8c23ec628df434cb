package transcriber

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"murmur/audio"
)

// WhisperEngine runs a local whisper.cpp model. The model is loaded once and
// reused; Transcribe serializes access to the inference context.
type WhisperEngine struct {
	cfg Config

	mu    sync.Mutex
	model whisper.Model
	wctx  whisper.Context
}

func NewWhisper(cfg Config) *WhisperEngine {
	return &WhisperEngine{cfg: cfg}
}

func (e *WhisperEngine) Name() string { return "whisper" }

// Preload loads the model eagerly so the first recording does not pay the
// load latency.
func (e *WhisperEngine) Preload() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.load()
}

// load must be called with e.mu held.
func (e *WhisperEngine) load() error {
	if e.wctx != nil {
		return nil
	}

	path, err := e.modelFile()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	model, err := whisper.New(path)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrModelLoad, path, err)
	}

	wctx, err := model.NewContext()
	if err != nil {
		model.Close()
		return fmt.Errorf("%w: %v", ErrDevice, err)
	}

	lang := e.cfg.Language
	if lang == "" {
		lang = "auto"
	}
	if err := wctx.SetLanguage(lang); err != nil {
		model.Close()
		return fmt.Errorf("%w: language %q: %v", ErrInference, lang, err)
	}
	wctx.SetTranslate(false)
	if e.cfg.Threads > 0 {
		wctx.SetThreads(uint(e.cfg.Threads))
	}

	e.model = model
	e.wctx = wctx
	return nil
}

// modelFile resolves the ggml model file: an explicit path wins, otherwise
// the model name maps to the per-user models directory.
func (e *WhisperEngine) modelFile() (string, error) {
	if e.cfg.ModelPath != "" {
		return e.cfg.ModelPath, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "murmur", "models", "ggml-"+e.cfg.Model+".bin"), nil
}

func (e *WhisperEngine) Transcribe(ctx context.Context, buf *audio.Buffer) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := e.load(); err != nil {
		return Result{}, err
	}

	samples := normalize(buf.Float32())

	start := time.Now()
	var segments []string
	err := e.wctx.Process(samples, nil, func(seg whisper.Segment) {
		segments = append(segments, seg.Text)
	}, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInference, err)
	}

	text := postProcess(strings.Join(segments, " "))
	return Result{
		Text:           text,
		Duration:       buf.Seconds(),
		ProcessingTime: time.Since(start).Seconds(),
		Model:          e.cfg.Model,
		Timestamp:      time.Now(),
	}, nil
}

func (e *WhisperEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model != nil {
		err := e.model.Close()
		e.model = nil
		e.wctx = nil
		return err
	}
	return nil
}

// normalize scales the samples so the loudest peak sits at full scale. Quiet
// recordings transcribe noticeably better this way.
func normalize(samples []float32) []float32 {
	var peak float32
	for _, s := range samples {
		if s > peak {
			peak = s
		} else if -s > peak {
			peak = -s
		}
	}
	if peak == 0 || peak >= 1 {
		return samples
	}
	scaled := make([]float32, len(samples))
	for i, s := range samples {
		scaled[i] = s / peak
	}
	return scaled
}
