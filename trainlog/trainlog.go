// Package trainlog collects {audio, transcription} pairs for building
// fine-tuning datasets: one JSONL metadata record per utterance plus the raw
// audio file it points at.
package trainlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"murmur/audio"
	"murmur/encoder"
	"murmur/transcriber"
)

const metadataFile = "transcriptions.jsonl"

// Entry is one line of the metadata log. The field set is fixed; consumers
// parse these files long after murmur wrote them.
type Entry struct {
	Timestamp      string  `json:"timestamp"`
	AudioFile      string  `json:"audio_file"`
	Transcription  string  `json:"transcription"`
	Duration       float64 `json:"duration"`
	Model          string  `json:"model"`
	ProcessingTime float64 `json:"processing_time"`
}

type Logger struct {
	dir      string
	audioDir string
	format   string // "wav" or "flac"
	mu       sync.Mutex
}

// DefaultDir returns the per-user training data location.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "murmur", "training_data"), nil
}

func New(dir, format string) (*Logger, error) {
	audioDir := filepath.Join(dir, "audio")
	if err := os.MkdirAll(audioDir, 0755); err != nil {
		return nil, fmt.Errorf("creating training data directory: %w", err)
	}
	return &Logger{dir: dir, audioDir: audioDir, format: format}, nil
}

func (l *Logger) Dir() string { return l.dir }

// Append persists the audio and writes one metadata record. Empty
// transcriptions are skipped; the training set only wants real speech.
func (l *Logger) Append(buf *audio.Buffer, res transcriber.Result) (Entry, error) {
	if res.NoSpeech() {
		return Entry{}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	name := l.audioFileName(res.Timestamp)
	f, err := os.OpenFile(filepath.Join(l.audioDir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return Entry{}, fmt.Errorf("creating audio file: %w", err)
	}
	if err := encoder.Encode(f, l.format, buf.Int16s(), buf.SampleRate()); err != nil {
		f.Close()
		return Entry{}, fmt.Errorf("encoding audio: %w", err)
	}
	if err := f.Close(); err != nil {
		return Entry{}, err
	}

	entry := Entry{
		Timestamp:      res.Timestamp.Format(time.RFC3339Nano),
		AudioFile:      name,
		Transcription:  res.Text,
		Duration:       res.Duration,
		Model:          res.Model,
		ProcessingTime: res.ProcessingTime,
	}
	if err := l.appendMetadata(entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// audioFileName builds a collision-resistant name: wall-clock timestamp down
// to microseconds plus a random disambiguator for identical timestamps.
func (l *Logger) audioFileName(ts time.Time) string {
	stamp := ts.Format("20060102_150405.000000")
	stamp = strings.Replace(stamp, ".", "_", 1)
	return fmt.Sprintf("%s_%s.%s", stamp, uuid.NewString()[:8], encoder.Ext(l.format))
}

func (l *Logger) appendMetadata(entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(l.dir, metadataFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening metadata log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending metadata: %w", err)
	}
	return nil
}

// Stats scans the metadata log and reports entry count and total logged audio
// seconds. Used for the startup summary.
func (l *Logger) Stats() (count int, totalSeconds float64, err error) {
	f, err := os.Open(filepath.Join(l.dir, metadataFile))
	if os.IsNotExist(err) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry Entry
		if json.Unmarshal(scanner.Bytes(), &entry) != nil {
			continue
		}
		count++
		totalSeconds += entry.Duration
	}
	return count, totalSeconds, scanner.Err()
}
