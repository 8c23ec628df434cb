// Package notify emits desktop notifications for session events.
package notify

import (
	"sync"

	"github.com/gen2brain/beeep"
)

const appTitle = "murmur"

// Kind classifies a notification; each maps to one user-visible moment in the
// session lifecycle.
type Kind int

const (
	Started Kind = iota
	Stopped
	Transcribed
	NoSpeech
	Error
)

func (k Kind) String() string {
	switch k {
	case Started:
		return "started"
	case Stopped:
		return "stopped"
	case Transcribed:
		return "transcribed"
	case NoSpeech:
		return "no-speech"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// maxBody keeps long transcriptions from overflowing the notification bubble.
const maxBody = 120

// Desktop sends notifications through the OS notification service.
type Desktop struct{}

func NewDesktop() *Desktop { return &Desktop{} }

func (d *Desktop) Notify(kind Kind, message string) error {
	if r := []rune(message); len(r) > maxBody {
		message = string(r[:maxBody-1]) + "…"
	}
	if kind == Error {
		return beeep.Alert(appTitle, message, "")
	}
	return beeep.Notify(appTitle, message, "")
}

// Fake records notifications for tests. Safe for concurrent use.
type Fake struct {
	mu       sync.Mutex
	Err      error
	kinds    []Kind
	messages []string
}

func (f *Fake) Notify(kind Kind, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
	f.messages = append(f.messages, message)
	return f.Err
}

func (f *Fake) Kinds() []Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Kind(nil), f.kinds...)
}

func (f *Fake) Messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}
