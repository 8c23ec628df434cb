// Package clipboard wraps system clipboard access and the synthetic paste
// keystroke used by auto-paste.
package clipboard

import cb "github.com/atotto/clipboard"

func Read() (string, error) {
	return cb.ReadAll()
}

func Copy(text string) error {
	return cb.WriteAll(text)
}
