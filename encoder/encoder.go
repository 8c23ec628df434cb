// Package encoder writes captured audio to disk for the training-data log.
// Mono 16-bit PCM in, WAV or FLAC out.
package encoder

import (
	"fmt"
	"io"
)

const (
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Encode writes pcm in the named format ("wav" or "flac").
func Encode(w io.Writer, format string, pcm []int16, sampleRate int) error {
	switch format {
	case "wav":
		return EncodeWAV(w, pcm, sampleRate)
	case "flac":
		return EncodeFLAC(w, pcm, sampleRate)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// Ext returns the file extension for a format, without the dot.
func Ext(format string) string {
	return format
}
