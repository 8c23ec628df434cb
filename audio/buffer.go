package audio

import (
	"encoding/binary"
	"time"
)

// Buffer holds the finalized audio of one recording session: mono 16-bit PCM
// at a fixed sample rate. It is append-only while capture runs and immutable
// once the Recorder hands it out; ownership transfers with it.
type Buffer struct {
	pcm        []byte
	sampleRate int
}

func (b *Buffer) SampleRate() int { return b.sampleRate }

// PCM returns the raw little-endian 16-bit samples.
func (b *Buffer) PCM() []byte { return b.pcm }

// Frames returns the number of samples in the buffer.
func (b *Buffer) Frames() int { return len(b.pcm) / 2 }

func (b *Buffer) Duration() time.Duration {
	if b.sampleRate == 0 {
		return 0
	}
	return time.Duration(float64(b.Frames()) / float64(b.sampleRate) * float64(time.Second))
}

func (b *Buffer) Seconds() float64 {
	if b.sampleRate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.sampleRate)
}

// Float32 converts the samples to normalized float32 in [-1, 1), the input
// format the inference engine expects.
func (b *Buffer) Float32() []float32 {
	samples := make([]float32, b.Frames())
	for i := range samples {
		s := int16(binary.LittleEndian.Uint16(b.pcm[i*2:]))
		samples[i] = float32(s) / 32768.0
	}
	return samples
}

func (b *Buffer) Int16s() []int16 {
	samples := make([]int16, b.Frames())
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(b.pcm[i*2:]))
	}
	return samples
}
