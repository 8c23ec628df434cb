// Package beep plays the short audio cues that bracket a dictation
// session: a high tick when the microphone opens, a lower tick when it
// closes, and a double beep when something fails. Cues are best-effort;
// a playback problem must never interfere with capture or transcription.
package beep

import "math"

var disabled bool

// Disable turns every cue into a no-op. Set once at startup when audio
// feedback is switched off in the config.
func Disable() { disabled = true }

const sampleRate = 44100

// Cue shapes. Frequency in Hz, duration in seconds, volume as a 0..1
// fraction of full scale, decay as the exponential envelope rate.
const (
	startFreq   = 1200.0
	startDur    = 0.05
	startVolume = 0.5
	startDecay  = 60.0

	endFreq   = 900.0
	endDur    = 0.08
	endVolume = 0.5
	endDecay  = 40.0

	errorFreq   = 350.0
	errorDur    = 0.08
	errorGap    = 0.05
	errorVolume = 0.6
	errorDecay  = 30.0
)

// tone synthesizes a decaying sine burst as mono 16-bit samples.
func tone(freq, duration, volume, decay float64) []int16 {
	n := int(sampleRate * duration)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / sampleRate
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

// doubleTone is two identical bursts separated by a silent gap.
func doubleTone(freq, burstDur, gapDur, volume, decay float64) []int16 {
	burst := tone(freq, burstDur, volume, decay)
	gap := make([]int16, int(sampleRate*gapDur))
	out := make([]int16, 0, 2*len(burst)+len(gap))
	out = append(out, burst...)
	out = append(out, gap...)
	out = append(out, burst...)
	return out
}

func startTone() []int16 { return tone(startFreq, startDur, startVolume, startDecay) }
func endTone() []int16   { return tone(endFreq, endDur, endVolume, endDecay) }
func errorTone() []int16 {
	return doubleTone(errorFreq, errorDur, errorGap, errorVolume, errorDecay)
}
