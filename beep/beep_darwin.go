//go:build darwin

package beep

import (
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

// On macOS a single malgo playback device stays open for the life of the
// process and is fed from cue byte slices. The data callback reads the
// active cue through an atomic pointer so PlayStart and friends never
// block on audio I/O.
var (
	audioCtx *malgo.AllocatedContext
	playback *malgo.Device

	startBytes []byte
	endBytes   []byte
	errorBytes []byte
	cueOnce    sync.Once

	activeCue atomic.Pointer[[]byte]
	cuePos    atomic.Uint32
	cueMu     sync.Mutex
)

// pcmBytes packs mono samples as little-endian signed 16-bit PCM.
func pcmBytes(mono []int16) []byte {
	out := make([]byte, len(mono)*2)
	for i, s := range mono {
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}

func openPlayback() error {
	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = 1
	cfg.SampleRate = sampleRate

	var err error
	playback, err = malgo.InitDevice(audioCtx.Context, cfg, malgo.DeviceCallbacks{
		Data: feedCue,
	})
	return err
}

func initSound() {
	var err error
	audioCtx, err = malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return
	}

	startBytes = pcmBytes(startTone())
	endBytes = pcmBytes(endTone())
	errorBytes = pcmBytes(errorTone())

	if err := openPlayback(); err != nil {
		audioCtx.Uninit()
		audioCtx = nil
	}
}

// feedCue streams the active cue into the output buffer and zero-fills
// the rest. When the cue runs out it clears itself so the device emits
// silence until the next play call.
func feedCue(out, _ []byte, frameCount uint32) {
	cue := activeCue.Load()
	if cue == nil || len(*cue) == 0 {
		for i := range out {
			out[i] = 0
		}
		return
	}

	pos := cuePos.Load()
	remaining := uint32(len(*cue)) - pos
	if remaining == 0 {
		activeCue.Store(nil)
		for i := range out {
			out[i] = 0
		}
		return
	}

	want := frameCount * 2
	if want > remaining {
		want = remaining
	}
	copy(out[:want], (*cue)[pos:pos+want])
	cuePos.Store(pos + want)
	for i := want; i < frameCount*2; i++ {
		out[i] = 0
	}
}

func play(cue []byte) {
	if audioCtx == nil || len(cue) == 0 {
		return
	}

	cueMu.Lock()
	defer cueMu.Unlock()
	if playback == nil {
		return
	}

	playback.Stop()
	cuePos.Store(0)
	activeCue.Store(&cue)

	if err := playback.Start(); err != nil {
		// The device handle dies across sleep/wake. Recreate it once
		// and retry before giving up on this cue.
		playback.Uninit()
		if err := openPlayback(); err != nil {
			activeCue.Store(nil)
			return
		}
		if err := playback.Start(); err != nil {
			activeCue.Store(nil)
		}
	}
}

func Init() {
	cueOnce.Do(initSound)
}

func PlayStart() {
	if disabled {
		return
	}
	cueOnce.Do(initSound)
	play(startBytes)
}

func PlayEnd() {
	if disabled {
		return
	}
	cueOnce.Do(initSound)
	play(endBytes)
}

func PlayError() {
	if disabled {
		return
	}
	cueOnce.Do(initSound)
	play(errorBytes)
}
