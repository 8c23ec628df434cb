//go:build linux

package audio

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

// Dictation audio is often captured from quiet laptop microphones, and
// whisper transcribes noticeably better when the signal is hot. The pulse
// backend compensates in two places: the source volume is raised above the
// PulseAudio norm when the stream opens, and every sample is amplified in
// software before it reaches the ring buffer.
const (
	// micGain multiplies each int16 sample, clamping at full scale.
	micGain = 8
	// sourceVolumeBoost scales proto.VolumeNorm for the record stream.
	sourceVolumeBoost = 3
	// captureLatency is the requested fragment latency in seconds. Small
	// fragments keep the stop latency low when the hotkey toggles off.
	captureLatency = 0.05
)

type pulseContext struct {
	client *pulse.Client
}

func NewContext() (Context, error) {
	client, err := pulse.NewClient()
	if err != nil {
		return nil, fmt.Errorf("connecting to pulseaudio: %w", err)
	}
	return &pulseContext{client: client}, nil
}

func (c *pulseContext) Devices() ([]DeviceInfo, error) {
	sources, err := c.client.ListSources()
	if err != nil {
		return nil, fmt.Errorf("listing pulseaudio sources: %w", err)
	}
	devices := make([]DeviceInfo, 0, len(sources))
	for _, src := range sources {
		devices = append(devices, DeviceInfo{ID: src.ID(), Name: src.Name()})
	}
	return devices, nil
}

func (c *pulseContext) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	return &pulseCapture{client: c.client, device: device, config: config}, nil
}

func (c *pulseContext) Close() {
	c.client.Close()
}

type pulseCapture struct {
	client *pulse.Client
	device *DeviceInfo
	config CaptureConfig

	callback atomic.Pointer[DataCallback]

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// amplify applies micGain to a block of int16 samples and packs them as
// little-endian bytes, saturating instead of wrapping on overflow.
func amplify(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int32(s) * micGain
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

func (d *pulseCapture) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return fmt.Errorf("pulse capture already running")
	}

	writer := pulse.Int16Writer(func(samples []int16) (int, error) {
		if cb := d.callback.Load(); cb != nil {
			(*cb)(amplify(samples), uint32(len(samples)))
		}
		return len(samples), nil
	})

	opts := []pulse.RecordOption{
		pulse.RecordMono,
		pulse.RecordSampleRate(int(d.config.SampleRate)),
		pulse.RecordLatency(captureLatency),
		pulse.RecordRawOption(func(p *proto.CreateRecordStream) {
			boosted := uint32(proto.VolumeNorm) * sourceVolumeBoost
			p.ChannelVolumes = proto.ChannelVolumes{boosted}
		}),
	}
	if d.device != nil {
		// A saved source ID can go stale across reboots or replugs. Fall
		// back to the default source rather than refusing to record.
		if src, err := d.client.SourceByID(d.device.ID); err == nil && src != nil {
			opts = append(opts, pulse.RecordSource(src))
		}
	}

	stream, err := d.client.NewRecord(writer, opts...)
	if err != nil {
		return fmt.Errorf("creating record stream: %w", err)
	}

	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	go func(stop, done chan struct{}) {
		defer close(done)
		stream.Start()
		<-stop
		stream.Stop()
		stream.Close()
	}(d.stop, d.done)
	return nil
}

func (d *pulseCapture) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop == nil {
		return
	}
	close(d.stop)
	<-d.done
	d.stop = nil
	d.done = nil
}

func (d *pulseCapture) Close() {
	d.Stop()
}

func (d *pulseCapture) SetCallback(cb DataCallback) {
	d.callback.Store(&cb)
}

func (d *pulseCapture) ClearCallback() {
	d.callback.Store(nil)
}

func (d *pulseCapture) DeviceName() string {
	if d.device != nil {
		return d.device.Name
	}
	return "system default"
}
