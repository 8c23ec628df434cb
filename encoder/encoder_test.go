package encoder

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func sineSamples(n int) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(math.Sin(2*math.Pi*440*float64(i)/16000) * 16000)
	}
	return samples
}

func TestEncodeWAVHeader(t *testing.T) {
	samples := sineSamples(1600)
	var buf bytes.Buffer
	if err := EncodeWAV(&buf, samples, 16000); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}

	data := buf.Bytes()
	if len(data) != wavHeaderSize+len(samples)*2 {
		t.Fatalf("size = %d, want %d", len(data), wavHeaderSize+len(samples)*2)
	}
	if string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE magic")
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != 16000 {
		t.Errorf("sample rate = %d, want 16000", rate)
	}
	if ch := binary.LittleEndian.Uint16(data[22:24]); ch != 1 {
		t.Errorf("channels = %d, want 1", ch)
	}
	if dataSize := binary.LittleEndian.Uint32(data[40:44]); dataSize != uint32(len(samples)*2) {
		t.Errorf("data size = %d, want %d", dataSize, len(samples)*2)
	}
}

func TestEncodeFLACMagic(t *testing.T) {
	samples := sineSamples(BlockSize + BlockSize/2) // forces a partial final block
	var buf bytes.Buffer
	if err := EncodeFLAC(&buf, samples, 16000); err != nil {
		t.Fatalf("EncodeFLAC: %v", err)
	}
	data := buf.Bytes()
	if len(data) < 4 || string(data[:4]) != "fLaC" {
		t.Fatal("output does not start with FLAC magic")
	}
}

func TestEncodeDispatch(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, "wav", sineSamples(16), 16000); err != nil {
		t.Errorf("wav: %v", err)
	}
	if err := Encode(&buf, "ogg", nil, 16000); err == nil {
		t.Error("expected error for unknown format")
	}
}
