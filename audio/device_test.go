package audio

import "testing"

func TestDecodeKey(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		want pickerAction
	}{
		{"enter", []byte{'\r'}, pickConfirm},
		{"ctrl-c", []byte{3}, pickCancel},
		{"q", []byte{'q'}, pickCancel},
		{"j", []byte{'j'}, pickDown},
		{"k", []byte{'k'}, pickUp},
		{"arrow up", []byte{0x1b, '[', 'A'}, pickUp},
		{"arrow down", []byte{0x1b, '[', 'B'}, pickDown},
		{"unknown", []byte{'x'}, pickNone},
		{"partial escape", []byte{0x1b, '[', 0}, pickNone},
	}
	for _, tc := range cases {
		buf := make([]byte, 3)
		copy(buf, tc.buf)
		if got := decodeKey(buf, len(tc.buf)); got != tc.want {
			t.Errorf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}
