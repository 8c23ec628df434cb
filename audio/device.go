package audio

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

type pickerAction int

const (
	pickNone pickerAction = iota
	pickUp
	pickDown
	pickConfirm
	pickCancel
)

// decodeKey maps a raw-mode keypress to a picker action. Arrow keys
// arrive as three-byte escape sequences; j/k work as a fallback.
func decodeKey(buf []byte, n int) pickerAction {
	if n == 1 {
		switch buf[0] {
		case '\r':
			return pickConfirm
		case 3, 'q': // Ctrl+C or q
			return pickCancel
		case 'j':
			return pickDown
		case 'k':
			return pickUp
		}
		return pickNone
	}
	if n == 3 && buf[0] == 0x1b && buf[1] == '[' {
		switch buf[2] {
		case 'A':
			return pickUp
		case 'B':
			return pickDown
		}
	}
	return pickNone
}

// SelectDevice asks which microphone to record from. A lone device is
// returned without prompting. Bluetooth microphones are flagged since
// their headset profile caps the capture quality well below what the
// transcription model wants.
func SelectDevice(ctx Context) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating capture devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no microphone found")
	}
	if len(devices) == 1 {
		return &devices[0], nil
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("entering raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	cursor := 0
	render := func() {
		fmt.Print("\r\x1b[J")
		fmt.Print("Which microphone should murmur record from? (↑/↓, Enter)\r\n\r\n")
		for i, d := range devices {
			tag := ""
			if IsBluetooth(d.Name) {
				tag = " \x1b[33m[⚠ headset profile, reduced quality]\x1b[0m"
			}
			marker := "  "
			line := fmt.Sprintf("%s%s", d.Name, tag)
			if i == cursor {
				marker = "\x1b[1;36m▶ "
				line += "\x1b[0m"
			}
			fmt.Printf("  %s%s\r\n", marker, line)
		}
	}
	render()

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading keypress: %w", err)
		}

		switch decodeKey(buf, n) {
		case pickConfirm:
			fmt.Print("\r\n")
			term.Restore(fd, oldState)
			return &devices[cursor], nil
		case pickCancel:
			fmt.Print("\r\n")
			term.Restore(fd, oldState)
			return nil, fmt.Errorf("device selection cancelled")
		case pickUp:
			if cursor > 0 {
				cursor--
			}
		case pickDown:
			if cursor < len(devices)-1 {
				cursor++
			}
		}

		fmt.Printf("\x1b[%dA", len(devices)+2)
		render()
	}
}
