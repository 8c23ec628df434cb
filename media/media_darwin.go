//go:build darwin

package media

// Media keys on macOS are HID system events that keybd_event cannot
// synthesize; playback is left alone.
func playPause() error { return nil }
