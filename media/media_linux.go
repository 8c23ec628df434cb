//go:build linux

package media

import "github.com/micmonay/keybd_event"

func playPause() error {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return err
	}
	kb.SetKeys(keybd_event.VK_PLAYPAUSE)
	return kb.Launching()
}
