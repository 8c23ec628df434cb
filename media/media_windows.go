//go:build windows

package media

import "github.com/micmonay/keybd_event"

func playPause() error {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return err
	}
	kb.SetKeys(keybd_event.VK_MEDIA_PLAY_PAUSE)
	return kb.Launching()
}
