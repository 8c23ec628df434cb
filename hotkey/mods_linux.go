//go:build linux

package hotkey

import "golang.design/x/hotkey"

// X11 modifier masks: Mod1 is Alt, Mod4 is Super on stock keymaps.
var modifiers = map[string]hotkey.Modifier{
	"ctrl":    hotkey.ModCtrl,
	"control": hotkey.ModCtrl,
	"shift":   hotkey.ModShift,
	"alt":     hotkey.Mod1,
	"super":   hotkey.Mod4,
	"win":     hotkey.Mod4,
}
