package app

import (
	"log"
	"runtime"

	atotto "github.com/atotto/clipboard"
	"golang.design/x/clipboard"
)

var nativeClipboard bool

// InitClipboard prepares the system clipboard. When the native clipboard
// cannot start (no X11 display libraries, for instance) the editor falls
// back to the command line tools used by atotto/clipboard.
func InitClipboard() error {
	if runtime.GOARCH == "wasm" || runtime.GOOS == "js" {
		return nil
	}
	if err := clipboard.Init(); err != nil {
		log.Printf("[APP] native clipboard unavailable, using fallback: %v", err)
		return err
	}
	nativeClipboard = true
	return nil
}

func writeClipboard(s string) error {
	if nativeClipboard {
		clipboard.Write(clipboard.FmtText, []byte(s))
		return nil
	}
	return atotto.WriteAll(s)
}

func readClipboard() (string, error) {
	if nativeClipboard {
		return string(clipboard.Read(clipboard.FmtText)), nil
	}
	return atotto.ReadAll()
}
