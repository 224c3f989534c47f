package detail

import (
	"errors"

	"github.com/atotto/clipboard"
)

var errClipboardUnsupported = errors.New("clipboard not available on this system")

func clipboardWrite(text string) error {
	if clipboard.Unsupported {
		return errClipboardUnsupported
	}
	return clipboard.WriteAll(text)
}
