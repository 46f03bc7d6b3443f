package cli

import (
	"fmt"
	"io"

	"github.com/pkg/browser"
)

func init() {
	// The interactive screen owns the terminal; opener chatter must not
	// reach it.
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}

// openURL hands a URL to the platform's default handler. For mailto links
// that is the user's mail client; nothing past the hand-off is observable.
func openURL(url string) error {
	if err := browser.OpenURL(url); err != nil {
		return fmt.Errorf("open link: %w", err)
	}
	return nil
}
