// Package clipboard copies transcripts to the system clipboard.
package clipboard

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	atclip "github.com/atotto/clipboard"
)

// Replaced in tests.
var (
	writeAll = atclip.WriteAll
	lookPath = exec.LookPath
	runCmd   = func(ctx context.Context, stdin string, name string, args ...string) error {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stdin = strings.NewReader(stdin)
		return cmd.Run()
	}
)

// isWayland returns true if the session is running under Wayland.
func isWayland() bool {
	return os.Getenv("WAYLAND_DISPLAY") != ""
}

// CopyText places text on the system clipboard. Under Wayland wl-copy is
// preferred when installed, since X11 clipboard tools may not reach native
// Wayland applications.
func CopyText(text string) error {
	if isWayland() {
		if _, err := lookPath("wl-copy"); err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := runCmd(ctx, text, "wl-copy"); err != nil {
				return fmt.Errorf("wl-copy: %w", err)
			}
			return nil
		}
	}
	if err := writeAll(text); err != nil {
		return fmt.Errorf("write to clipboard: %w", err)
	}
	return nil
}

// Available reports whether a clipboard backend can be used.
func Available() bool {
	if isWayland() {
		if _, err := lookPath("wl-copy"); err == nil {
			return true
		}
	}
	return !atclip.Unsupported
}
