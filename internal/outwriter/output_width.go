package outwriter

import (
	"os"

	"github.com/huangsam/tenure/internal/contract"
	"golang.org/x/term"
)

// GetMaxTableNameWidth calculates the maximum width for actor names in table
// output based on terminal width.
func GetMaxTableNameWidth(cfg *contract.Config) int {
	termWidth := cfg.Width
	if termWidth <= 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + ID + Days + Label with borders/padding
	baseWidth := 30 + 40

	available := termWidth - baseWidth
	if available < 12 {
		return 12
	}
	if available > 48 {
		return 48
	}
	return available
}
