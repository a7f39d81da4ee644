// Package outwriter has output and writer logic for run results.
package outwriter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/contract"
	"golang.org/x/term"
)

// LogRunHeader prints a concise, 2-line header for an estimation run.
func LogRunHeader(cfg *contract.Config) {
	name := filepath.Base(cfg.FeaturesPath)
	if name == "" || name == "." {
		name = "features"
	}

	if cfg.UseEmojis {
		fmt.Printf("🔎 Features: %s (run: %s)\n", name, cfg.RunID)
		fmt.Printf("📐 Bins: rating %g / accuracy %g / difficulty %g, window %d, seed %d\n",
			cfg.RatingBinWidth, cfg.AccuracyBinWidth, cfg.DifficultyBinWidth, cfg.OutcomeWindow, cfg.RandomSeed)
		return
	}
	fmt.Printf("Features: %s (run: %s)\n", name, cfg.RunID)
	fmt.Printf("Bins: rating %g / accuracy %g / difficulty %g, window %d, seed %d\n",
		cfg.RatingBinWidth, cfg.AccuracyBinWidth, cfg.DifficultyBinWidth, cfg.OutcomeWindow, cfg.RandomSeed)
}

// getMaxTableItemWidth calculates the maximum width for item ids in
// table output based on terminal width.
func getMaxTableItemWidth() int {
	termWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || termWidth <= 0 {
		// Fallback to conservative default for narrow terminals and CI
		termWidth = 80
	}

	// Reserve space for the numeric columns with borders and padding
	const baseWidth = 62
	itemWidth := termWidth - baseWidth
	if itemWidth < 12 {
		itemWidth = 12
	}
	return itemWidth
}

// truncateItem shortens an item id to fit the table column.
func truncateItem(itemID string, maxWidth int) string {
	if len(itemID) <= maxWidth {
		return itemID
	}
	if maxWidth <= 3 {
		return itemID[:maxWidth]
	}
	return itemID[:maxWidth-3] + "..."
}
