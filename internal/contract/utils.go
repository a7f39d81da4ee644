package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Significance label constants.
const (
	StrongValue   = "Strong"   // Large, highly significant effect
	ModerateValue = "Moderate" // Clear but modest effect
	WeakValue     = "Weak"     // Barely clears the filters
)

// Color variables for console output.
var (
	StrongColor   = color.New(color.FgGreen, color.Bold) // strongColor marks effects worth recommending first.
	ModerateColor = color.New(color.FgYellow)            // moderateColor marks standard effects.
	WeakColor     = color.New(color.FgCyan)              // weakColor marks low-priority signal.
)

// GetPlainLabel returns a plain text label for an effect based on its
// ATT magnitude. This is the core logic used for CSV, JSON, and table
// printing.
func GetPlainLabel(att float64) string {
	abs := att
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 60:
		return StrongValue
	case abs >= 20:
		return ModerateValue
	default:
		return WeakValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
// It uses GetPlainLabel to determine the string, and then applies the
// appropriate color.
func GetColorLabel(att float64) string {
	text := GetPlainLabel(att)
	switch text {
	case StrongValue:
		return StrongColor.Sprint(text)
	case ModerateValue:
		return ModerateColor.Sprint(text)
	default: // "Weak"
		return WeakColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output,
// based on the provided file path. An empty path means stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ParseBoolString interprets yes/no style flag values.
func ParseBoolString(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true", "on", "1":
		return true, nil
	case "no", "false", "off", "0", "":
		return false, nil
	default:
		return false, fmt.Errorf("expected yes/no, got %q", value)
	}
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetStoreDBFilePath returns the path to the SQLite DB file for effect storage.
func GetStoreDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".uplift_effects.db"
	}
	return filepath.Join(homeDir, ".uplift_effects.db")
}
