package contract

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/RohanTewariIIITS/hack-the-winter-swastik/schema"
)

// Default values for configuration.
const (
	DefaultRatingBinWidth     = 50.0
	DefaultAccuracyBinWidth   = 0.05
	DefaultDifficultyBinWidth = 100.0
	DefaultOutcomeWindow      = 20
	DefaultImprovementDelta   = 50.0
	DefaultMinTreatedSamples  = 20
	DefaultPValueThreshold    = 0.01
	DefaultEffectSanityCap    = 300.0
	DefaultSurvivalHorizon    = 100
	DefaultMinUserEvents      = 10
	DefaultResultLimit        = 25
	DefaultPrecision          = 2
	MaxResultLimit            = 1000
)

// Rating plausibility bounds. Events outside this range are noise from
// unrated or provisional accounts and are excluded before matching.
const (
	MinPlausibleRating = 800.0
	MaxPlausibleRating = 4000.0
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// Config holds the runtime configuration for an estimation run.
// This struct remains the "final, validated" config. It is constructed
// once per run and passed to every stage; there is no hidden
// process-wide state behind it.
type Config struct {
	FeaturesPath string // Input snapshot Parquet artifact
	OutputDir    string // Directory for output Parquet tables

	// Coarsened exact matching bin widths.
	RatingBinWidth     float64
	AccuracyBinWidth   float64
	DifficultyBinWidth float64

	OutcomeWindow     int     // Future submissions over which Δrating is measured
	ImprovementDelta  float64 // Rating gain that counts as an improvement event
	MinTreatedSamples int     // Below this, an item is skipped silently
	PValueThreshold   float64 // Uncorrected significance level, Bonferroni-divided per run
	EffectSanityCap   float64 // |ATT| above this is discarded as implausible
	SurvivalHorizon   int     // Right-censoring horizon in submissions
	MinUserEvents     int     // Users with fewer events are excluded entirely
	RandomSeed        int64   // Seeds control-pool resampling and decoy selection

	RunID       string
	Workers     int
	ResultLimit int
	Precision   int
	Output      schema.OutputMode
	OutputFile  string

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env,
// config file). Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	FeaturesPathStr string

	OutputDir  string `mapstructure:"output-dir"`
	OutputFile string `mapstructure:"output-file"`
	Limit      int    `mapstructure:"limit"`
	Workers    int    `mapstructure:"workers"`
	Precision  int    `mapstructure:"precision"`
	Output     string `mapstructure:"output"`
	Emoji      string `mapstructure:"emoji"`
	Color      string `mapstructure:"color"`

	RatingBin     float64 `mapstructure:"rating-bin"`
	AccuracyBin   float64 `mapstructure:"accuracy-bin"`
	DifficultyBin float64 `mapstructure:"difficulty-bin"`

	OutcomeWindow    int     `mapstructure:"outcome-window"`
	ImprovementDelta float64 `mapstructure:"improvement-delta"`
	MinTreated       int     `mapstructure:"min-treated"`
	PValue           float64 `mapstructure:"p-value"`
	SanityCap        float64 `mapstructure:"sanity-cap"`
	Horizon          int     `mapstructure:"horizon"`
	MinUserEvents    int     `mapstructure:"min-user-events"`
	Seed             int64   `mapstructure:"seed"`
	RunID            string  `mapstructure:"run-id"`

	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// CloneWithBinWidths creates a copy of the Config with narrower bins,
// used when the balance diagnostic triggers a re-bin.
func (c *Config) CloneWithBinWidths(rating, accuracy, difficulty float64) *Config {
	clone := c.Clone()
	clone.RatingBinWidth = rating
	clone.AccuracyBinWidth = accuracy
	clone.DifficultyBinWidth = difficulty
	return clone
}

// ProcessAndValidate performs all parsing and validation on the raw
// inputs and populates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateEstimationInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfig(cfg, input); err != nil {
		return err
	}
	return nil
}

// validateSimpleInputs processes and validates output and runtime fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.FeaturesPath = input.FeaturesPathStr
	cfg.OutputDir = input.OutputDir
	cfg.OutputFile = input.OutputFile

	// Parse emoji flag
	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. ResultLimit Validation ---
	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 4 {
		return fmt.Errorf("precision must be between 1 and 4 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", cfg.Output)
	}

	// --- 4. RunID ---
	cfg.RunID = input.RunID
	if cfg.RunID == "" {
		cfg.RunID = time.Now().UTC().Format("20060102T150405Z")
	}

	return nil
}

// validateEstimationInputs validates every estimation option. The full
// option surface is enumerated here so a typo in a flag or config file
// fails at construction, not halfway through a batch.
func validateEstimationInputs(cfg *Config, input *ConfigRawInput) error {
	if input.RatingBin <= 0 {
		return fmt.Errorf("rating-bin must be positive (received %g)", input.RatingBin)
	}
	cfg.RatingBinWidth = input.RatingBin

	if input.AccuracyBin <= 0 || input.AccuracyBin > 1 {
		return fmt.Errorf("accuracy-bin must be in (0, 1] (received %g)", input.AccuracyBin)
	}
	cfg.AccuracyBinWidth = input.AccuracyBin

	if input.DifficultyBin <= 0 {
		return fmt.Errorf("difficulty-bin must be positive (received %g)", input.DifficultyBin)
	}
	cfg.DifficultyBinWidth = input.DifficultyBin

	if input.OutcomeWindow < 1 {
		return fmt.Errorf("outcome-window must be at least 1 submission (received %d)", input.OutcomeWindow)
	}
	cfg.OutcomeWindow = input.OutcomeWindow

	if input.ImprovementDelta <= 0 {
		return fmt.Errorf("improvement-delta must be positive (received %g)", input.ImprovementDelta)
	}
	cfg.ImprovementDelta = input.ImprovementDelta

	if input.MinTreated < 2 {
		return fmt.Errorf("min-treated must be at least 2 for a two-sample test (received %d)", input.MinTreated)
	}
	cfg.MinTreatedSamples = input.MinTreated

	if input.PValue <= 0 || input.PValue >= 1 {
		return fmt.Errorf("p-value threshold must be in (0, 1) (received %g)", input.PValue)
	}
	cfg.PValueThreshold = input.PValue

	if input.SanityCap <= 0 {
		return fmt.Errorf("sanity-cap must be positive (received %g)", input.SanityCap)
	}
	cfg.EffectSanityCap = input.SanityCap

	if input.Horizon < input.OutcomeWindow {
		return fmt.Errorf("horizon must be at least the outcome window (received %d < %d)", input.Horizon, input.OutcomeWindow)
	}
	cfg.SurvivalHorizon = input.Horizon

	if input.MinUserEvents < 1 {
		return fmt.Errorf("min-user-events must be at least 1 (received %d)", input.MinUserEvents)
	}
	cfg.MinUserEvents = input.MinUserEvents

	cfg.RandomSeed = input.Seed
	return nil
}

// validateBackendConfig validates the effect store configuration.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	backend := input.StoreBackend
	if backend == "" {
		backend = string(schema.NoneBackend)
	}
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(backend))
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	return ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect)
}

// ValidateDatabaseConnectionString validates the format of database
// connection strings for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") && !strings.HasPrefix(connStr, "postgres://") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' or use a postgres:// URL")
		}
	}
	return nil
}
