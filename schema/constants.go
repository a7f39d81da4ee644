package schema

// OutputMode controls the rendering of results on stdout or file.
type OutputMode string

// Supported output modes.
const (
	TextOut OutputMode = "text"
	CSVOut  OutputMode = "csv"
	JSONOut OutputMode = "json"
)

// ValidOutputModes is the allow-list used during config validation.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut: {},
	CSVOut:  {},
	JSONOut: {},
}

// DatabaseBackend identifies the effect store implementation.
type DatabaseBackend string

// Supported database backends.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// ValidDatabaseBackends is the allow-list used during config validation.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// Validation check names emitted in ValidationReport records.
const (
	PlaceboCheck  = "placebo"
	PreTrendCheck = "pre_trend"
	BalanceCheck  = "balance"
	SkipCheck     = "skip"
)

// Skip reasons recorded when an item emits no effect. These are
// recoverable per-item conditions, never batch failures.
const (
	SkipInsufficientSample = "insufficient_sample"
	SkipImplausibleEffect  = "implausible_effect"
	SkipNotSignificant     = "not_significant"
	SkipMissingConfounder  = "missing_confounder"
	SkipNoOutcomeWindow    = "no_outcome_window"
)
