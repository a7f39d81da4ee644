package schema

// StoreStatus describes the state of the effect store backend.
type StoreStatus struct {
	Backend     DatabaseBackend
	Location    string // File path or redacted connection target
	RunCount    int
	EffectCount int
}
