package models

// ConflictStrategy selects how merge conflicts are resolved.
type ConflictStrategy string

const (
	// StrategyManual leaves resolution to the user.
	StrategyManual ConflictStrategy = "manual"
	// StrategyOurs keeps the local side of each conflict.
	StrategyOurs ConflictStrategy = "ours"
	// StrategyTheirs keeps the remote side of each conflict.
	StrategyTheirs ConflictStrategy = "theirs"
	// StrategyBoth commits the file as-is with markers preserved so neither
	// side is lost.
	StrategyBoth ConflictStrategy = "both"
)

// Valid reports whether s is one of the defined strategies.
func (s ConflictStrategy) Valid() bool {
	switch s {
	case StrategyManual, StrategyOurs, StrategyTheirs, StrategyBoth:
		return true
	}
	return false
}

// Resolves reports whether s performs automatic resolution. Manual is valid
// as a configured strategy but cannot be used to resolve.
func (s ConflictStrategy) Resolves() bool {
	return s.Valid() && s != StrategyManual
}

// AvailableStrategies lists every strategy accepted by the setter.
func AvailableStrategies() []string {
	return []string{
		string(StrategyManual),
		string(StrategyOurs),
		string(StrategyTheirs),
		string(StrategyBoth),
	}
}

// ConflictDetails describes the current conflict state for the UI.
type ConflictDetails struct {
	HasConflicts        bool     `json:"has_conflicts"`
	Count               int      `json:"conflict_count,omitempty"`
	Files               []string `json:"conflict_files,omitempty"`
	CurrentStrategy     string   `json:"current_strategy,omitempty"`
	AvailableStrategies []string `json:"resolution_options,omitempty"`
}
