package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrIncompatibleVersion is returned for documents newer than this build.
	ErrIncompatibleVersion = errors.New("incompatible store version")
	// ErrInvalidPayload is returned for import documents with a bad shape.
	ErrInvalidPayload = errors.New("invalid import payload")
)

// ImportResult reports the outcome of Import. Import never returns an error
// value directly; failures are described here.
type ImportResult struct {
	OK           bool
	ImportedDays int
	Message      string
	Err          error
}

type importPayload struct {
	Version         *int                       `json:"version"`
	DailyAggregates map[string]*DailyAggregate `json:"dailyAggregates"`
	Settings        map[string]json.RawMessage `json:"settings"`
}

// settingsPatch holds only the settings keys present in an import.
type settingsPatch struct {
	idleTimeoutMs *int64
	showStatusBar *bool
}

func (p settingsPatch) apply(s *Settings) {
	if p.idleTimeoutMs != nil {
		s.IdleTimeoutMs = *p.idleTimeoutMs
	}
	if p.showStatusBar != nil {
		s.ShowStatusBar = *p.showStatusBar
	}
}

// Export returns the full document as indented JSON.
func (s *Store) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.MarshalIndent(s.schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return data, nil
}

// Import validates data and merges it into the store. Imported dates
// overwrite existing ones, new dates are added, and settings are merged
// key by key. Nothing is changed when validation fails.
func (s *Store) Import(ctx context.Context, data []byte) ImportResult {
	aggs, patch, err := validateImport(data)
	if err != nil {
		return ImportResult{Message: "Import failed: " + err.Error(), Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for date, a := range aggs {
		s.schema.DailyAggregates[date] = a
	}
	patch.apply(&s.schema.Settings)

	res := ImportResult{
		OK:           true,
		ImportedDays: len(aggs),
		Message:      fmt.Sprintf("Imported %d %s of coding data", len(aggs), plural(len(aggs), "day", "days")),
	}
	if err := s.persistLocked(ctx); err != nil {
		res.Message += " (not yet saved to disk)"
	}
	return res
}

func validateImport(data []byte) (map[string]*DailyAggregate, settingsPatch, error) {
	var patch settingsPatch
	var p importPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, patch, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p.Version == nil {
		return nil, patch, fmt.Errorf("%w: missing version", ErrInvalidPayload)
	}
	if *p.Version > CurrentVersion {
		return nil, patch, fmt.Errorf("%w: payload version %d, supported %d", ErrIncompatibleVersion, *p.Version, CurrentVersion)
	}
	if *p.Version < 0 {
		return nil, patch, fmt.Errorf("%w: negative version", ErrInvalidPayload)
	}
	if p.DailyAggregates == nil {
		return nil, patch, fmt.Errorf("%w: missing dailyAggregates", ErrInvalidPayload)
	}
	for date, a := range p.DailyAggregates {
		if _, err := time.Parse(DateLayout, date); err != nil {
			return nil, patch, fmt.Errorf("%w: bad date key %q", ErrInvalidPayload, date)
		}
		if a == nil {
			return nil, patch, fmt.Errorf("%w: empty aggregate for %s", ErrInvalidPayload, date)
		}
		if a.TotalTimeMs < 0 || a.ActiveTimeMs < 0 || a.LongestSessionMs < 0 {
			return nil, patch, fmt.Errorf("%w: negative time on %s", ErrInvalidPayload, date)
		}
	}

	if raw, ok := p.Settings["idleTimeoutMs"]; ok {
		var v int64
		if err := json.Unmarshal(raw, &v); err != nil || v < 0 {
			return nil, patch, fmt.Errorf("%w: settings.idleTimeoutMs must be a non-negative integer", ErrInvalidPayload)
		}
		patch.idleTimeoutMs = &v
	}
	if raw, ok := p.Settings["showStatusBar"]; ok {
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, patch, fmt.Errorf("%w: settings.showStatusBar must be a boolean", ErrInvalidPayload)
		}
		patch.showStatusBar = &v
	}

	migrated := &Schema{Version: *p.Version, DailyAggregates: p.DailyAggregates}
	migrate(migrated)
	return migrated.DailyAggregates, patch, nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
