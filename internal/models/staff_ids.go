package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// StaffIDs is the normalized set of staff members assigned to a task or
// configured as a property's default crew. Order is preserved, duplicates and
// blank ids are dropped.
//
// Legacy payloads store a single id as a bare string; UnmarshalJSON accepts a
// string, an array of strings or null so nothing deeper has to care.
type StaffIDs []string

// NewStaffIDs builds a normalized StaffIDs from raw ids.
func NewStaffIDs(ids ...string) StaffIDs {
	seen := make(map[string]struct{}, len(ids))
	result := make(StaffIDs, 0, len(ids))
	for _, id := range ids {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

// Contains reports whether id is in the set.
func (s StaffIDs) Contains(id string) bool {
	for _, existing := range s {
		if existing == id {
			return true
		}
	}
	return false
}

// Len returns the number of assigned staff members.
func (s StaffIDs) Len() int {
	return len(s)
}

// Copy returns an independent copy of the set.
func (s StaffIDs) Copy() StaffIDs {
	return append(StaffIDs{}, s...)
}

// Without returns the ids in s that are not in other.
func (s StaffIDs) Without(other StaffIDs) StaffIDs {
	result := make(StaffIDs, 0, len(s))
	for _, id := range s {
		if !other.Contains(id) {
			result = append(result, id)
		}
	}
	return result
}

// Strings returns the ids as a plain slice.
func (s StaffIDs) Strings() []string {
	if s == nil {
		return []string{}
	}
	return []string(s)
}

// UnmarshalJSON accepts null, "id" or ["id", ...].
func (s *StaffIDs) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = StaffIDs{}
		return nil
	}

	switch trimmed[0] {
	case '"':
		var single string
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return fmt.Errorf("failed to unmarshal staff id: %w", err)
		}
		*s = NewStaffIDs(single)
		return nil
	case '[':
		var many []string
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return fmt.Errorf("failed to unmarshal staff ids: %w", err)
		}
		*s = NewStaffIDs(many...)
		return nil
	default:
		return fmt.Errorf("staff ids must be a string or an array of strings, got %s", string(trimmed))
	}
}

// MarshalJSON always emits an array, never null.
func (s StaffIDs) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}
