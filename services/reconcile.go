package services

import (
	"fmt"
	"slices"
	"time"
)

// RosterEntry is a truck known to the system.
type RosterEntry struct {
	ID     string `json:"id"`
	Number string `json:"number"`
}

// RosterIndex looks trucks up by normalized number.
type RosterIndex struct {
	entries []RosterEntry
	byKey   map[string]RosterEntry
}

// NewRosterIndex indexes entries in the given order. Entries without a number
// are ignored; two numbers that normalize alike fail with
// ErrDuplicateRosterIdentifier.
func NewRosterIndex(entries []RosterEntry) (*RosterIndex, error) {
	ix := &RosterIndex{
		entries: make([]RosterEntry, 0, len(entries)),
		byKey:   make(map[string]RosterEntry, len(entries)),
	}
	for _, e := range entries {
		key := NormalizeIdentifier(e.Number)
		if key == "" {
			continue
		}
		if prev, dup := ix.byKey[key]; dup {
			return nil, fmt.Errorf("%w: %q and %q", ErrDuplicateRosterIdentifier, prev.Number, e.Number)
		}
		ix.byKey[key] = e
		ix.entries = append(ix.entries, e)
	}
	return ix, nil
}

// Lookup resolves an identifier candidate to its roster entry.
func (ix *RosterIndex) Lookup(candidate string) (RosterEntry, bool) {
	key := NormalizeIdentifier(candidate)
	if key == "" {
		return RosterEntry{}, false
	}
	e, ok := ix.byKey[key]
	return e, ok
}

// Entries returns the indexed entries in roster order.
func (ix *RosterIndex) Entries() []RosterEntry {
	return slices.Clone(ix.entries)
}

func (ix *RosterIndex) Len() int { return len(ix.entries) }

// MatchResult is the outcome for one record. Matched results carry the roster
// entry and the payload stored after the merge; unmatched ones only the record.
type MatchResult struct {
	Matched bool        `json:"matched"`
	Entry   RosterEntry `json:"entry"`
	Record  Record      `json:"record"`
	Merged  Payload     `json:"merged"`
}

// ReconcileOutcome summarizes one reconciliation pass.
type ReconcileOutcome struct {
	Results        []MatchResult
	Unmatched      []Record
	UnmatchedCount int
	MatchedCount   int
	Touched        []string // canonical numbers written, first-touch order
}

// Reconcile routes every record to exactly one MatchResult and merges matched
// payloads into store through strategy. Records are applied in row order, so a
// later row for the same truck wins. Unmatched records never touch the store.
func Reconcile(records []Record, index *RosterIndex, store *Store, strategy MergeStrategy) ReconcileOutcome {
	ordered := slices.Clone(records)
	slices.SortStableFunc(ordered, func(a, b Record) int { return a.Row - b.Row })

	out := ReconcileOutcome{Results: make([]MatchResult, 0, len(ordered))}
	touched := make(map[string]bool)
	for _, rec := range ordered {
		entry, ok := index.Lookup(rec.Identifier)
		if !ok {
			out.Unmatched = append(out.Unmatched, rec)
			out.UnmatchedCount++
			out.Results = append(out.Results, MatchResult{Record: rec})
			continue
		}

		existing, had := store.Get(entry.Number)
		merged := strategy.Merge(existing, rec.Payload)
		if had || !merged.IsEmpty() {
			store.Set(entry.Number, merged)
			if !touched[entry.Number] {
				touched[entry.Number] = true
				out.Touched = append(out.Touched, entry.Number)
			}
		}
		out.MatchedCount++
		out.Results = append(out.Results, MatchResult{Matched: true, Entry: entry, Record: rec, Merged: merged})
	}
	if len(out.Touched) > 0 {
		store.UpdatedAt = time.Now().UTC()
	}
	return out
}
