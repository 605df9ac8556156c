package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/pocketbase/pocketbase/core"
)

// RosterSource lists the trucks imports are reconciled against.
type RosterSource interface {
	LoadRoster(ctx context.Context) ([]RosterEntry, error)
}

// StaticRoster is a fixed roster.
type StaticRoster []RosterEntry

func (s StaticRoster) LoadRoster(context.Context) ([]RosterEntry, error) {
	return slices.Clone(s), nil
}

// PocketBaseRoster reads the trucks collection, sorted by number.
type PocketBaseRoster struct {
	App core.App
}

func (r PocketBaseRoster) LoadRoster(ctx context.Context) ([]RosterEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := r.App.FindAllRecords(trucksCollection)
	if err != nil {
		return nil, fmt.Errorf("load trucks: %w", err)
	}
	entries := make([]RosterEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, RosterEntry{ID: rec.Id, Number: rec.GetString("number")})
	}
	slices.SortFunc(entries, func(a, b RosterEntry) int { return cmp.Compare(a.Number, b.Number) })
	return entries, nil
}
