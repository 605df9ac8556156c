package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
)

const (
	trucksCollection  = "trucks"
	importsCollection = "truck_imports"
)

// PocketBaseStoreRepository persists stores in the truck_imports collection,
// one record per (kind, truck number).
type PocketBaseStoreRepository struct {
	App core.App
}

func NewPocketBaseStoreRepository(app core.App) *PocketBaseStoreRepository {
	return &PocketBaseStoreRepository{App: app}
}

func (r *PocketBaseStoreRepository) Load(ctx context.Context, kind ImportKind) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := r.findKind(r.App, kind.Name)
	if err != nil {
		return nil, err
	}

	store := NewStore(kind.Name)
	for _, rec := range records {
		var p Payload
		if err := rec.UnmarshalJSONField("payload", &p); err != nil {
			log.Printf("store_pocketbase: skipping %s/%s: %v", kind.Name, rec.GetString("truck_number"), err)
			continue
		}
		store.Set(rec.GetString("truck_number"), kind.NormalizePayload(p))
		if updated := rec.GetDateTime("updated").Time(); updated.After(store.UpdatedAt) {
			store.UpdatedAt = updated
		}
	}
	return store, nil
}

// Save writes the whole store in one transaction: entries are upserted and
// records for numbers no longer in the store are removed.
func (r *PocketBaseStoreRepository) Save(ctx context.Context, store *Store) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	col, err := r.App.FindCollectionByNameOrId(importsCollection)
	if err != nil {
		return fmt.Errorf("find %s collection: %w", importsCollection, err)
	}
	truckIDs := r.truckIDsByNumber()

	return r.App.RunInTransaction(func(txApp core.App) error {
		existing, err := r.findKind(txApp, store.Kind)
		if err != nil {
			return err
		}
		byNumber := make(map[string]*core.Record, len(existing))
		for _, rec := range existing {
			byNumber[rec.GetString("truck_number")] = rec
		}

		for number, payload := range store.Entries {
			raw, err := json.Marshal(payload)
			if err != nil {
				return fmt.Errorf("encode payload for %s: %w", number, err)
			}
			rec, ok := byNumber[number]
			if !ok {
				rec = core.NewRecord(col)
				rec.Set("kind", store.Kind)
				rec.Set("truck_number", number)
			}
			delete(byNumber, number)
			rec.Set("truck", truckIDs[number])
			rec.Set("payload", types.JSONRaw(raw))
			if err := txApp.Save(rec); err != nil {
				return fmt.Errorf("save %s/%s: %w", store.Kind, number, err)
			}
		}

		for number, rec := range byNumber {
			if err := txApp.Delete(rec); err != nil {
				return fmt.Errorf("delete %s/%s: %w", store.Kind, number, err)
			}
		}
		return nil
	})
}

func (r *PocketBaseStoreRepository) Clear(ctx context.Context, kind string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.App.RunInTransaction(func(txApp core.App) error {
		records, err := r.findKind(txApp, kind)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if err := txApp.Delete(rec); err != nil {
				return fmt.Errorf("delete %s/%s: %w", kind, rec.GetString("truck_number"), err)
			}
		}
		return nil
	})
}

func (r *PocketBaseStoreRepository) findKind(app core.App, kind string) ([]*core.Record, error) {
	records, err := app.FindRecordsByFilter(importsCollection,
		"kind = {:kind}", "truck_number", 0, 0,
		map[string]any{"kind": kind},
	)
	if err != nil {
		return nil, fmt.Errorf("load %s imports: %w", kind, err)
	}
	return records, nil
}

// truckIDsByNumber maps roster numbers to record ids for the truck relation.
// A missing trucks collection leaves every relation empty.
func (r *PocketBaseStoreRepository) truckIDsByNumber() map[string]string {
	ids := make(map[string]string)
	records, err := r.App.FindAllRecords(trucksCollection)
	if err != nil {
		return ids
	}
	for _, rec := range records {
		ids[rec.GetString("number")] = rec.Id
	}
	return ids
}
