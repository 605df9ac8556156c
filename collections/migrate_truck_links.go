package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
)

// MigrateLinkImportsToTrucks sets the truck relation on truck_imports records
// that were saved before their truck existed in the roster, matching on
// truck_number. Safe to call on every startup; it returns early when nothing is unlinked.
func MigrateLinkImportsToTrucks(app core.App) error {
	importsCol, err := app.FindCollectionByNameOrId("truck_imports")
	if err != nil {
		return fmt.Errorf("migrate: could not find truck_imports collection: %w", err)
	}

	unlinked, err := app.FindRecordsByFilter(
		importsCol,
		"truck = ''",
		"",
		0,
		0,
		nil,
	)
	if err != nil {
		return fmt.Errorf("migrate: could not query unlinked imports: %w", err)
	}
	if len(unlinked) == 0 {
		return nil
	}

	trucks, err := app.FindAllRecords("trucks")
	if err != nil {
		return fmt.Errorf("migrate: could not query trucks: %w", err)
	}
	ids := make(map[string]string, len(trucks))
	for _, t := range trucks {
		ids[t.GetString("number")] = t.Id
	}

	linked := 0
	for _, rec := range unlinked {
		id, ok := ids[rec.GetString("truck_number")]
		if !ok {
			continue
		}
		rec.Set("truck", id)
		if err := app.Save(rec); err != nil {
			return fmt.Errorf("migrate: could not link import %s: %w", rec.Id, err)
		}
		linked++
	}

	if linked > 0 {
		log.Printf("migrate: linked %d truck_imports records to trucks", linked)
	}
	return nil
}
