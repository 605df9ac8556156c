package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
)

type truckDef struct {
	number   string
	vin      string
	odometer int
	active   bool
}

var demoTrucks = []truckDef{
	{number: "78014", vin: "1FUJGLDR5CSBM1234", odometer: 412508, active: true},
	{number: "78988", vin: "4V4NC9EH7LN223861", odometer: 188230, active: true},
	{number: "80001", vin: "1M1AN4GY3NM031775", odometer: 96410, active: true},
	{number: "80002", vin: "3AKJHHDR8JSJL9012", odometer: 531977, active: false},
}

// Seed inserts a small demo roster. It is safe to call on every startup
// because it returns early if any truck records already exist.
func Seed(app core.App) error {
	trucksCol, err := app.FindCollectionByNameOrId("trucks")
	if err != nil {
		return fmt.Errorf("seed: could not find trucks collection: %w", err)
	}
	existing, err := app.FindAllRecords(trucksCol)
	if err != nil {
		return fmt.Errorf("seed: could not query trucks: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	log.Println("seed: trucks collection is empty – inserting demo roster …")

	return app.RunInTransaction(func(txApp core.App) error {
		for _, d := range demoTrucks {
			rec := core.NewRecord(trucksCol)
			rec.Set("number", d.number)
			rec.Set("vin", d.vin)
			rec.Set("odometer", d.odometer)
			rec.Set("active", d.active)
			if err := txApp.Save(rec); err != nil {
				return fmt.Errorf("seed: save truck %s: %w", d.number, err)
			}
		}
		return nil
	})
}
