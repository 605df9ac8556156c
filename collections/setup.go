package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
)

// ImportKinds are the values allowed in truck_imports.kind.
var ImportKinds = []string{"costs", "metadata", "setup"}

// Setup programmatically creates/ensures the trucks and truck_imports
// collections exist.
func Setup(app core.App) {
	trucks := ensureCollection(app, "trucks", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "number", Required: true})
		c.Fields.Add(&core.TextField{Name: "vin", Required: false})
		c.Fields.Add(&core.NumberField{Name: "odometer", Required: false, OnlyInt: true})
		c.Fields.Add(&core.BoolField{Name: "active", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_trucks_number", true, "number", "")
	})

	ensureCollection(app, "truck_imports", func(c *core.Collection) {
		c.Fields.Add(&core.SelectField{
			Name:      "kind",
			Required:  true,
			Values:    ImportKinds,
			MaxSelect: 1,
		})
		// Empty when the number was on the roster at import time but the
		// truck record has since been removed.
		c.Fields.Add(&core.RelationField{
			Name:          "truck",
			Required:      false,
			CollectionId:  trucks.Id,
			CascadeDelete: false,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "truck_number", Required: true})
		c.Fields.Add(&core.JSONField{Name: "payload", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_truck_imports_kind_number", true, "kind, truck_number", "")
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app core.App, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
