package main

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"fleetrecords/collections"
	"fleetrecords/config"
	"fleetrecords/handlers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	app := pocketbase.New()
	env := handlers.NewImportEnv(app, cfg)

	app.RootCmd.AddCommand(newImportCmd(app, env))

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.MigrateLinkImportsToTrucks(app); err != nil {
			log.Printf("Warning: truck link migration failed: %v", err)
		}
		if cfg.SeedDemo {
			if err := collections.Seed(app); err != nil {
				log.Printf("Warning: seed data failed: %v", err)
			}
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		// ── Imports ──────────────────────────────────────────────
		se.Router.POST("/imports/{kind}", handlers.HandleImportUpload(env))
		se.Router.GET("/imports/{kind}", handlers.HandleImportStore(env))
		se.Router.DELETE("/imports/{kind}", handlers.HandleImportClear(env))
		se.Router.POST("/imports/{kind}/sync", handlers.HandleImportSync(env))

		// Downloads
		se.Router.GET("/imports/{kind}/export", handlers.HandleImportExport(env))
		se.Router.GET("/imports/{kind}/template", handlers.HandleImportTemplate(env))
		se.Router.GET("/imports/{kind}/sessions/{id}/unmatched", handlers.HandleUnmatchedReport(env))

		// Redirect home to the cost store
		se.Router.GET("/", func(e *core.RequestEvent) error {
			return e.Redirect(http.StatusFound, "/imports/costs")
		})

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
