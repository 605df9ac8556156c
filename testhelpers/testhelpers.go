// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"fleetrecords/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateTestTruck creates a truck record with the given number and returns it.
func CreateTestTruck(t *testing.T, app core.App, number string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("trucks")
	if err != nil {
		t.Fatalf("failed to find trucks collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("number", number)
	record.Set("active", true)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test truck: %v", err)
	}

	return record
}

// CreateTestImport stores a truck_imports record directly, bypassing the engine.
func CreateTestImport(t *testing.T, app core.App, kind, truckNumber string, payload any) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("truck_imports")
	if err != nil {
		t.Fatalf("failed to find truck_imports collection: %v", err)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to encode payload: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("kind", kind)
	record.Set("truck_number", truckNumber)
	record.Set("payload", string(raw))

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test import: %v", err)
	}

	return record
}

// MultipartFile builds a multipart body holding one file under field.
// It returns the body and its Content-Type header.
func MultipartFile(t *testing.T, field, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, fileName)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	return &body, w.FormDataContentType()
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

// AssertHTMLNotContains checks that body contains none of the fragments.
func AssertHTMLNotContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if strings.Contains(body, frag) {
			t.Errorf("expected HTML not to contain %q\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
