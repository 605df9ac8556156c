package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetrecords/config"
	"fleetrecords/handlers"
	"fleetrecords/services"
	"fleetrecords/testhelpers"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunImport_DryRunLeavesStore(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestTruck(t, app, "102")
	testhelpers.CreateTestTruck(t, app, "205")
	env := handlers.NewImportEnv(app, config.Default())

	path := writeFile(t, "costs.csv", "Unit,YTD Cost\n102,100\n205,200\n999,5\n")
	var out bytes.Buffer
	err := runImport(context.Background(), &out, app, env, importOptions{kind: "costs", file: path})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "(dry run)")
	assert.Contains(t, out.String(), "matched: 2  unmatched: 1")
	assert.Contains(t, out.String(), `row 4: "999"`)

	store, err := services.NewPocketBaseStoreRepository(app).Load(context.Background(), services.CostsKind())
	require.NoError(t, err)
	assert.Zero(t, store.Len())
}

func TestRunImport_Apply(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestTruck(t, app, "102")
	env := handlers.NewImportEnv(app, config.Default())

	path := writeFile(t, "setup.csv", "Truck #,Odometer,Active\n102,\"12,500\",no\n")
	var out bytes.Buffer
	err := runImport(context.Background(), &out, app, env, importOptions{kind: "setup", file: path, apply: true})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "(applied)")

	store, err := services.NewPocketBaseStoreRepository(app).Load(context.Background(), services.SetupKind())
	require.NoError(t, err)
	p, ok := store.Get("102")
	require.True(t, ok)
	assert.Equal(t, 12500, p.Fields["odometer"])
	assert.Equal(t, false, p.Fields["active"])
}

func TestRunImport_Errors(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	env := handlers.NewImportEnv(app, config.Default())

	err := runImport(context.Background(), &bytes.Buffer{}, app, env, importOptions{kind: "tyres", file: "x.csv"})
	assert.ErrorIs(t, err, services.ErrUnknownImportKind)

	err = runImport(context.Background(), &bytes.Buffer{}, app, env, importOptions{kind: "costs", file: filepath.Join(t.TempDir(), "missing.csv")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
