package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/spf13/cobra"

	"fleetrecords/collections"
	"fleetrecords/handlers"
	"fleetrecords/services"
)

type importOptions struct {
	kind  string
	file  string
	apply bool
}

func newImportCmd(app *pocketbase.PocketBase, env *handlers.ImportEnv) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a truck spreadsheet into the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), cmd.OutOrStdout(), app, env, opts)
		},
	}

	cmd.Flags().StringVar(&opts.kind, "kind", "", "Import kind: costs, metadata or setup (required)")
	cmd.Flags().StringVar(&opts.file, "file", "", "Path to a .csv or .xlsx file (required)")
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Save the merged store and sync it (default is dry-run)")

	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runImport(ctx context.Context, out io.Writer, app *pocketbase.PocketBase, env *handlers.ImportEnv, opts importOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	kind, err := services.LookupImportKind(strings.TrimSpace(opts.kind))
	if err != nil {
		return err
	}

	f, err := os.Open(opts.file)
	if err != nil {
		return fmt.Errorf("open %s: %w", opts.file, err)
	}
	defer f.Close()

	collections.Setup(app)

	deps := services.SessionDeps{
		Roster:      services.PocketBaseRoster{App: app},
		Store:       services.NewPocketBaseStoreRepository(app),
		Guard:       env.Guard,
		Syncer:      env.Syncer,
		SyncTimeout: env.Config.SyncTimeout,
	}
	if !opts.apply {
		// Dry run: merge into an in-memory copy of the current store.
		current, err := deps.Store.Load(ctx, kind)
		if err != nil {
			return fmt.Errorf("load %s store: %w", kind.Name, err)
		}
		mem := services.NewMemoryStoreRepository()
		if err := mem.Save(ctx, current); err != nil {
			return err
		}
		deps.Store = mem
		deps.Syncer = nil
	}

	res, err := services.NewImportSession(kind, deps).Run(ctx, f, filepath.Base(opts.file))
	if err != nil {
		return err
	}
	printSummary(out, res, opts.apply)

	if warning := res.Sync.Wait(); warning != "" {
		fmt.Fprintf(out, "warning: fleet API sync failed: %s\n", warning)
	}
	return nil
}

func printSummary(out io.Writer, res *services.SessionResult, applied bool) {
	mode := "dry run"
	if applied {
		mode = "applied"
	}
	fmt.Fprintf(out, "%s import of %s (%s)\n", res.Kind.Label, res.FileName, mode)
	if res.NothingToImport {
		fmt.Fprintln(out, "nothing to import: no row has a recognisable truck number")
		return
	}
	fmt.Fprintf(out, "rows: %d  with truck number: %d  matched: %d  unmatched: %d\n",
		res.Summary.TotalRows, res.Summary.Extracted, res.Summary.Matched, res.Summary.Unmatched)
	if res.Summary.GuessedRows > 0 {
		fmt.Fprintf(out, "warning: %d row(s) used the largest number on the row as the cost\n", res.Summary.GuessedRows)
	}
	for _, r := range res.Unmatched {
		fmt.Fprintf(out, "  row %d: %q (column %q) is not on the roster\n", r.Row, r.Identifier, r.IdentifierHeader)
	}
}
