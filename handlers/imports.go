package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"fleetrecords/services"
	"fleetrecords/templates"
)

type unmatchedJSON struct {
	Row        int    `json:"row"`
	Identifier string `json:"identifier"`
	Column     string `json:"column"`
}

type importResponse struct {
	SessionID       string                 `json:"session_id"`
	Kind            string                 `json:"kind"`
	FileName        string                 `json:"file_name"`
	Summary         services.ImportSummary `json:"summary"`
	NothingToImport bool                   `json:"nothing_to_import"`
	SyncStarted     bool                   `json:"sync_started"`
	Unmatched       []unmatchedJSON        `json:"unmatched"`
}

type storeTruckJSON struct {
	Number   string         `json:"number"`
	TruckID  string         `json:"truck_id,omitempty"`
	OnRoster bool           `json:"on_roster"`
	Values   map[string]any `json:"values"`
}

type storeResponse struct {
	Kind      string           `json:"kind"`
	UpdatedAt *time.Time       `json:"updated_at,omitempty"`
	Trucks    []storeTruckJSON `json:"trucks"`
}

// importKindFromPath resolves {kind}, answering 404 itself when it is unknown.
func importKindFromPath(e *core.RequestEvent) (services.ImportKind, bool, error) {
	kind, err := services.LookupImportKind(e.Request.PathValue("kind"))
	if err != nil {
		return services.ImportKind{}, false, ErrorToast(e, http.StatusNotFound, "Unknown import type")
	}
	return kind, true, nil
}

// importErrorStatus maps a session error to the status and message shown
// to the user.
func importErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrUnsupportedFormat):
		return http.StatusBadRequest, "Unsupported file type. Upload a .csv or .xlsx file."
	case errors.Is(err, services.ErrUnreadableFile):
		return http.StatusBadRequest, "The file could not be read. Check that it is a valid spreadsheet."
	case errors.Is(err, services.ErrImportInProgress):
		return http.StatusConflict, "Another import of this type is running. Try again shortly."
	case errors.Is(err, services.ErrUnknownImportKind):
		return http.StatusNotFound, "Unknown import type"
	}
	return http.StatusInternalServerError, "Something went wrong. Please try again."
}

// HandleImportUpload runs one uploaded workbook through an import session.
// Route: POST /imports/{kind}
func HandleImportUpload(env *ImportEnv) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		kind, ok, err := importKindFromPath(e)
		if !ok {
			return err
		}

		limit := env.Config.MaxUploadBytes()
		tooLargeMsg := fmt.Sprintf("File too large. The limit is %d MB.", env.Config.MaxUploadMB)
		if e.Request.ContentLength > limit {
			return ErrorToast(e, http.StatusRequestEntityTooLarge, tooLargeMsg)
		}
		e.Request.Body = http.MaxBytesReader(e.Response, e.Request.Body, limit)
		if err := e.Request.ParseMultipartForm(limit); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return ErrorToast(e, http.StatusRequestEntityTooLarge, tooLargeMsg)
			}
			return ErrorToast(e, http.StatusBadRequest, "File too large or invalid form data")
		}
		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Please select a file to upload")
		}
		defer file.Close()

		session := services.NewImportSession(kind, env.sessionDeps())
		res, err := session.Run(e.Request.Context(), file, header.Filename)
		if err != nil {
			log.Printf("import_upload: %s %q: %v", kind.Name, header.Filename, err)
			status, msg := importErrorStatus(err)
			return ErrorToast(e, status, msg)
		}
		env.sessions.put(res)

		switch {
		case res.NothingToImport:
			SetToast(e, "info", "Nothing to import")
		case res.Summary.Unmatched > 0:
			SetToast(e, "warning", fmt.Sprintf("%d trucks updated, %d rows not matched",
				res.Summary.Matched, res.Summary.Unmatched))
		default:
			SetToast(e, "success", fmt.Sprintf("%d trucks updated", res.Summary.Matched))
		}

		if e.Request.Header.Get("HX-Request") == "true" {
			return templates.ImportResult(importResultData(res)).Render(e.Request.Context(), e.Response)
		}
		return e.JSON(http.StatusOK, newImportResponse(res))
	}
}

// HandleImportStore returns the accumulated store of a kind joined with
// the roster: a table fragment for HTMX, JSON otherwise.
// Route: GET /imports/{kind}
func HandleImportStore(env *ImportEnv) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		kind, ok, err := importKindFromPath(e)
		if !ok {
			return err
		}

		store, roster, err := env.loadKindState(e.Request.Context(), kind)
		if err != nil {
			log.Printf("import_store: %s: %v", kind.Name, err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		if e.Request.Header.Get("HX-Request") == "true" {
			return templates.StoreTable(storeTableData(kind, store, roster)).Render(e.Request.Context(), e.Response)
		}
		return e.JSON(http.StatusOK, newStoreResponse(kind, store, roster))
	}
}

// HandleImportClear wipes the accumulated store of a kind.
// Route: DELETE /imports/{kind}
func HandleImportClear(env *ImportEnv) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		kind, ok, err := importKindFromPath(e)
		if !ok {
			return err
		}

		release, err := env.Guard.Acquire(kind.Name)
		if err != nil {
			status, msg := importErrorStatus(err)
			return ErrorToast(e, status, msg)
		}
		defer release()

		repo := services.NewPocketBaseStoreRepository(env.App)
		if err := repo.Clear(e.Request.Context(), kind.Name); err != nil {
			log.Printf("import_clear: %s: %v", kind.Name, err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		SetToast(e, "success", kind.Label+" cleared")
		if e.Request.Header.Get("HX-Request") == "true" {
			return templates.StoreTable(templates.StoreTableData{Kind: kind.Name, KindLabel: kind.Label}).
				Render(e.Request.Context(), e.Response)
		}
		return e.NoContent(http.StatusNoContent)
	}
}

// HandleImportSync reports the background sync of a recent session when
// ?session= is given; otherwise it syncs the whole store again.
// Route: POST /imports/{kind}/sync
func HandleImportSync(env *ImportEnv) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		kind, ok, err := importKindFromPath(e)
		if !ok {
			return err
		}

		if id := e.Request.URL.Query().Get("session"); id != "" {
			res, found := env.sessions.get(id)
			if !found || res.Kind.Name != kind.Name {
				return ErrorToast(e, http.StatusNotFound, "Import session not found or expired")
			}
			// HTMX polls again rather than holding the request open.
			if e.Request.Header.Get("HX-Request") == "true" && !res.Sync.Done() {
				return templates.SyncPending(kind.Name, res.SessionID).Render(e.Request.Context(), e.Response)
			}
			return renderSyncResult(e, res.Sync.Wait(), -1)
		}

		if env.Syncer == nil {
			return ErrorToast(e, http.StatusBadRequest, "Fleet API sync is not configured")
		}

		release, err := env.Guard.Acquire(kind.Name)
		if err != nil {
			status, msg := importErrorStatus(err)
			return ErrorToast(e, status, msg)
		}
		defer release()

		store, roster, err := env.loadKindState(e.Request.Context(), kind)
		if err != nil {
			log.Printf("import_sync: %s: %v", kind.Name, err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		items := services.BuildSyncBatch(kind, store, roster)

		ctx, cancel := context.WithTimeout(e.Request.Context(), env.Config.SyncTimeout)
		defer cancel()
		return renderSyncResult(e, services.SyncBestEffort(ctx, env.Syncer, items), len(items))
	}
}

// renderSyncResult answers a sync request. sent is -1 when the count of
// synced trucks is not known.
func renderSyncResult(e *core.RequestEvent, warning string, sent int) error {
	if warning != "" {
		SetToast(e, "warning", "Saved locally, but the fleet API sync failed")
	}
	if e.Request.Header.Get("HX-Request") == "true" {
		return templates.SyncResult(warning).Render(e.Request.Context(), e.Response)
	}
	body := map[string]any{"ok": warning == "", "warning": warning}
	if sent >= 0 {
		body["sent"] = sent
	}
	return e.JSON(http.StatusOK, body)
}

// HandleUnmatchedReport downloads the unmatched rows of a recent session.
// Route: GET /imports/{kind}/sessions/{id}/unmatched
func HandleUnmatchedReport(env *ImportEnv) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		kind, ok, err := importKindFromPath(e)
		if !ok {
			return err
		}

		res, found := env.sessions.get(e.Request.PathValue("id"))
		if !found || res.Kind.Name != kind.Name {
			return ErrorToast(e, http.StatusNotFound, "Import session not found or expired")
		}

		xlsxBytes, err := services.GenerateUnmatchedReport(kind, res.Unmatched)
		if err != nil {
			log.Printf("unmatched_report: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		filename := fmt.Sprintf("%s_Unmatched_%s.xlsx", sanitizeFilename(kind.Label), time.Now().Format("2006-01-02"))
		return writeDownload(e, xlsxContentType, filename, xlsxBytes)
	}
}

func (env *ImportEnv) loadKindState(ctx context.Context, kind services.ImportKind) (*services.Store, []services.RosterEntry, error) {
	roster, err := services.PocketBaseRoster{App: env.App}.LoadRoster(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load roster: %w", err)
	}
	store, err := services.NewPocketBaseStoreRepository(env.App).Load(ctx, kind)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s store: %w", kind.Name, err)
	}
	return store, roster, nil
}

func importResultData(res *services.SessionResult) templates.ImportResultData {
	d := templates.ImportResultData{
		SessionID:       res.SessionID,
		Kind:            res.Kind.Name,
		KindLabel:       res.Kind.Label,
		FileName:        res.FileName,
		TotalRows:       res.Summary.TotalRows,
		Extracted:       res.Summary.Extracted,
		Matched:         res.Summary.Matched,
		Unmatched:       res.Summary.Unmatched,
		GuessedRows:     res.Summary.GuessedRows,
		NothingToImport: res.NothingToImport,
		SyncStarted:     res.Sync != nil,
	}
	for _, r := range res.Unmatched {
		d.UnmatchedRows = append(d.UnmatchedRows, templates.UnmatchedRow{
			Row: r.Row, Identifier: r.Identifier, Header: r.IdentifierHeader,
		})
	}
	return d
}

func newImportResponse(res *services.SessionResult) importResponse {
	out := importResponse{
		SessionID:       res.SessionID,
		Kind:            res.Kind.Name,
		FileName:        res.FileName,
		Summary:         res.Summary,
		NothingToImport: res.NothingToImport,
		SyncStarted:     res.Sync != nil,
		Unmatched:       []unmatchedJSON{},
	}
	for _, r := range res.Unmatched {
		out.Unmatched = append(out.Unmatched, unmatchedJSON{Row: r.Row, Identifier: r.Identifier, Column: r.IdentifierHeader})
	}
	return out
}

// newStoreResponse lists every stored truck in number order. Numbers that
// are no longer on the roster are kept with OnRoster false.
func newStoreResponse(kind services.ImportKind, store *services.Store, roster []services.RosterEntry) storeResponse {
	ids := make(map[string]string, len(roster))
	for _, r := range roster {
		ids[r.Number] = r.ID
	}

	out := storeResponse{Kind: kind.Name, Trucks: []storeTruckJSON{}}
	if !store.UpdatedAt.IsZero() {
		ts := store.UpdatedAt
		out.UpdatedAt = &ts
	}
	for _, number := range store.Numbers() {
		p, _ := store.Get(number)
		id, onRoster := ids[number]
		out.Trucks = append(out.Trucks, storeTruckJSON{
			Number:   number,
			TruckID:  id,
			OnRoster: onRoster,
			Values:   kind.Merge.Values(p),
		})
	}
	return out
}

func storeTableData(kind services.ImportKind, store *services.Store, roster []services.RosterEntry) templates.StoreTableData {
	d := templates.StoreTableData{
		Kind:      kind.Name,
		KindLabel: kind.Label,
		Headers:   kind.Columns(),
	}
	if !store.UpdatedAt.IsZero() {
		d.UpdatedAt = store.UpdatedAt.Local().Format("2006-01-02 15:04")
	}
	for _, r := range roster {
		p, ok := store.Get(r.Number)
		if !ok {
			continue
		}
		values := kind.Merge.Values(p)
		row := []string{r.Number}
		for _, f := range kind.Fields {
			if amount, isAmount := values[f.Key].(float64); isAmount && f.Key == "ytd_cost" {
				row = append(row, services.FormatUSD(amount))
				continue
			}
			row = append(row, services.FormatValue(values[f.Key]))
		}
		d.Rows = append(d.Rows, row)
	}
	return d
}
