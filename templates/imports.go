// Package templates renders the HTMX fragments of the import screens.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// UnmatchedRow is one sheet row whose truck number is not on the roster.
type UnmatchedRow struct {
	Row        int
	Identifier string
	Header     string
}

// ImportResultData feeds the fragment shown after an upload.
type ImportResultData struct {
	SessionID       string
	Kind            string
	KindLabel       string
	FileName        string
	TotalRows       int
	Extracted       int
	Matched         int
	Unmatched       int
	GuessedRows     int
	NothingToImport bool
	SyncStarted     bool
	UnmatchedRows   []UnmatchedRow
}

// StoreTableData feeds the accumulated-store table.
type StoreTableData struct {
	Kind      string
	KindLabel string
	Headers   []string
	Rows      [][]string
	UpdatedAt string
}

// ImportResult renders the summary of one import session.
func ImportResult(d ImportResultData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<div id="import-result" class="import-result" data-kind="%s">`, esc(d.Kind))
		fmt.Fprintf(&b, `<h3>%s: %s</h3>`, esc(d.KindLabel), esc(d.FileName))

		if d.NothingToImport {
			b.WriteString(`<p class="import-empty">Nothing to import: no row in this file has a recognisable truck number.</p>`)
			b.WriteString(`</div>`)
			_, err := io.WriteString(w, b.String())
			return err
		}

		b.WriteString(`<dl class="import-summary">`)
		summaryItem(&b, "Rows read", d.TotalRows)
		summaryItem(&b, "Rows with a truck number", d.Extracted)
		summaryItem(&b, "Matched", d.Matched)
		summaryItem(&b, "Unmatched", d.Unmatched)
		b.WriteString(`</dl>`)

		if d.GuessedRows > 0 {
			fmt.Fprintf(&b, `<p class="import-warning">%d row(s) had no cost column header; the largest number on the row was used. Check these values.</p>`, d.GuessedRows)
		}
		if d.SyncStarted {
			writeSyncPending(&b, d.Kind, d.SessionID)
		}

		if len(d.UnmatchedRows) > 0 {
			b.WriteString(`<table class="unmatched"><thead><tr><th>Row #</th><th>Truck Number (as found)</th><th>Column</th></tr></thead><tbody>`)
			for _, r := range d.UnmatchedRows {
				fmt.Fprintf(&b, `<tr><td>%d</td><td>%s</td><td>%s</td></tr>`, r.Row, esc(r.Identifier), esc(r.Header))
			}
			b.WriteString(`</tbody></table>`)
			fmt.Fprintf(&b, `<a class="download" href="/imports/%s/sessions/%s/unmatched">Download unmatched rows</a>`,
				esc(d.Kind), esc(d.SessionID))
		}

		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// StoreTable renders the accumulated values of one import kind joined with
// the roster.
func StoreTable(d StoreTableData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<section id="store-%s" class="store-table">`, esc(d.Kind))
		fmt.Fprintf(&b, `<h3>%s</h3>`, esc(d.KindLabel))
		if d.UpdatedAt != "" {
			fmt.Fprintf(&b, `<p class="store-updated">Last updated %s</p>`, esc(d.UpdatedAt))
		}
		if len(d.Rows) == 0 {
			b.WriteString(`<p class="store-empty">No imported values yet.</p></section>`)
			_, err := io.WriteString(w, b.String())
			return err
		}

		b.WriteString(`<table><thead><tr>`)
		for _, h := range d.Headers {
			fmt.Fprintf(&b, `<th>%s</th>`, esc(h))
		}
		b.WriteString(`</tr></thead><tbody>`)
		for _, row := range d.Rows {
			b.WriteString(`<tr>`)
			for _, v := range row {
				fmt.Fprintf(&b, `<td>%s</td>`, esc(v))
			}
			b.WriteString(`</tr>`)
		}
		b.WriteString(`</tbody></table></section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// SyncPending is the "syncing" notice. It polls the session's sync and
// swaps itself for the answer.
func SyncPending(kind, sessionID string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		writeSyncPending(&b, kind, sessionID)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeSyncPending(b *strings.Builder, kind, sessionID string) {
	fmt.Fprintf(b, `<p class="import-sync" hx-post="/imports/%s/sync?session=%s" hx-trigger="load delay:2s" hx-swap="outerHTML">Syncing with the fleet API…</p>`,
		esc(kind), esc(sessionID))
}

// SyncResult replaces the "syncing" notice once a sync has run.
func SyncResult(warning string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if warning == "" {
			_, err := io.WriteString(w, `<p class="import-sync ok">Synced with the fleet API.</p>`)
			return err
		}
		_, err := fmt.Fprintf(w, `<p class="import-sync warning">Saved locally, but the fleet API sync failed: %s</p>`, esc(warning))
		return err
	})
}

func summaryItem(b *strings.Builder, label string, n int) {
	fmt.Fprintf(b, `<dt>%s</dt><dd>%d</dd>`, esc(label), n)
}

func esc(s string) string {
	return templ.EscapeString(s)
}
