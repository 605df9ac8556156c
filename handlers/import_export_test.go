package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func runExport(t *testing.T, env *ImportEnv, kind, format string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/imports/"+kind+"/export?format="+format, nil)
	req.SetPathValue("kind", kind)
	rec := httptest.NewRecorder()
	if err := HandleImportExport(env)(newTestRequestEvent(env.App, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func TestHandleImportExport_CSV(t *testing.T) {
	env := newTestImportEnv(t, "102", "205")
	runUpload(t, env, "costs", "costs.csv", costsCSV, false)

	rec := runExport(t, env, "costs", "csv")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := "Truck Number,YTD Cost\n102,1000\n205,500\n"
	if rec.Body.String() != want {
		t.Errorf("unexpected CSV:\n%s\nwant:\n%s", rec.Body.String(), want)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "Maintenance-Costs_") {
		t.Errorf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}
}

func TestHandleImportExport_CSVDelimiter(t *testing.T) {
	env := newTestImportEnv(t, "102", "205")
	env.Config.ExportDelimiter = ";"
	runUpload(t, env, "costs", "costs.csv", costsCSV, false)

	rec := runExport(t, env, "costs", "csv")
	if !strings.HasPrefix(rec.Body.String(), "Truck Number;YTD Cost\n") {
		t.Errorf("expected ; delimiter, got %q", rec.Body.String())
	}

	// The downloaded file imports again as-is.
	up := runUpload(t, env, "costs", "export.csv", rec.Body.String(), false)
	var resp importResponse
	if err := json.Unmarshal(up.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.NothingToImport || resp.Summary.Matched != 2 || resp.Summary.Unmatched != 0 {
		t.Errorf("re-import of exported CSV failed: %+v", resp)
	}
}

func TestHandleImportExport_Formats(t *testing.T) {
	tests := []struct {
		format      string
		contentType string
		prefix      string
	}{
		{"", xlsxContentType, "PK"},
		{"xlsx", xlsxContentType, "PK"},
		{"pdf", "application/pdf", "%PDF-"},
	}
	env := newTestImportEnv(t, "102", "205")
	runUpload(t, env, "costs", "costs.csv", costsCSV, false)

	for _, tt := range tests {
		t.Run("format="+tt.format, func(t *testing.T) {
			rec := runExport(t, env, "costs", tt.format)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if rec.Header().Get("Content-Type") != tt.contentType {
				t.Errorf("expected %q, got %q", tt.contentType, rec.Header().Get("Content-Type"))
			}
			if !strings.HasPrefix(rec.Body.String(), tt.prefix) {
				t.Errorf("body does not start with %q", tt.prefix)
			}
		})
	}
}

func TestHandleImportExport_BadFormat(t *testing.T) {
	env := newTestImportEnv(t)

	rec := runExport(t, env, "costs", "docx")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleImportTemplate(t *testing.T) {
	env := newTestImportEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/imports/setup/template", nil)
	req.SetPathValue("kind", "setup")
	rec := httptest.NewRecorder()
	if err := HandleImportTemplate(env)(newTestRequestEvent(env.App, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="Truck-Setup_Template.xlsx"` {
		t.Errorf("unexpected disposition %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/imports/tyres/template", nil)
	req.SetPathValue("kind", "tyres")
	rec = httptest.NewRecorder()
	if err := HandleImportTemplate(env)(newTestRequestEvent(env.App, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Maintenance Costs", "Maintenance-Costs"},
		{`a/b\c:d`, "a-b-c-d"},
		{`say "hi"`, "say-hi"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
