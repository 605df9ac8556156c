package handlers

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"fleetrecords/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HandleImportExport downloads the accumulated store of a kind.
// Route: GET /imports/{kind}/export?format=csv|xlsx|pdf
func HandleImportExport(env *ImportEnv) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		kind, ok, err := importKindFromPath(e)
		if !ok {
			return err
		}

		format := strings.ToLower(e.Request.URL.Query().Get("format"))
		if format == "" {
			format = "xlsx"
		}
		if format != "csv" && format != "xlsx" && format != "pdf" {
			return ErrorToast(e, http.StatusBadRequest, "Export format must be csv, xlsx or pdf")
		}

		store, roster, err := env.loadKindState(e.Request.Context(), kind)
		if err != nil {
			log.Printf("import_export: %s: %v", kind.Name, err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		base := fmt.Sprintf("%s_%s", sanitizeFilename(kind.Label), time.Now().Format("2006-01-02"))

		switch format {
		case "pdf":
			pdfBytes, err := services.ExportPDF(kind, store, roster, time.Now())
			if err != nil {
				log.Printf("import_export: pdf %s: %v", kind.Name, err)
				return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
			}
			return writeDownload(e, "application/pdf", base+".pdf", pdfBytes)
		case "csv":
			var buf bytes.Buffer
			opts := services.ExportOptions{Delimiter: env.Config.Delimiter()}
			if err := services.ExportCSV(&buf, kind, store, roster, opts); err != nil {
				log.Printf("import_export: csv %s: %v", kind.Name, err)
				return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
			}
			return writeDownload(e, "text/csv; charset=utf-8", base+".csv", buf.Bytes())
		}

		xlsxBytes, err := services.ExportExcel(kind, store, roster)
		if err != nil {
			log.Printf("import_export: xlsx %s: %v", kind.Name, err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return writeDownload(e, xlsxContentType, base+".xlsx", xlsxBytes)
	}
}

// HandleImportTemplate downloads an empty workbook with the headers the
// importer recognises for a kind.
// Route: GET /imports/{kind}/template
func HandleImportTemplate(env *ImportEnv) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		kind, ok, err := importKindFromPath(e)
		if !ok {
			return err
		}

		xlsxBytes, err := services.GenerateImportTemplate(kind)
		if err != nil {
			log.Printf("import_template: %s: %v", kind.Name, err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to generate template")
		}

		filename := sanitizeFilename(kind.Label) + "_Template.xlsx"
		return writeDownload(e, xlsxContentType, filename, xlsxBytes)
	}
}

func writeDownload(e *core.RequestEvent, contentType, filename string, body []byte) error {
	e.Response.Header().Set("Content-Type", contentType)
	e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	_, err := e.Response.Write(body)
	return err
}

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	return strings.NewReplacer(" ", "-", "/", "-", "\\", "-", ":", "-", `"`, "").Replace(s)
}
