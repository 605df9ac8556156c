package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"fleetrecords/config"
	"fleetrecords/testhelpers"
)

// newTestRequestEvent creates a RequestEvent suitable for handler tests.
func newTestRequestEvent(app *pocketbase.PocketBase, req *http.Request, rec *httptest.ResponseRecorder) *core.RequestEvent {
	e := &core.RequestEvent{}
	e.App = app
	e.Request = req
	e.Response = rec
	return e
}

// newTestImportEnv bootstraps a test app with the roster trucks given and
// returns an import environment without remote sync.
func newTestImportEnv(t *testing.T, numbers ...string) *ImportEnv {
	t.Helper()

	app := testhelpers.NewTestApp(t)
	for _, n := range numbers {
		testhelpers.CreateTestTruck(t, app, n)
	}
	return NewImportEnv(app, config.Default())
}

// uploadRequest builds a multipart POST /imports/{kind} request.
func uploadRequest(t *testing.T, kind, fileName string, content []byte) *http.Request {
	t.Helper()

	body, contentType := testhelpers.MultipartFile(t, "file", fileName, content)
	req := httptest.NewRequest(http.MethodPost, "/imports/"+kind, body)
	req.Header.Set("Content-Type", contentType)
	req.SetPathValue("kind", kind)
	return req
}
