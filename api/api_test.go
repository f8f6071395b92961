package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"github.com/formgrid/formgrid/api"
	"github.com/formgrid/formgrid/dbopen"
	"github.com/formgrid/formgrid/form"
	"github.com/formgrid/formgrid/store"
)

const syllabusHTML = `<html><body>
<p>Objectives of the subject</p>
<p>Understand relational decomposition.</p>
<p>Learning units</p>
<table>
<tr><th>Unit</th><th>Hours</th></tr>
<tr><td>Introduction</td><td>10</td></tr>
</table>
</body></html>`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(store.Schema))
	svc, err := form.New(store.NewStore(db), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	r := chi.NewRouter()
	api.New(svc, nil).RegisterHTTP(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// uploadBody builds a multipart body with a file part and form values.
func uploadBody(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(fw, content)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func doUpload(t *testing.T, srv *httptest.Server, filename, content string, fields map[string]string) *http.Response {
	t.Helper()
	body, contentType := uploadBody(t, filename, content, fields)
	resp, err := http.Post(srv.URL+"/api/documents", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestIngestAndRetrieve(t *testing.T) {
	srv := newTestServer(t)

	resp := doUpload(t, srv, "syllabus.html", syllabusHTML, map[string]string{
		"kind":          "word-processor",
		"template_name": "course guide",
	})
	if resp.StatusCode != 201 {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, body %s", resp.StatusCode, b)
	}
	var ingest form.IngestResult
	if err := json.NewDecoder(resp.Body).Decode(&ingest); err != nil {
		t.Fatal(err)
	}
	if ingest.DocumentID == "" || ingest.TemplateID == "" || len(ingest.Sections) != 2 {
		t.Fatalf("ingest = %+v", ingest)
	}

	get, err := http.Get(srv.URL + "/api/documents/" + ingest.DocumentID)
	if err != nil {
		t.Fatal(err)
	}
	defer get.Body.Close()
	if get.StatusCode != 200 {
		t.Fatalf("status = %d", get.StatusCode)
	}
	var doc form.RetrieveResult
	if err := json.NewDecoder(get.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if !doc.HasRelationalContent || len(doc.Sections) != 2 {
		t.Fatalf("retrieve = %+v", doc)
	}
}

func TestIngestMissingFields(t *testing.T) {
	srv := newTestServer(t)

	resp := doUpload(t, srv, "x.html", "<p>x</p>", map[string]string{"kind": "word-processor"})
	if resp.StatusCode != 400 {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestIngestBadKind(t *testing.T) {
	srv := newTestServer(t)

	resp := doUpload(t, srv, "x.pdf", "x", map[string]string{
		"kind":          "pdf",
		"template_name": "t",
	})
	if resp.StatusCode != 400 {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestIngestNoStructure(t *testing.T) {
	srv := newTestServer(t)

	resp := doUpload(t, srv, "x.xlsx", "not a spreadsheet", map[string]string{
		"kind":          "spreadsheet",
		"template_name": "t",
	})
	if resp.StatusCode != 422 {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
}

func TestRetrieveNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/documents/doc_none")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestTemplates(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/templates")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var list []store.TemplateSummary
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("templates = %+v, want empty", list)
	}

	doUpload(t, srv, "syllabus.html", syllabusHTML, map[string]string{
		"kind":          "word-processor",
		"template_name": "course guide",
	})

	resp2, err := http.Get(srv.URL + "/api/templates")
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if err := json.NewDecoder(resp2.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != "course guide" || list[0].SectionCount != 2 {
		t.Fatalf("templates = %+v", list)
	}

	tplResp, err := http.Get(srv.URL + "/api/templates/" + list[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	defer tplResp.Body.Close()
	var tpl store.Template
	if err := json.NewDecoder(tplResp.Body).Decode(&tpl); err != nil {
		t.Fatal(err)
	}
	if len(tpl.Sections) != 2 || len(tpl.Sections[1].Fields) != 2 {
		t.Fatalf("template = %+v", tpl)
	}

	missing, err := http.Get(srv.URL + "/api/templates/tpl_none")
	if err != nil {
		t.Fatal(err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != 404 {
		t.Fatalf("status = %d, want 404", missing.StatusCode)
	}
}

func TestRules(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/rules")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var rules []form.RuleView
	if err := json.NewDecoder(resp.Body).Decode(&rules); err != nil {
		t.Fatal(err)
	}
	if len(rules) == 0 {
		t.Fatal("no rules")
	}
	if rules[0].Pattern == "" || rules[0].Title == "" || rules[0].Kind == "" {
		t.Fatalf("rule = %+v", rules[0])
	}
}
