package ui

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"studykit/app"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := NewApp(Config{Port: "0"}, app.NewAnalysisService(nil, nil))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return a
}

func uploadRequest(t *testing.T, fields map[string]string, csv string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("dataset", "upload.csv")
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	if _, err := io.WriteString(part, csv); err != nil {
		t.Fatalf("Writing CSV failed: %v", err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("WriteField failed: %v", err)
		}
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/analyze", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

const uploadCSV = `record_id,a,b,c,clinic
1,1,2.1,11.5,north
2,2,3.9,9.8,south
3,3,6.2,10.2,north
4,4,8.1,8.1,east
5,5,9.8,7.9,north
6,6,12.3,6.5,south
7,7,13.9,6.8,north
8,8,16.2,5.1,east
9,9,18.1,4.9,north
10,10,19.7,3.2,south
`

// TestIndexPage tests the upload form renders
func TestIndexPage(t *testing.T) {
	a := newTestApp(t)

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/analyze") {
		t.Error("Index should carry the analyze form")
	}
}

// TestAnalyzeDescribe tests the describe path through the handler
func TestAnalyzeDescribe(t *testing.T) {
	a := newTestApp(t)

	req := uploadRequest(t, map[string]string{"analysis": "describe", "columns": "a, b"}, uploadCSV)
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "summary-table") {
		t.Error("Response should contain a rendered table")
	}
	if !strings.Contains(body, "upload.csv") {
		t.Error("Response should name the uploaded file")
	}
}

// TestAnalyzeSteiger tests the comparison path through the handler
func TestAnalyzeSteiger(t *testing.T) {
	a := newTestApp(t)

	req := uploadRequest(t, map[string]string{
		"analysis": "steiger",
		"columns":  "a,b,c",
		"method":   "pearson",
	}, uploadCSV)
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "a-b vs. a-c") {
		t.Error("Response should list the comparisons")
	}
}

// TestAnalyzeBadMethod tests error rendering
func TestAnalyzeBadMethod(t *testing.T) {
	a := newTestApp(t)

	req := uploadRequest(t, map[string]string{
		"analysis": "steiger",
		"columns":  "a,b,c",
		"method":   "kendall",
	}, uploadCSV)
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Analysis failed") {
		t.Error("Error page should render")
	}
}

// TestAnalyzeMissingFile tests upload validation
func TestAnalyzeMissingFile(t *testing.T) {
	a := newTestApp(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	writer.WriteField("analysis", "describe")
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/analyze", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

// TestDemoPage tests the bundled demo analysis
func TestDemoPage(t *testing.T) {
	a := newTestApp(t)

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/demo", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Demo dataset") {
		t.Error("Demo page should carry its title")
	}
	if !strings.Contains(body, "stress") {
		t.Error("Demo page should show the demo variables")
	}
}
