package redcap

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const testCSV = "record_id,age,bmi\n1,34,22.5\n2,41,27.8\n"

func testConfig(t *testing.T, url string) Config {
	t.Helper()
	t.Setenv("STUDYKIT_TEST_TOKEN", "secret-token")

	cfg := DefaultConfig()
	cfg.APIURL = url
	cfg.TokenEnv = "STUDYKIT_TEST_TOKEN"
	cfg.RatePerSecond = 100 // keep tests fast
	return cfg
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(testConfig(t, server.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	t.Cleanup(client.Close)
	return client, server
}

// TestPullReport tests the report export round trip
func TestPullReport(t *testing.T) {
	var gotForm map[string]string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm failed: %v", err)
		}
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		fmt.Fprint(w, testCSV)
	})

	f, err := client.PullReport(context.Background(), ReportRequest{ReportID: "4211"})
	if err != nil {
		t.Fatalf("PullReport failed: %v", err)
	}

	if f.RowCount() != 2 || f.ColumnCount() != 3 {
		t.Errorf("Expected 2x3 frame, got %dx%d", f.RowCount(), f.ColumnCount())
	}

	expected := map[string]string{
		"token":               "secret-token",
		"content":             "report",
		"format":              "csv",
		"report_id":           "4211",
		"rawOrLabel":          "raw",
		"rawOrLabelHeaders":   "raw",
		"exportCheckboxLabel": "false",
		"returnFormat":        "csv",
	}
	for k, want := range expected {
		if gotForm[k] != want {
			t.Errorf("Form field %s: expected '%s', got '%s'", k, want, gotForm[k])
		}
	}
}

// TestPullReportLabels tests the label export switch
func TestPullReportLabels(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if got := r.PostForm.Get("rawOrLabel"); got != "label" {
			t.Errorf("Expected rawOrLabel=label, got '%s'", got)
		}
		fmt.Fprint(w, testCSV)
	})

	if _, err := client.PullReport(context.Background(), ReportRequest{ReportID: "4211", Labels: true}); err != nil {
		t.Fatalf("PullReport failed: %v", err)
	}
}

// TestPullReportError tests that the REDCap error body surfaces
func TestPullReportError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":"You do not have permissions to use the API"}`)
	})

	_, err := client.PullReport(context.Background(), ReportRequest{ReportID: "4211"})
	if err == nil {
		t.Fatal("Expected error for 403 response")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("Error should carry the status code: %v", err)
	}
	if !strings.Contains(err.Error(), "permissions") {
		t.Errorf("Error should carry the REDCap error body: %v", err)
	}
}

// TestPullReportRequiresID tests input validation
func TestPullReportRequiresID(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("No request should be sent for a missing report ID")
	})

	if _, err := client.PullReport(context.Background(), ReportRequest{}); err == nil {
		t.Fatal("Expected error for empty report ID")
	}
}

// TestPullRecords tests field and form filters
func TestPullRecords(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if got := r.PostForm.Get("content"); got != "record" {
			t.Errorf("Expected content=record, got '%s'", got)
		}
		if got := r.PostForm.Get("fields"); got != "record_id,age" {
			t.Errorf("Expected joined fields, got '%s'", got)
		}
		if got := r.PostForm.Get("forms"); got != "baseline" {
			t.Errorf("Expected forms=baseline, got '%s'", got)
		}
		fmt.Fprint(w, testCSV)
	})

	req := RecordRequest{Fields: []string{"record_id", "age"}, Forms: []string{"baseline"}}
	if _, err := client.PullRecords(context.Background(), req); err != nil {
		t.Fatalf("PullRecords failed: %v", err)
	}
}

// TestPullMetadata tests the data dictionary export
func TestPullMetadata(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if got := r.PostForm.Get("content"); got != "metadata" {
			t.Errorf("Expected content=metadata, got '%s'", got)
		}
		fmt.Fprint(w, "field_name,form_name,field_label\nrecord_id,baseline,Record ID\n")
	})

	f, err := client.PullMetadata(context.Background())
	if err != nil {
		t.Fatalf("PullMetadata failed: %v", err)
	}
	if !f.HasColumn("field_label") {
		t.Error("Expected data dictionary columns")
	}
}

// TestPullSnapshot tests checksum and row count capture
func TestPullSnapshot(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testCSV)
	})

	snap, err := client.PullSnapshot(context.Background(), ReportRequest{ReportID: "4211"})
	if err != nil {
		t.Fatalf("PullSnapshot failed: %v", err)
	}

	if snap.ID.IsEmpty() {
		t.Error("Snapshot should carry an ID")
	}
	if snap.ReportID != "4211" {
		t.Errorf("Expected report ID 4211, got %s", snap.ReportID)
	}
	if snap.Rows != 2 {
		t.Errorf("Expected 2 rows, got %d", snap.Rows)
	}
	if snap.Checksum.String() == "" {
		t.Error("Snapshot should carry a checksum")
	}
	if string(snap.CSV) != testCSV {
		t.Error("Snapshot should keep the raw CSV body")
	}
}

// TestPullReports tests the bounded-concurrency bulk pull
func TestPullReports(t *testing.T) {
	var inFlight, peak int32

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		fmt.Fprint(w, testCSV)
	})

	reqs := make([]ReportRequest, 8)
	for i := range reqs {
		reqs[i] = ReportRequest{ReportID: fmt.Sprintf("%d", 100+i)}
	}

	snaps, err := client.PullReports(context.Background(), reqs)
	if err != nil {
		t.Fatalf("PullReports failed: %v", err)
	}

	if len(snaps) != 8 {
		t.Fatalf("Expected 8 snapshots, got %d", len(snaps))
	}
	for i, snap := range snaps {
		if snap == nil {
			t.Fatalf("Snapshot %d is nil", i)
		}
		if snap.ReportID.String() != reqs[i].ReportID {
			t.Errorf("Snapshot %d: expected report %s, got %s", i, reqs[i].ReportID, snap.ReportID)
		}
	}

	if peak > 3 {
		t.Errorf("Expected at most 3 concurrent pulls, observed %d", peak)
	}
}

// TestPullReportsFailureCancels tests that one failure fails the batch
func TestPullReportsFailureCancels(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostForm.Get("report_id") == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"report does not exist"}`)
			return
		}
		fmt.Fprint(w, testCSV)
	})

	_, err := client.PullReports(context.Background(), []ReportRequest{
		{ReportID: "1"}, {ReportID: "bad"}, {ReportID: "3"},
	})
	if err == nil {
		t.Fatal("Expected batch error")
	}
	if !strings.Contains(err.Error(), "bad") {
		t.Errorf("Error should name the failing report: %v", err)
	}
}

// TestNewClientValidation tests config validation paths
func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("Expected error for empty config")
	}

	cfg := DefaultConfig()
	cfg.APIURL = "https://redcap.example.edu/api/"
	cfg.TokenEnv = "STUDYKIT_UNSET_TOKEN"
	if _, err := NewClient(cfg); err == nil {
		t.Error("Expected error when the token variable is unset")
	}
}
