package redcap

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"studykit/domain/core"
	"studykit/domain/frame"
	"studykit/internal/errors"
)

// Export format names accepted by the REDCap API.
const (
	FormatRaw   = "raw"
	FormatLabel = "label"
)

// Client is a REDCap API client for one project.
type Client struct {
	apiURL      string
	token       string
	httpClient  *http.Client
	rateLimiter *rateLimiter
	sem         *semaphore.Weighted
}

// NewClient validates the config, resolves the API token, and returns a
// ready client.
func NewClient(cfg Config) (*Client, error) {
	token, err := cfg.validate()
	if err != nil {
		return nil, err
	}

	return &Client{
		apiURL:      cfg.APIURL,
		token:       token,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: newRateLimiter(cfg.RatePerSecond),
		sem:         semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}, nil
}

// Close releases the client's rate-limiter resources.
func (c *Client) Close() {
	c.rateLimiter.Close()
}

// ReportRequest identifies one saved report export.
type ReportRequest struct {
	ReportID string
	// Labels switches the export from raw codes to display labels.
	Labels bool
}

// RecordRequest describes a record-level export, optionally filtered to
// specific fields or instruments.
type RecordRequest struct {
	Fields []string
	Forms  []string
	Labels bool
}

// PullReport downloads one saved report as a frame.
func (c *Client) PullReport(ctx context.Context, req ReportRequest) (*frame.Frame, error) {
	if strings.TrimSpace(req.ReportID) == "" {
		return nil, errors.InvalidInput("report ID is required")
	}

	form := c.baseForm("report", req.Labels)
	form.Set("report_id", req.ReportID)
	form.Set("csvDelimiter", "")

	body, err := c.post(ctx, form)
	if err != nil {
		return nil, err
	}
	return parseCSV(body)
}

// PullRecords downloads record-level data, optionally restricted to fields
// or forms.
func (c *Client) PullRecords(ctx context.Context, req RecordRequest) (*frame.Frame, error) {
	form := c.baseForm("record", req.Labels)
	form.Set("type", "flat")
	if len(req.Fields) > 0 {
		form.Set("fields", strings.Join(req.Fields, ","))
	}
	if len(req.Forms) > 0 {
		form.Set("forms", strings.Join(req.Forms, ","))
	}

	body, err := c.post(ctx, form)
	if err != nil {
		return nil, err
	}
	return parseCSV(body)
}

// PullMetadata downloads the project data dictionary.
func (c *Client) PullMetadata(ctx context.Context) (*frame.Frame, error) {
	form := c.baseForm("metadata", false)

	body, err := c.post(ctx, form)
	if err != nil {
		return nil, err
	}
	return parseCSV(body)
}

// PullSnapshot pulls one report and wraps it in its archival form,
// checksummed over the raw CSV bytes.
func (c *Client) PullSnapshot(ctx context.Context, req ReportRequest) (*Snapshot, error) {
	if strings.TrimSpace(req.ReportID) == "" {
		return nil, errors.InvalidInput("report ID is required")
	}

	form := c.baseForm("report", req.Labels)
	form.Set("report_id", req.ReportID)
	form.Set("csvDelimiter", "")

	body, err := c.post(ctx, form)
	if err != nil {
		return nil, err
	}

	f, err := parseCSV(body)
	if err != nil {
		return nil, err
	}

	return NewSnapshot(core.ReportID(req.ReportID), f, body), nil
}

// PullReports pulls several reports with bounded concurrency, each request
// individually rate limited. The first failure cancels the remaining pulls.
func (c *Client) PullReports(ctx context.Context, reqs []ReportRequest) ([]*Snapshot, error) {
	if len(reqs) == 0 {
		return nil, errors.InvalidInput("no reports requested")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	snapshots := make([]*Snapshot, len(reqs))
	errs := make([]error, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			errs[i] = err
			break
		}
		wg.Add(1)
		go func(i int, req ReportRequest) {
			defer wg.Done()
			defer c.sem.Release(1)
			snap, err := c.PullSnapshot(ctx, req)
			if err != nil {
				errs[i] = fmt.Errorf("report %s: %w", req.ReportID, err)
				cancel()
				return
			}
			snapshots[i] = snap
		}(i, req)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return snapshots, nil
}

// baseForm builds the form fields shared by every export request.
func (c *Client) baseForm(content string, labels bool) url.Values {
	rawOrLabel := FormatRaw
	if labels {
		rawOrLabel = FormatLabel
	}

	form := url.Values{}
	form.Set("token", c.token)
	form.Set("content", content)
	form.Set("format", "csv")
	form.Set("rawOrLabel", rawOrLabel)
	form.Set("rawOrLabelHeaders", "raw")
	form.Set("exportCheckboxLabel", "false")
	form.Set("returnFormat", "csv")
	return form
}

// post sends one form-encoded request and returns the response body. Non-200
// responses become errors carrying the REDCap error text.
func (c *Client) post(ctx context.Context, form url.Values) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.RedcapError("request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.RedcapError("failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.RedcapError(
			fmt.Sprintf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	return body, nil
}

// ParseCSV converts a CSV export body into a frame. It is shared with the
// archive, which rebuilds frames from stored CSV bodies.
func ParseCSV(body []byte) (*frame.Frame, error) {
	return parseCSV(body)
}

// parseCSV converts a CSV export body into a frame.
func parseCSV(body []byte) (*frame.Frame, error) {
	reader := csv.NewReader(strings.NewReader(string(body)))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.RedcapError("failed to parse CSV export", err)
	}
	if len(records) == 0 {
		return nil, errors.RedcapError("export was empty", nil)
	}

	// Short rows are padded rather than rejected; trailing empty cells are
	// a known quirk of label exports.
	width := len(records[0])
	for i, row := range records {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			records[i] = padded
		} else if len(row) > width {
			records[i] = row[:width]
		}
	}

	return frame.FromRecords(records)
}
