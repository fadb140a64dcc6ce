package ui

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"studykit/adapters/redcap"
	"studykit/app"
	"studykit/domain/frame"
	domainstats "studykit/domain/stats"
	"studykit/internal/testkit"
)

// maxUploadBytes bounds CSV uploads; study exports are small.
const maxUploadBytes = 16 << 20

type resultView struct {
	Title    string
	Analysis string
	Tables   []string
	Skipped  []string
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	a.render(w, "index.html", nil)
}

// handleAnalyze accepts a multipart CSV upload plus the analysis selection
// and renders the resulting tables.
func (a *App) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.renderError(w, http.StatusBadRequest, fmt.Errorf("invalid upload: %w", err))
		return
	}

	file, header, err := r.FormFile("dataset")
	if err != nil {
		a.renderError(w, http.StatusBadRequest, fmt.Errorf("a CSV file is required"))
		return
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		a.renderError(w, http.StatusBadRequest, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	f, err := redcap.ParseCSV(body)
	if err != nil {
		a.renderError(w, http.StatusBadRequest, fmt.Errorf("could not parse %s: %w", header.Filename, err))
		return
	}

	analysis := r.FormValue("analysis")
	columns := splitColumns(r.FormValue("columns"))

	view, err := a.runAnalysis(r, f, body, analysis, columns)
	if err != nil {
		a.renderError(w, http.StatusUnprocessableEntity, err)
		return
	}

	view.Title = header.Filename
	a.render(w, "results.html", view)
}

// handleDemo runs the bundled synthetic survey through the describe and
// comparison paths.
func (a *App) handleDemo(w http.ResponseWriter, r *http.Request) {
	f, err := testkit.DemoFrame(testkit.DefaultDemoConfig())
	if err != nil {
		a.renderError(w, http.StatusInternalServerError, err)
		return
	}

	view := &resultView{Title: "Demo dataset", Analysis: "describe + steiger"}

	summary, err := a.service.BuildSummary(r.Context(), app.SummaryRequest{
		Frame:   f,
		Kind:    app.SummaryDescribe,
		Columns: testkit.NumericDemoColumns(),
	})
	if err != nil {
		a.renderError(w, http.StatusInternalServerError, err)
		return
	}
	if err := view.appendTable(summary.Table.HTML()); err != nil {
		a.renderError(w, http.StatusInternalServerError, err)
		return
	}

	sweep, err := a.service.RunSteiger(r.Context(), app.SteigerRequest{
		Frame:   f,
		Columns: testkit.NumericDemoColumns(),
		Method:  domainstats.MethodPearson,
	})
	if err != nil {
		a.renderError(w, http.StatusInternalServerError, err)
		return
	}
	if err := view.appendTable(sweep.Table.HTML()); err != nil {
		a.renderError(w, http.StatusInternalServerError, err)
		return
	}
	view.appendSkips(sweep.Result.Skipped)

	a.render(w, "results.html", view)
}

func (a *App) runAnalysis(r *http.Request, f *frame.Frame, body []byte, analysis string, columns []string) (*resultView, error) {
	view := &resultView{Analysis: analysis}

	switch analysis {
	case "describe":
		result, err := a.service.BuildSummary(r.Context(), app.SummaryRequest{
			Frame: f, Kind: app.SummaryDescribe, Columns: columns,
		})
		if err != nil {
			return nil, err
		}
		return view, view.appendTable(result.Table.HTML())

	case "freq":
		if len(columns) != 1 {
			return nil, fmt.Errorf("frequency table needs exactly one column")
		}
		result, err := a.service.BuildSummary(r.Context(), app.SummaryRequest{
			Frame: f, Kind: app.SummaryFreq, Columns: columns,
		})
		if err != nil {
			return nil, err
		}
		return view, view.appendTable(result.Table.HTML())

	case "allapply":
		result, err := a.service.BuildSummary(r.Context(), app.SummaryRequest{
			Frame:      f,
			Kind:       app.SummaryAllApply,
			Columns:    columns,
			GroupTitle: r.FormValue("title"),
		})
		if err != nil {
			return nil, err
		}
		return view, view.appendTable(result.Table.HTML())

	case "steiger":
		method := domainstats.Method(r.FormValue("method"))
		if method == "" {
			method = domainstats.MethodPearson
		}
		result, err := a.service.RunSteiger(r.Context(), app.SteigerRequest{
			Frame: f, Columns: columns, Method: method, SourceCSV: body,
		})
		if err != nil {
			return nil, err
		}
		view.appendSkips(result.Result.Skipped)
		return view, view.appendTable(result.Table.HTML())

	default:
		return nil, fmt.Errorf("unknown analysis '%s'", analysis)
	}
}

func (v *resultView) appendTable(html string, err error) error {
	if err != nil {
		return err
	}
	v.Tables = append(v.Tables, html)
	return nil
}

func (v *resultView) appendSkips(skips []domainstats.SkippedComparison) {
	for _, s := range skips {
		v.Skipped = append(v.Skipped, fmt.Sprintf("%s: %s", s.Label(), s.Detail))
	}
}

func (a *App) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, name, data); err != nil {
		a.logger.Error("Template %s failed: %v", name, err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

func (a *App) renderError(w http.ResponseWriter, status int, err error) {
	a.logger.Warn("Request failed: %v", err)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if tmplErr := a.templates.ExecuteTemplate(w, "error.html", err.Error()); tmplErr != nil {
		http.Error(w, err.Error(), status)
	}
}

// splitColumns parses the comma- or whitespace-separated column input.
func splitColumns(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
