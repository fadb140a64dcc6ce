// Package report assembles analysis tables and prose into a study report
// and renders it as Markdown and HTML files for sharing with investigators.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"studykit/internal/errors"
	"studykit/internal/tables"
)

// Section is one block of a report: a heading, optional prose, and any
// number of tables.
type Section struct {
	Heading string
	Prose   string
	Tables  []*tables.Table
}

// Report is a titled, ordered collection of sections.
type Report struct {
	Title    string
	Sections []Section
}

// New creates an empty report.
func New(title string) *Report {
	return &Report{Title: title}
}

// AddSection appends a section and returns the report for chaining.
func (r *Report) AddSection(section Section) *Report {
	r.Sections = append(r.Sections, section)
	return r
}

// RenderMarkdown renders the whole report as Markdown.
func (r *Report) RenderMarkdown() string {
	var b strings.Builder

	b.WriteString("# ")
	b.WriteString(r.Title)
	b.WriteString("\n\n")

	for _, section := range r.Sections {
		if section.Heading != "" {
			b.WriteString("## ")
			b.WriteString(section.Heading)
			b.WriteString("\n\n")
		}
		if section.Prose != "" {
			b.WriteString(section.Prose)
			b.WriteString("\n\n")
		}
		for _, table := range section.Tables {
			b.WriteString(table.Markdown())
			b.WriteString("\n")
		}
	}

	return b.String()
}

// RenderHTML converts the Markdown rendering to HTML wrapped in a minimal
// page shell.
func (r *Report) RenderHTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse([]byte(r.RenderMarkdown()))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	body := markdown.Render(doc, renderer)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(htmlEscape(r.Title))
	b.WriteString("</title>\n<style>\n")
	b.WriteString(pageCSS)
	b.WriteString("</style>\n</head>\n<body>\n")
	b.Write(body)
	b.WriteString("</body>\n</html>\n")
	return []byte(b.String())
}

// WriteFiles emits report.md and report.html into dir.
func (r *Report) WriteFiles(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.FileError(dir, err)
	}

	mdPath := filepath.Join(dir, "report.md")
	if err := os.WriteFile(mdPath, []byte(r.RenderMarkdown()), 0o644); err != nil {
		return errors.FileError(mdPath, err)
	}

	htmlPath := filepath.Join(dir, "report.html")
	if err := os.WriteFile(htmlPath, r.RenderHTML(), 0o644); err != nil {
		return errors.FileError(htmlPath, err)
	}

	return nil
}

func htmlEscape(s string) string {
	replacer := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return replacer.Replace(s)
}

// pageCSS keeps rendered reports readable without external assets.
const pageCSS = `body { font-family: Georgia, serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; color: #222; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #999; padding: 0.3rem 0.7rem; text-align: left; }
th { background: #f0f0f0; }
tr:nth-child(even) td { background: #fafafa; }`

// Standard builds the standard study report: descriptives plus the
// correlation-comparison table, with a short provenance line.
func Standard(title string, describeTable, steigerTable *tables.Table, n int) *Report {
	r := New(title)
	r.AddSection(Section{
		Heading: "Sample",
		Prose:   fmt.Sprintf("Analysis dataset with %d records.", n),
	})
	if describeTable != nil {
		r.AddSection(Section{Heading: "Descriptive statistics", Tables: []*tables.Table{describeTable}})
	}
	if steigerTable != nil {
		r.AddSection(Section{
			Heading: "Correlation comparisons",
			Prose:   "Steiger's Z tests across all pairs of correlations; two-tailed p-values.",
			Tables:  []*tables.Table{steigerTable},
		})
	}
	return r
}
