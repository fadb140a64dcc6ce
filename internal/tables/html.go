package tables

import (
	"html/template"
	"strings"
)

// tableHTML is the shared fragment template for rendering one table. It is
// self-contained so rendered tables can be dropped into any page shell.
const tableHTML = `<table class="summary-table">
{{- if .Title}}
  <caption>{{.Title}}{{if .Subtitle}} <span class="subtitle">{{.Subtitle}}</span>{{end}}</caption>
{{- end}}
  <thead>
    <tr>
{{- range .Columns}}
      <th>{{.}}</th>
{{- end}}
    </tr>
  </thead>
  <tbody>
{{- range .Rows}}
    <tr>
{{- range .}}
      <td>{{.}}</td>
{{- end}}
    </tr>
{{- end}}
  </tbody>
{{- if .SourceNote}}
  <tfoot><tr><td colspan="{{len .Columns}}">{{.SourceNote}}</td></tr></tfoot>
{{- end}}
</table>
`

var tableTmpl = template.Must(template.New("table").Parse(tableHTML))

// HTML renders the table as an HTML fragment.
func (t *Table) HTML() (string, error) {
	var b strings.Builder
	if err := tableTmpl.Execute(&b, t); err != nil {
		return "", err
	}
	return b.String(), nil
}
