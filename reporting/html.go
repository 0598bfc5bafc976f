package reporting

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/ethereum-optimism/infra/op-reporter/templates"
	"github.com/ethereum-optimism/infra/op-reporter/types"
)

const HTMLReportTemplate = "report.html.tmpl"

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// DefaultHTMLTemplate returns the embedded report template
func DefaultHTMLTemplate() (string, error) {
	content, err := templateFS.ReadFile("templates/" + HTMLReportTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to read HTML template: %w", err)
	}
	return string(content), nil
}

// HTMLRenderer renders report data into a self-contained HTML document.
// Values are escaped by html/template, so test names and payloads cannot
// alter the structure of the document.
type HTMLRenderer struct {
	template *template.Template
}

var _ ReportFormatter = (*HTMLRenderer)(nil)

// NewHTMLRenderer creates a renderer from template content.
// An empty string selects the embedded default template.
func NewHTMLRenderer(templateContent string) (*HTMLRenderer, error) {
	if templateContent == "" {
		var err error
		templateContent, err = DefaultHTMLTemplate()
		if err != nil {
			return nil, err
		}
	}

	tmpl, err := template.New("report").Funcs(templates.GetTemplateFunc()).Parse(templateContent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML template: %w", err)
	}

	return &HTMLRenderer{
		template: tmpl,
	}, nil
}

// Format renders report data as HTML
func (r *HTMLRenderer) Format(data *ReportData) (string, error) {
	var buf bytes.Buffer
	if err := r.template.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute HTML template: %w", err)
	}
	return buf.String(), nil
}

// Render builds report data for records and renders it as HTML
func (r *HTMLRenderer) Render(builder *ReportBuilder, records []types.ResultRecord) (string, error) {
	return r.Format(builder.Build(records))
}
