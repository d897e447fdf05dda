package brief

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/yuin/goldmark"
)

//go:embed templates/*.html
var templateFS embed.FS

var md = goldmark.New()

var pageTemplate = template.Must(template.New("brief.html").Funcs(template.FuncMap{
	"markdown":   renderMarkdown,
	"formatDate": formatDate,
}).ParseFS(templateFS, "templates/brief.html"))

// WriteHTML renders the document as a standalone page at path.
func WriteHTML(doc Document, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating site directory: %w", err)
	}

	var buf bytes.Buffer
	if err := pageTemplate.ExecuteTemplate(&buf, "brief.html", doc); err != nil {
		return fmt.Errorf("rendering brief page: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

func formatDate(value string) string {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return t.Format("Jan 2, 2006")
}
