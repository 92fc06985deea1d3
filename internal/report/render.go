package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem; }
img { max-width: 100%; border: 1px solid #ddd; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ddd; padding: 4px 8px; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// HTML converts a Markdown report into a standalone HTML page
func HTML(title, markdown string) (string, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}

	var page bytes.Buffer
	err := pageTemplate.Execute(&page, struct {
		Title string
		Body  template.HTML
	}{title, template.HTML(body.String())})
	if err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}
	return page.String(), nil
}

// Write stores the Markdown report and its HTML rendition as <base>.md and <base>.html
// in dir and returns both paths
func Write(dir, base, title, markdown string) (string, string, error) {
	page, err := HTML(title, markdown)
	if err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create report directory: %w", err)
	}

	mdPath := filepath.Join(dir, base+".md")
	if err := os.WriteFile(mdPath, []byte(markdown), 0644); err != nil {
		return "", "", fmt.Errorf("failed to write markdown report: %w", err)
	}
	htmlPath := filepath.Join(dir, base+".html")
	if err := os.WriteFile(htmlPath, []byte(page), 0644); err != nil {
		return "", "", fmt.Errorf("failed to write html report: %w", err)
	}
	return mdPath, htmlPath, nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"#", `\#`,
	"|", `\|`,
	"\n", " ",
)

func escape(s string) string {
	return markdownEscaper.Replace(strings.TrimSpace(s))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return escape(s)
}
