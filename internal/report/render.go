package report

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	md = goldmark.New(goldmark.WithExtensions(extension.GFM))

	ugc = bluemonday.UGCPolicy()

	pageConverter = converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
)

// HTML renders the markdown document as a standalone sanitised HTML page.
func (r *Report) HTML() ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert(r.md, &body); err != nil {
		return nil, fmt.Errorf("report: render html: %w", err)
	}
	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>")
	out.WriteString(html.EscapeString(r.Meta.Title))
	out.WriteString("</title></head><body>\n")
	out.Write(ugc.SanitizeBytes(body.Bytes()))
	out.WriteString("</body></html>\n")
	return out.Bytes(), nil
}

// PageExcerpt converts captured page markup into a bounded markdown
// excerpt. Scripts and styles are dropped by the converter. Empty input or a
// conversion failure yields "".
func PageExcerpt(pageHTML, pageURL string) string {
	if strings.TrimSpace(pageHTML) == "" {
		return ""
	}
	result, err := pageConverter.ConvertString(pageHTML, converter.WithDomain(pageURL))
	if err != nil {
		return ""
	}
	return truncate(strings.TrimSpace(result), MaxPageText)
}

// WriteFile replaces path atomically: readers see the previous document or
// the new one, never a partial write.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("report: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("report: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("report: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("report: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("report: rename: %w", err)
	}
	return nil
}
