package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"docqa-platform/models"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

// ExtractorFunc turns an uploaded payload into plain text for chunking.
type ExtractorFunc func(content []byte) (string, error)

// Extractor dispatches on content type. Unknown types fall back to plain
// text so simple uploads never fail on a missing mapping.
type Extractor struct {
	byType map[string]ExtractorFunc
}

func NewExtractor() *Extractor {
	e := &Extractor{byType: map[string]ExtractorFunc{}}
	e.byType["application/pdf"] = extractPDF
	e.byType["application/json"] = extractJSON
	e.byType["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"] = extractXLSX
	e.byType["text/plain"] = extractPlain
	e.byType["text/markdown"] = extractPlain
	e.byType["text/csv"] = extractPlain
	return e
}

// Supported reports whether contentType has a dedicated extractor.
func (e *Extractor) Supported(contentType string) bool {
	_, ok := e.byType[normalizeContentType(contentType)]
	return ok
}

// Extract returns the text content of the payload. Payloads that extract to
// nothing but whitespace yield ErrEmptyDocument.
func (e *Extractor) Extract(contentType string, content []byte) (string, error) {
	fn, ok := e.byType[normalizeContentType(contentType)]
	if !ok {
		fn = extractPlain
	}
	text, err := fn(content)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", models.ErrEmptyDocument
	}
	return text, nil
}

// normalizeContentType strips parameters like "; charset=utf-8".
func normalizeContentType(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func extractPlain(content []byte) (string, error) {
	return string(content), nil
}

func extractPDF(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var builder strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(text)
	}

	if builder.Len() == 0 {
		return "", fmt.Errorf("no text extracted from PDF")
	}
	return builder.String(), nil
}

// extractJSON flattens arbitrary JSON into "path: value" lines so structured
// exports stay searchable as text.
func extractJSON(content []byte) (string, error) {
	var value interface{}
	if err := json.Unmarshal(content, &value); err != nil {
		return "", fmt.Errorf("invalid JSON payload: %w", err)
	}

	var lines []string
	flattenJSON("", value, &lines)
	return strings.Join(lines, "\n"), nil
}

func flattenJSON(path string, value interface{}, lines *[]string) {
	switch v := value.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}
			flattenJSON(childPath, v[key], lines)
		}
	case []interface{}:
		for i, child := range v {
			flattenJSON(fmt.Sprintf("%s[%d]", path, i), child, lines)
		}
	default:
		if path == "" {
			*lines = append(*lines, fmt.Sprintf("%v", v))
		} else {
			*lines = append(*lines, fmt.Sprintf("%s: %v", path, v))
		}
	}
}

func extractXLSX(content []byte) (string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer file.Close()

	var builder strings.Builder
	for _, sheet := range file.GetSheetList() {
		rows, err := file.GetRows(sheet)
		if err != nil {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(sheet)
		builder.WriteString("\n")
		for _, row := range rows {
			builder.WriteString(strings.Join(row, "\t"))
			builder.WriteString("\n")
		}
	}

	return builder.String(), nil
}
