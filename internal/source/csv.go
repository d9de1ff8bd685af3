package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// csvBatchSize is the number of data rows per section.
const csvBatchSize = 20

// CSVParser renders rows as "header: value" lines, batched into sections.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := &Document{Title: titleFromFilename(filename)}
	if len(records) == 0 {
		return doc, nil
	}

	headers := records[0]
	rows := records[1:]
	for i := 0; i < len(rows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(rows))

		var text strings.Builder
		text.WriteString("Columns: " + strings.Join(headers, ", ") + "\n\n")
		for _, row := range rows[i:end] {
			for j, cell := range row {
				if j > 0 {
					text.WriteString(", ")
				}
				if j < len(headers) {
					text.WriteString(headers[j] + ": " + cell)
				} else {
					text.WriteString(cell)
				}
			}
			text.WriteString("\n")
		}

		doc.Sections = append(doc.Sections, &Section{
			Heading: fmt.Sprintf("Rows %d-%d", i+2, end+1), // 1-indexed, after the header row
			Text:    strings.TrimSpace(text.String()),
		})
	}
	return doc, nil
}
