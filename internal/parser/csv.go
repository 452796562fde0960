package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/readaloud/internal/document"
)

// rowsPerPage is how many data rows are read per page.
const rowsPerPage = 20

// CSVParser handles CSV files. Each page repeats the header names next to
// the cell values so a row reads aloud on its own.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	b := document.NewBuilder(baseTitle(filename), document.TypeCSV)
	if len(records) == 0 {
		return b.Build()
	}

	// First row is headers.
	headers := records[0]
	dataRows := records[1:]
	if len(dataRows) == 0 {
		b.Paragraph(strings.Join(headers, ", "))
		return b.Build()
	}

	for i := 0; i < len(dataRows); i += rowsPerPage {
		end := min(i+rowsPerPage, len(dataRows))
		for _, row := range dataRows[i:end] {
			var line strings.Builder
			for j, cell := range row {
				if j > 0 {
					line.WriteString(", ")
				}
				if j < len(headers) && headers[j] != "" {
					line.WriteString(headers[j] + ": " + cell)
				} else {
					line.WriteString(cell)
				}
			}
			b.Paragraph(line.String())
		}
		b.PageBreak()
	}

	return b.Build()
}
