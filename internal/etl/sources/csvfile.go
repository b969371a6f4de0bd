package sources

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"datafill/internal/etl"
)

// ── CSV File Source ─────────────────────────────────────────
// Reads records from a local CSV file. Cells stay strings: every value
// ends up as element text anyway.

type csvFileSource struct{}

func init() { etl.RegisterSource(&csvFileSource{}) }

func (s *csvFileSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:  "csv_file",
		Label: "CSV File",
		ConfigFields: []etl.ConfigField{
			{Key: "filePath", Label: "File Path", Type: "file", Required: true, Help: "Path to the CSV file"},
			{Key: "delimiter", Label: "Delimiter", Type: "string", Required: false, Default: ",", Help: "Column delimiter (default: comma)"},
			{Key: "hasHeader", Label: "Has Header", Type: "select", Required: false, Options: []string{"true", "false"}, Default: "true", Help: "Whether the first row contains column names"},
		},
	}
}

func (s *csvFileSource) Fetch(ctx context.Context, cfg etl.SourceConfig) ([]byte, error) {
	headers, rows, err := readCSVFile(cfg)
	if err != nil {
		return nil, err
	}
	cells := make([][]any, len(rows))
	for i, row := range rows {
		cells[i] = make([]any, len(row))
		for j, v := range row {
			cells[i][j] = v
		}
	}
	return encodeRows(headers, cells)
}

func readCSVFile(cfg etl.SourceConfig) ([]string, [][]string, error) {
	filePath, _ := cfg["filePath"].(string)
	if filePath == "" {
		return nil, nil, fmt.Errorf("filePath is required")
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if delim, ok := cfg["delimiter"].(string); ok && len(delim) > 0 {
		reader.Comma = rune(delim[0])
	}
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("empty csv file")
	}

	hasHeader := true
	if h, ok := cfg["hasHeader"].(string); ok {
		hasHeader = strings.ToLower(h) != "false"
	}

	if hasHeader {
		return records[0], records[1:], nil
	}
	// Generate column names: col_1, col_2, ...
	headers := make([]string, len(records[0]))
	for i := range headers {
		headers[i] = fmt.Sprintf("col_%d", i+1)
	}
	return headers, records, nil
}

// encodeRows renders tabular rows as a JSON array of objects, columns in
// order. Short rows simply lack the trailing keys.
func encodeRows(columns []string, rows [][]any) ([]byte, error) {
	out := make([]etl.Record, 0, len(rows))
	for _, row := range rows {
		rec := etl.NewRecord()
		for i, col := range columns {
			if i < len(row) {
				rec.Set(col, row[i])
			}
		}
		out = append(out, rec)
	}
	return json.Marshal(out)
}
