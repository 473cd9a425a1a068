package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"
	"keywordanalyzer/internal/log"
	"keywordanalyzer/internal/model"
)

var ErrWrite = errors.New("report write failed")

const (
	ColumnURL          = "URL"
	ColumnCategory     = "Category"
	ColumnFiletype     = "Filetype"
	ColumnError        = "Error"
	ColumnErrorDetails = "Error Details"
)

// Row is one parsed report line.
type Row struct {
	URL           string
	Category      string
	Filetype      string
	KeywordCounts []model.KeywordCount
	Error         string
	ErrorDetails  string
}

// Header returns the column names for keywords, in order.
func Header(keywords []string) []string {
	header := make([]string, 0, len(keywords)+5)
	header = append(header, ColumnURL, ColumnCategory, ColumnFiletype)
	header = append(header, keywords...)
	return append(header, ColumnError, ColumnErrorDetails)
}

func recordRow(rec model.AnalysisRecord, keywords []string) []string {
	row := make([]string, 0, len(keywords)+5)
	row = append(row, rec.URL, rec.Category.String(), rec.ContentType)
	for i := range keywords {
		count := 0
		if i < len(rec.KeywordCounts) {
			count = rec.KeywordCounts[i].Count
		}
		row = append(row, strconv.Itoa(count))
	}
	return append(row, rec.Error.String(), rec.ErrorDetail)
}

// WriteCSV overwrites path with one row per record, preceded by the header.
func WriteCSV(path string, records []model.AnalysisRecord, keywords []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Header(keywords)); err != nil {
		f.Close()
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	for _, rec := range records {
		if err := w.Write(recordRow(rec, keywords)); err != nil {
			f.Close()
			return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}

	log.Logger.Info("report written",
		zap.String("path", path),
		zap.Int("rows", len(records)),
		zap.Int("keywords", len(keywords)),
	)
	return nil
}

// ReadCSV parses a report produced by WriteCSV.
func ReadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lines, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("parse %s: missing header", path)
	}

	header := lines[0]
	if len(header) < 5 ||
		header[0] != ColumnURL || header[1] != ColumnCategory || header[2] != ColumnFiletype ||
		header[len(header)-2] != ColumnError || header[len(header)-1] != ColumnErrorDetails {
		return nil, fmt.Errorf("parse %s: unexpected header %q", path, header)
	}
	keywords := header[3 : len(header)-2]

	rows := make([]Row, 0, len(lines)-1)
	for n, line := range lines[1:] {
		row := Row{
			URL:          line[0],
			Category:     line[1],
			Filetype:     line[2],
			Error:        line[len(line)-2],
			ErrorDetails: line[len(line)-1],
		}
		for i, kw := range keywords {
			count, err := strconv.Atoi(line[3+i])
			if err != nil {
				return nil, fmt.Errorf("parse %s: row %d keyword %q: %w", path, n+2, kw, err)
			}
			row.KeywordCounts = append(row.KeywordCounts, model.KeywordCount{Keyword: kw, Count: count})
		}
		rows = append(rows, row)
	}
	return rows, nil
}
