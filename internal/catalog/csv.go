package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bookcatalog/pkg/models"
)

var csvHeader = []string{
	"id", "title", "author", "genre", "year", "isbn", "description",
	"cover_url", "rating", "pages", "language", "added_date",
}

// WriteCSV dumps books with a header row.
func WriteCSV(out io.Writer, books []models.Book) error {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, b := range books {
		if err := w.Write([]string{
			strconv.FormatInt(b.ID, 10),
			b.Title,
			b.Author,
			b.Genre,
			formatInt(b.Year),
			b.ISBN,
			b.Description,
			b.CoverURL,
			formatFloat(b.Rating),
			formatInt(b.Pages),
			b.Language,
			b.AddedDate,
		}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// ReadCSV parses rows by header name, so columns may come in any order and
// unknown columns are ignored. Rows without a title or author are skipped;
// id and added_date are always assigned by the store.
func ReadCSV(in io.Reader) ([]models.BookFields, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	var out []models.BookFields
	line := 1
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 {
			continue
		}

		f := models.BookFields{
			Title:       valueAt(header, row, "title"),
			Author:      valueAt(header, row, "author"),
			Genre:       valueAt(header, row, "genre"),
			ISBN:        valueAt(header, row, "isbn"),
			Description: valueAt(header, row, "description"),
			CoverURL:    valueAt(header, row, "cover_url"),
			Language:    valueAt(header, row, "language"),
		}
		if f.Title == "" || f.Author == "" {
			continue
		}

		if f.Year, err = parseOptInt(valueAt(header, row, "year")); err != nil {
			return nil, fmt.Errorf("line %d: parse year: %w", line, err)
		}
		if f.Pages, err = parseOptInt(valueAt(header, row, "pages")); err != nil {
			return nil, fmt.Errorf("line %d: parse pages: %w", line, err)
		}
		if f.Rating, err = parseOptFloat(valueAt(header, row, "rating")); err != nil {
			return nil, fmt.Errorf("line %d: parse rating: %w", line, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	if _, ok := header["title"]; !ok {
		return nil, errors.New("header has no title column")
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseOptInt(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func parseOptFloat(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
