package app

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yourusername/clipfetch/internal/domain"
)

const (
	columnKey  = "key"
	columnURL  = "url"
	columnSpan = "orig_span"
)

// LoadTasks reads the metadata table at path and returns one task per row, in file order.
// Any malformed row fails the whole load.
func LoadTasks(path string) ([]*domain.Task, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer file.Close()

	return ReadTasks(file)
}

// ReadTasks parses a metadata table with a header row containing key, url and orig_span
func ReadTasks(r io.Reader) ([]*domain.Task, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, domain.ErrEmptyTable
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	tasks := make([]*domain.Task, 0)
	firstRow := make(map[string]int)

	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", row, err)
		}

		span, err := domain.ParseSpan(record[columns[columnSpan]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		task, err := domain.NewTask(record[columns[columnKey]], record[columns[columnURL]], span, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		if prev, ok := firstRow[task.Key]; ok {
			return nil, fmt.Errorf("row %d: %w %q, first seen on row %d", row, domain.ErrDuplicateKey, task.Key, prev)
		}
		firstRow[task.Key] = row

		tasks = append(tasks, task)
	}

	return tasks, nil
}

// indexColumns maps the required column names to their positions.
// Header cells are trimmed and a leading byte order mark is ignored.
func indexColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.TrimSpace(name)
		if _, ok := columns[name]; !ok {
			columns[name] = i
		}
	}

	var missing []string
	for _, required := range []string{columnKey, columnURL, columnSpan} {
		if _, ok := columns[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingColumn, strings.Join(missing, ", "))
	}

	return columns, nil
}
