package data

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	scierr "github.com/aidino/mlops-tagifai/pkg/errors"
)

// holdoutSize is the number of trailing rows reserved as the untouched
// test set during ELT.
const holdoutSize = 300

// ELT merges the raw projects and tags tables on their id column, drops rows
// without a tag, and writes the labeled training file plus a trailing holdout
// file. This is the data-acquisition boundary: nothing downstream reads the
// raw tables.
func ELT(projectsPath, tagsPath, labeledPath, holdoutPath string) error {
	projects, header, err := readTable(projectsPath)
	if err != nil {
		return err
	}
	tags, _, err := readTable(tagsPath)
	if err != nil {
		return err
	}

	idIdx, ok := columnIndex(header, "id")
	if !ok {
		return scierr.NewValueError("data.ELT", "projects table missing 'id' column")
	}

	tagByID := make(map[string]string, len(tags))
	for _, row := range tags {
		if len(row) >= 2 && strings.TrimSpace(row[1]) != "" {
			tagByID[strings.TrimSpace(row[0])] = strings.TrimSpace(row[1])
		}
	}

	outHeader := append(append([]string{}, header...), "tag")
	var merged [][]string
	for _, row := range projects {
		if idIdx >= len(row) {
			continue
		}
		tag, ok := tagByID[strings.TrimSpace(row[idIdx])]
		if !ok {
			continue
		}
		merged = append(merged, append(append([]string{}, row...), tag))
	}
	if len(merged) == 0 {
		return scierr.Wrap(scierr.ErrEmptyData, "data.ELT: no labeled rows after merge")
	}

	split := len(merged) - holdoutSize
	if split < 1 {
		split = len(merged)
	}
	if err := writeTable(labeledPath, outHeader, merged[:split]); err != nil {
		return err
	}
	return writeTable(holdoutPath, outHeader, merged[split:])
}

func readTable(path string) ([][]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, scierr.NewStorageError("data.readTable", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, nil, scierr.NewStorageError("data.readTable", path, err)
	}
	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, scierr.NewStorageError("data.readTable", path, err)
		}
		rows = append(rows, record)
	}
	return rows, header, nil
}

func writeTable(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return scierr.NewStorageError("data.writeTable", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return scierr.NewStorageError("data.writeTable", path, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return scierr.NewStorageError("data.writeTable", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return scierr.NewStorageError("data.writeTable", path, err)
	}
	return nil
}

func columnIndex(header []string, name string) (int, bool) {
	for i, h := range header {
		if strings.TrimSpace(strings.ToLower(h)) == name {
			return i, true
		}
	}
	return 0, false
}
