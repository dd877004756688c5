// Package data loads the labeled project dataset and produces the
// deterministic splits the trainer consumes. Extraction and transformation of
// raw sources live in elt.go; everything downstream of this package sees only
// rows of (text, tag).
package data

import (
	"encoding/csv"
	"io"
	"math/rand"
	"os"
	"strings"

	scierr "github.com/aidino/mlops-tagifai/pkg/errors"
)

// Example is one labeled row: free text plus its tag.
type Example struct {
	ID   string
	Text string
	Tag  string
}

// Dataset is an ordered collection of labeled examples.
type Dataset []Example

// Texts returns the feature texts in row order.
func (d Dataset) Texts() []string {
	texts := make([]string, len(d))
	for i, ex := range d {
		texts[i] = ex.Text
	}
	return texts
}

// Tags returns the labels in row order.
func (d Dataset) Tags() []string {
	tags := make([]string, len(d))
	for i, ex := range d {
		tags[i] = ex.Tag
	}
	return tags
}

// LoadLabeledCSV reads a labeled dataset from a CSV file. The file must carry
// either a "text" column or a "title"/"description" pair, and a "tag" column.
// Rows with an empty tag are dropped at this boundary so the core never sees
// unlabeled data.
func LoadLabeledCSV(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, scierr.NewStorageError("data.LoadLabeledCSV", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, scierr.NewStorageError("data.LoadLabeledCSV", path, err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	tagIdx, ok := col["tag"]
	if !ok {
		return nil, scierr.NewValueError("data.LoadLabeledCSV", "missing 'tag' column")
	}
	textIdx, hasText := col["text"]
	titleIdx, hasTitle := col["title"]
	descIdx, hasDesc := col["description"]
	if !hasText && !hasTitle {
		return nil, scierr.NewValueError("data.LoadLabeledCSV", "missing 'text' or 'title' column")
	}
	idIdx, hasID := col["id"]

	var ds Dataset
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, scierr.NewStorageError("data.LoadLabeledCSV", path, err)
		}
		get := func(idx int) string {
			if idx < len(record) {
				return strings.TrimSpace(record[idx])
			}
			return ""
		}
		tag := get(tagIdx)
		if tag == "" {
			continue
		}
		var text string
		if hasText {
			text = get(textIdx)
		} else {
			text = get(titleIdx)
			if hasDesc {
				text = strings.TrimSpace(text + " " + get(descIdx))
			}
		}
		ex := Example{Text: text, Tag: tag}
		if hasID {
			ex.ID = get(idIdx)
		}
		ds = append(ds, ex)
	}
	if len(ds) == 0 {
		return nil, scierr.Wrap(scierr.ErrEmptyData, "data.LoadLabeledCSV")
	}
	return ds, nil
}

// Splits holds the three partitions of a dataset.
type Splits struct {
	Train Dataset
	Val   Dataset
	Test  Dataset
}

// Split partitions a dataset 70/15/15 into train/val/test. When shuffle is
// set the rows are permuted with the given seed first, so the same seed
// always yields the same splits. subset > 0 caps the number of rows used
// (after shuffling), for smoke runs.
func Split(ds Dataset, shuffle bool, seed int64, subset int) (Splits, error) {
	if len(ds) == 0 {
		return Splits{}, scierr.Wrap(scierr.ErrEmptyData, "data.Split")
	}

	rows := make(Dataset, len(ds))
	copy(rows, ds)
	if shuffle {
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(rows), func(i, j int) {
			rows[i], rows[j] = rows[j], rows[i]
		})
	}
	if subset > 0 && subset < len(rows) {
		rows = rows[:subset]
	}

	nTrain := int(0.7 * float64(len(rows)))
	nVal := int(0.15 * float64(len(rows)))
	if nTrain == 0 || nVal == 0 || nTrain+nVal >= len(rows) {
		return Splits{}, scierr.NewValueError("data.Split", "dataset too small to split")
	}
	return Splits{
		Train: rows[:nTrain],
		Val:   rows[nTrain : nTrain+nVal],
		Test:  rows[nTrain+nVal:],
	}, nil
}
