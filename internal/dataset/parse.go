package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/satindergrewal/sonigraph/internal/apperr"
)

// MaxUploadSize caps how much of an upload is read.
const MaxUploadSize = 10 << 20

// leadingNumber matches the numeric prefix of a field, so "12.5kg" reads as
// 12.5 and "n/a" reads as nothing.
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// Load parses an upload by its file extension.
func Load(filename string, r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, apperr.WrapInput(err, "Could not read uploaded file")
	}
	if len(data) > MaxUploadSize {
		return nil, apperr.Input("Uploaded file is too large")
	}

	var values []float64
	var kind string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		values, err = ParseCSV(data)
		kind = "text/csv"
	case ".json":
		values, err = ParseJSON(data)
		kind = "application/json"
	default:
		return nil, apperr.Input("Unsupported file format. Please use CSV or JSON.")
	}
	if err != nil {
		return nil, err
	}
	return New(filepath.Base(filename), "Uploaded "+kind, SourceUpload, values)
}

// ParseCSV takes the last field of every record and keeps those that start
// with a number. Blank lines are skipped.
func ParseCSV(data []byte) ([]float64, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var values []float64
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperr.WrapInput(err, "Malformed CSV file")
		}
		if len(rec) == 0 {
			continue
		}
		if v, ok := parseNumber(rec[len(rec)-1]); ok {
			values = append(values, v)
		}
	}

	if len(values) == 0 {
		return nil, apperr.Input("No valid numeric data found in CSV file")
	}
	return values, nil
}

func parseNumber(field string) (float64, bool) {
	m := leadingNumber.FindString(strings.TrimSpace(field))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseJSON accepts a top-level array, or an object holding a "data" array
// or else a "values" array. Non-numeric items are dropped.
func ParseJSON(data []byte) ([]float64, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperr.WrapInput(err, "Invalid JSON: "+err.Error())
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		if arr, ok := v["data"].([]any); ok {
			items = arr
		} else if arr, ok := v["values"].([]any); ok {
			items = arr
		} else {
			return nil, invalidJSONShape()
		}
	default:
		return nil, invalidJSONShape()
	}

	values := make([]float64, 0, len(items))
	for _, item := range items {
		if f, ok := item.(float64); ok {
			values = append(values, f)
		}
	}
	if len(values) == 0 {
		return nil, apperr.Input("No valid numeric data found in JSON file")
	}
	return values, nil
}

func invalidJSONShape() error {
	return apperr.Input("Invalid JSON format. Expected array of numbers or object with data/values array.")
}
