// Package android reads the per-configuration size table produced by
// "bundletool get-size total" and classifies its rows against a size limit.
package android

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JonMunkholm/appsize/internal/textio"
)

// ErrMissingColumn is returned when the CSV header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Column names of the bundletool size CSV.
const (
	ColSDK                      = "SDK"
	ColABI                      = "ABI"
	ColScreenDensity            = "SCREEN_DENSITY"
	ColLanguage                 = "LANGUAGE"
	ColTextureCompressionFormat = "TEXTURE_COMPRESSION_FORMAT"
	ColDeviceTier               = "DEVICE_TIER"
	ColMin                      = "MIN"
	ColMax                      = "MAX"
)

// RequiredColumns lists every column ReadRows expects, in bundletool order.
var RequiredColumns = []string{
	ColSDK,
	ColABI,
	ColScreenDensity,
	ColLanguage,
	ColTextureCompressionFormat,
	ColDeviceTier,
	ColMin,
	ColMax,
}

// Row is one device configuration and its download size range in bytes.
type Row struct {
	SDK                      string `json:"sdk"`
	ABI                      string `json:"abi"`
	ScreenDensity            string `json:"screen_density"`
	Language                 string `json:"language"`
	TextureCompressionFormat string `json:"texture_compression_format"`
	DeviceTier               string `json:"device_tier"`
	MinBytes                 int64  `json:"min_bytes"`
	MaxBytes                 int64  `json:"max_bytes"`
}

// HeaderIndex maps a lowercased column name to its position.
type HeaderIndex map[string]int

// MakeHeaderIndex builds a HeaderIndex from a CSV header row.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		idx[strings.ToLower(CleanCell(h))] = i
	}
	return idx
}

// CleanCell trims whitespace, a leading Excel formula prefix and
// surrounding quotes from a cell.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}
	return strings.Trim(s, `"'`)
}

// ReadRows parses a bundletool size CSV.
//
// The first record is the header. Header names match case-insensitively.
// A missing column, a ragged row or a non-integer MIN/MAX aborts the read
// with an error naming the CSV line.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(textio.NewReader(r))
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("read header: %w: empty input", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := MakeHeaderIndex(header)
	pos := make(map[string]int, len(RequiredColumns))
	for _, col := range RequiredColumns {
		i, ok := idx[strings.ToLower(col)]
		if !ok {
			return nil, fmt.Errorf("line 1: %w %q", ErrMissingColumn, col)
		}
		pos[col] = i
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read rows: %w", err)
		}
		line, _ := cr.FieldPos(0)

		row := Row{
			SDK:                      CleanCell(record[pos[ColSDK]]),
			ABI:                      CleanCell(record[pos[ColABI]]),
			ScreenDensity:            CleanCell(record[pos[ColScreenDensity]]),
			Language:                 CleanCell(record[pos[ColLanguage]]),
			TextureCompressionFormat: CleanCell(record[pos[ColTextureCompressionFormat]]),
			DeviceTier:               CleanCell(record[pos[ColDeviceTier]]),
		}
		if row.MinBytes, err = parseBytes(record[pos[ColMin]]); err != nil {
			return nil, fmt.Errorf("line %d: column %s: %w", line, ColMin, err)
		}
		if row.MaxBytes, err = parseBytes(record[pos[ColMax]]); err != nil {
			return nil, fmt.Errorf("line %d: column %s: %w", line, ColMax, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseBytes(cell string) (int64, error) {
	v, err := strconv.ParseInt(CleanCell(cell), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte count %q", CleanCell(cell))
	}
	return v, nil
}
