// Package barsio is the host-runtime boundary: it loads a bar Series (and
// its per-signal parameter arrays) from CSV, and writes a Result back out
// as JSON. There is no JSON loader. None of this is part of the core simulation pipeline;
// it is the marshalling collaborator spec §1 treats as external.
package barsio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sawpanic/backtestengine/internal/bars"
)

// columns are matched case-insensitively against the CSV header. Every
// numeric column, timestamp and expiration_time included, is parsed as a
// plain number (UNIX seconds for the time columns); RFC3339 strings are
// not accepted. Rows are kept in file order, not sorted.
var requiredColumns = []string{
	"timestamp", "open", "high", "low", "close",
	"long_signal", "short_signal",
	"long_tp", "long_sl", "short_tp", "short_sl",
	"long_size", "short_size",
}

// LoadCSV reads a bar series from a CSV file with a header row. A missing
// "expiration_time" column is treated as "no expiration" for every bar, and
// an empty expiration_time cell as "no expiration" for that bar.
func LoadCSV(path string) (*bars.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses a bar series from r; see LoadCSV.
func ReadCSV(r io.Reader) (*bars.Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}
	_, hasExpiration := col["expiration_time"]

	s := &bars.Series{}
	row := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		row++

		ts, err := parseFloat(rec, col, "timestamp")
		if err != nil {
			return nil, err
		}
		open, err := parseFloat(rec, col, "open")
		if err != nil {
			return nil, err
		}
		high, err := parseFloat(rec, col, "high")
		if err != nil {
			return nil, err
		}
		low, err := parseFloat(rec, col, "low")
		if err != nil {
			return nil, err
		}
		closePx, err := parseFloat(rec, col, "close")
		if err != nil {
			return nil, err
		}
		longSignal, err := parseBool(rec, col, "long_signal")
		if err != nil {
			return nil, err
		}
		shortSignal, err := parseBool(rec, col, "short_signal")
		if err != nil {
			return nil, err
		}
		longTP, err := parseFloat(rec, col, "long_tp")
		if err != nil {
			return nil, err
		}
		longSL, err := parseFloat(rec, col, "long_sl")
		if err != nil {
			return nil, err
		}
		shortTP, err := parseFloat(rec, col, "short_tp")
		if err != nil {
			return nil, err
		}
		shortSL, err := parseFloat(rec, col, "short_sl")
		if err != nil {
			return nil, err
		}
		longSize, err := parseFloat(rec, col, "long_size")
		if err != nil {
			return nil, err
		}
		shortSize, err := parseFloat(rec, col, "short_size")
		if err != nil {
			return nil, err
		}

		expiration := bars.NoExpiration
		if idx := col["expiration_time"]; hasExpiration && idx < len(rec) && strings.TrimSpace(rec[idx]) != "" {
			expiration, err = parseFloat(rec, col, "expiration_time")
			if err != nil {
				return nil, err
			}
		}

		s.Timestamp = append(s.Timestamp, ts)
		s.Open = append(s.Open, open)
		s.High = append(s.High, high)
		s.Low = append(s.Low, low)
		s.Close = append(s.Close, closePx)
		s.LongSignal = append(s.LongSignal, longSignal)
		s.ShortSignal = append(s.ShortSignal, shortSignal)
		s.LongTP = append(s.LongTP, longTP)
		s.LongSL = append(s.LongSL, longSL)
		s.ShortTP = append(s.ShortTP, shortTP)
		s.ShortSL = append(s.ShortSL, shortSL)
		s.LongSize = append(s.LongSize, longSize)
		s.ShortSize = append(s.ShortSize, shortSize)
		s.ExpirationTime = append(s.ExpirationTime, expiration)
	}

	return s, nil
}

func parseFloat(rec []string, col map[string]int, name string) (float64, error) {
	idx, ok := col[name]
	if !ok || idx >= len(rec) {
		return 0, fmt.Errorf("column %q missing in row", name)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx]), 64)
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", name, err)
	}
	return v, nil
}

func parseBool(rec []string, col map[string]int, name string) (bool, error) {
	idx, ok := col[name]
	if !ok || idx >= len(rec) {
		return false, fmt.Errorf("column %q missing in row", name)
	}
	v := strings.ToLower(strings.TrimSpace(rec[idx]))
	switch v {
	case "1", "true", "t", "yes":
		return true, nil
	case "0", "false", "f", "no", "":
		return false, nil
	default:
		return false, fmt.Errorf("column %q: unrecognized boolean %q", name, rec[idx])
	}
}
