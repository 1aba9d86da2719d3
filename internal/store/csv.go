package store

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	errs "neat-trader/internal/errors"
	"neat-trader/internal/models"
)

// candle CSV column layout: timestamp,open,high,low,close,volume[,spread].
const (
	csvFieldTimestamp = iota
	csvFieldOpen
	csvFieldHigh
	csvFieldLow
	csvFieldClose
	csvFieldVolume
	csvFieldSpread
	csvMinFields = csvFieldVolume + 1
)

// LoadCandlesCSV reads candle history from a CSV file. A header row is
// detected and skipped; timestamps may be unix seconds or RFC 3339.
func LoadCandlesCSV(path string) ([]models.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.NewDataError("csv", path, "open candle file", err)
	}
	defer f.Close()
	return ReadCandlesCSV(f, path)
}

// ReadCandlesCSV reads candle history from r. The name is used in error
// messages only.
func ReadCandlesCSV(r io.Reader, name string) ([]models.Candle, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var candles []models.Candle
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.NewDataError("csv", name, "read candle row", err)
		}
		line++

		if len(record) < csvMinFields {
			return nil, errs.NewDataError("csv", name, "too few columns at line "+strconv.Itoa(line), nil)
		}
		if line == 1 && isHeaderRow(record) {
			continue
		}

		c, err := parseCandleRecord(record)
		if err != nil {
			return nil, errs.NewDataError("csv", name, "parse line "+strconv.Itoa(line), err)
		}
		candles = append(candles, c)
	}

	if len(candles) == 0 {
		return nil, errs.NewDataError("csv", name, "no candle rows", errs.ErrDataNotFound)
	}
	return candles, nil
}

func isHeaderRow(record []string) bool {
	_, err := strconv.ParseFloat(record[csvFieldOpen], 64)
	return err != nil
}

func parseCandleRecord(record []string) (models.Candle, error) {
	var c models.Candle

	ts, err := parseTimestamp(record[csvFieldTimestamp])
	if err != nil {
		return c, err
	}
	c.Timestamp = ts

	if c.Open, err = strconv.ParseFloat(record[csvFieldOpen], 64); err != nil {
		return c, err
	}
	if c.High, err = strconv.ParseFloat(record[csvFieldHigh], 64); err != nil {
		return c, err
	}
	if c.Low, err = strconv.ParseFloat(record[csvFieldLow], 64); err != nil {
		return c, err
	}
	if c.Close, err = strconv.ParseFloat(record[csvFieldClose], 64); err != nil {
		return c, err
	}
	if c.Volume, err = strconv.ParseInt(record[csvFieldVolume], 10, 64); err != nil {
		return c, err
	}
	if len(record) > csvFieldSpread && record[csvFieldSpread] != "" {
		if c.Spread, err = strconv.ParseFloat(record[csvFieldSpread], 64); err != nil {
			return c, err
		}
	}
	return c, nil
}

func parseTimestamp(field string) (time.Time, error) {
	field = strings.TrimSpace(field)
	if unix, err := strconv.ParseInt(field, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	if ts, err := time.Parse(time.RFC3339, field); err == nil {
		return ts.UTC(), nil
	}
	return time.Parse("2006-01-02 15:04:05", field)
}
