// Package feed supplies candle series to the engine: CSV files on disk,
// historical klines over REST, and timeframe resampling. The feed is the
// collaborator boundary; everything downstream assumes validated,
// ascending candles.
package feed

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/quantforge/tradecore/model"
)

var csvHeader = []string{"time", "open", "high", "low", "close", "volume"}

// LoadCSV reads candles from a CSV file with a
// time,open,high,low,close,volume header. Time is unix seconds. The series
// is validated before being returned.
func LoadCSV(path string) ([]model.Candle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candle file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read candle file %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("candle file %s has no data rows", path)
	}

	candles := make([]model.Candle, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(csvHeader) {
			return nil, fmt.Errorf("candle file %s row %d: want %d columns, got %d", path, i+2, len(csvHeader), len(row))
		}

		values := make([]float64, len(row))
		for j, cell := range row {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("candle file %s row %d column %s: %w", path, i+2, csvHeader[j], err)
			}
			values[j] = v
		}

		candles = append(candles, model.Candle{
			Time:   time.Unix(int64(values[0]), 0).UTC(),
			Open:   values[1],
			High:   values[2],
			Low:    values[3],
			Close:  values[4],
			Volume: values[5],
		})
	}

	if err := model.ValidateCandles(candles); err != nil {
		return nil, fmt.Errorf("candle file %s: %w", path, err)
	}

	return candles, nil
}

// SaveCSV writes candles in the same format LoadCSV reads.
func SaveCSV(path string, candles []model.Candle) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create candle file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, c := range candles {
		row := []string{
			strconv.FormatInt(c.Time.Unix(), 10),
			strconv.FormatFloat(c.Open, 'f', -1, 64),
			strconv.FormatFloat(c.High, 'f', -1, 64),
			strconv.FormatFloat(c.Low, 'f', -1, 64),
			strconv.FormatFloat(c.Close, 'f', -1, 64),
			strconv.FormatFloat(c.Volume, 'f', -1, 64),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
