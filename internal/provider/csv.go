package provider

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"swingwatch/pkg/model"
)

// CSVProvider reads daily bars from <dir>/<SYMBOL>.csv with the header
// Date,Open,High,Low,Close,Volume and dates as YYYY-MM-DD.
type CSVProvider struct {
	dir string
}

// NewCSVProvider creates a provider over a directory of CSV files
func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

func (p *CSVProvider) Name() string { return "csv" }

func (p *CSVProvider) IsAvailable() bool {
	info, err := os.Stat(p.dir)
	return err == nil && info.IsDir()
}

// RateLimit is zero: local files are not rate limited
func (p *CSVProvider) RateLimit() int { return 0 }

func (p *CSVProvider) GetDailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]model.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(p.dir, strings.ToUpper(symbol)+".csv"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrNoData}
	}
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: err}
	}
	defer f.Close()

	candles, err := ReadCSV(f)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", symbol, err)}
	}
	return normalize(candles, from, to), nil
}

// ReadCSV parses Date,Open,High,Low,Close,Volume rows. The header row is
// required; column order follows it.
func ReadCSV(r io.Reader) ([]model.Candle, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, want := range []string{"date", "open", "high", "low", "close", "volume"} {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("missing column %q", want)
		}
	}

	var candles []model.Candle
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		c, err := parseRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func parseRow(rec []string, cols map[string]int) (model.Candle, error) {
	var c model.Candle
	date, err := time.Parse("2006-01-02", rec[cols["date"]])
	if err != nil {
		return c, fmt.Errorf("date: %w", err)
	}
	c.Date = date

	fields := []struct {
		name string
		dst  *float64
	}{
		{"open", &c.Open},
		{"high", &c.High},
		{"low", &c.Low},
		{"close", &c.Close},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(rec[cols[f.name]], 64)
		if err != nil {
			return c, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}

	vol, err := strconv.ParseFloat(rec[cols["volume"]], 64)
	if err != nil {
		return c, fmt.Errorf("volume: %w", err)
	}
	c.Volume = int64(vol)
	return c, nil
}
