package repository

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"quantbt/types"

	"github.com/shopspring/decimal"
)

// CSV feeds cover fixture and offline runs. Bars:
// symbol,date,open,high,low,close,volume. Signals:
// date,symbol,side,quantity[,reason]. Both with a header row.

// ReadBarsCSV parses bars from r and groups them by symbol.
func ReadBarsCSV(r io.Reader) (map[string][]types.Bar, error) {
	records, err := readAll(r)
	if err != nil {
		return nil, err
	}
	priceData := make(map[string][]types.Bar)
	for i, rec := range records {
		if len(rec) != 7 {
			return nil, fmt.Errorf("bar row %d: want 7 fields, got %d", i+2, len(rec))
		}
		day, err := time.Parse("2006-01-02", rec[1])
		if err != nil {
			return nil, fmt.Errorf("bar row %d: %w", i+2, err)
		}
		prices := make([]decimal.Decimal, 4)
		for j, field := range rec[2:6] {
			prices[j], err = decimal.NewFromString(field)
			if err != nil {
				return nil, fmt.Errorf("bar row %d: %w", i+2, err)
			}
		}
		volume, err := strconv.ParseInt(rec[6], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bar row %d volume: %w", i+2, err)
		}
		symbol := rec[0]
		priceData[symbol] = append(priceData[symbol],
			types.NewBar(symbol, day, prices[0], prices[1], prices[2], prices[3], volume))
	}
	return priceData, nil
}

// ReadSignalsCSV parses signals from r in file order.
func ReadSignalsCSV(r io.Reader) ([]types.Signal, error) {
	records, err := readAll(r)
	if err != nil {
		return nil, err
	}
	var signals []types.Signal
	for i, rec := range records {
		if len(rec) < 4 {
			return nil, fmt.Errorf("signal row %d: want at least 4 fields, got %d", i+2, len(rec))
		}
		day, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			return nil, fmt.Errorf("signal row %d: %w", i+2, err)
		}
		quantity, err := decimal.NewFromString(rec[3])
		if err != nil {
			return nil, fmt.Errorf("signal row %d: %w", i+2, err)
		}
		reason := ""
		if len(rec) > 4 {
			reason = rec[4]
		}
		signals = append(signals, types.NewSignal(rec[1], types.Side(rec[2]), quantity, reason, day))
	}
	return signals, nil
}

func LoadBarsFile(path string) (map[string][]types.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars file: %w", err)
	}
	defer f.Close()
	return ReadBarsCSV(f)
}

func LoadSignalsFile(path string) ([]types.Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open signals file: %w", err)
	}
	defer f.Close()
	return ReadSignalsCSV(f)
}

// readAll consumes the reader and drops the header row.
func readAll(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}
