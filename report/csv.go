// Package report writes the run artifacts: the CSV series for offline
// analysis and the human-readable summary report.
package report

import (
	"encoding/csv"
	"os"
	"strconv"

	"minex/domain/orderbook"
)

// WriteTradesCSV writes seq,buy_id,sell_id,price,qty,aggressor rows.
func WriteTradesCSV(path string, trades []orderbook.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"seq", "buy_id", "sell_id", "price", "qty", "aggressor"}); err != nil {
		return err
	}
	for _, t := range trades {
		aggressor := "B"
		if t.Aggressor == orderbook.Sell {
			aggressor = "S"
		}
		row := []string{
			strconv.FormatUint(t.Sequence, 10),
			strconv.FormatUint(t.BuyOrderID, 10),
			strconv.FormatUint(t.SellOrderID, 10),
			strconv.FormatInt(t.Price, 10),
			strconv.FormatUint(t.Quantity, 10),
			aggressor,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteMidpricesCSV writes idx,midprice rows.
func WriteMidpricesCSV(path string, mids []orderbook.Price) error {
	return writeIndexedSeries(path, "midprice", mids)
}

// WriteSpreadsCSV writes idx,quoted_spread rows.
func WriteSpreadsCSV(path string, spreads []orderbook.Price) error {
	return writeIndexedSeries(path, "quoted_spread", spreads)
}

func writeIndexedSeries(path, column string, series []orderbook.Price) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"idx", column}); err != nil {
		return err
	}
	for i, v := range series {
		if err := w.Write([]string{strconv.Itoa(i), strconv.FormatInt(v, 10)}); err != nil {
			return err
		}
	}
	return w.Error()
}
