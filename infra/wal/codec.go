package wal

import (
	"encoding/binary"
	"errors"

	"minex/domain/orderbook"
)

var errShortPayload = errors.New("wal: short payload")

// Request payloads are encoded big-endian with a length-prefixed
// symbol, matching the frame layout of the journal itself.

func EncodeNewOrder(req orderbook.NewOrderRequest) []byte {
	buf := make([]byte, 0, 8+1+1+1+8+8+1+len(req.Symbol))
	buf = binary.BigEndian.AppendUint64(buf, req.ID)
	buf = append(buf, byte(req.Side), byte(req.Type), byte(req.Tif))
	buf = binary.BigEndian.AppendUint64(buf, uint64(req.Price))
	buf = binary.BigEndian.AppendUint64(buf, req.Quantity)
	return appendSymbol(buf, req.Symbol)
}

func DecodeNewOrder(b []byte) (orderbook.NewOrderRequest, error) {
	var req orderbook.NewOrderRequest
	if len(b) < 8+3+8+8+1 {
		return req, errShortPayload
	}
	req.ID = binary.BigEndian.Uint64(b[0:8])
	req.Side = orderbook.Side(b[8])
	req.Type = orderbook.OrderType(b[9])
	req.Tif = orderbook.TimeInForce(b[10])
	req.Price = orderbook.Price(binary.BigEndian.Uint64(b[11:19]))
	req.Quantity = binary.BigEndian.Uint64(b[19:27])
	sym, err := readSymbol(b[27:])
	if err != nil {
		return req, err
	}
	req.Symbol = sym
	return req, nil
}

func EncodeCancel(req orderbook.CancelRequest) []byte {
	buf := make([]byte, 0, 8+1+len(req.Symbol))
	buf = binary.BigEndian.AppendUint64(buf, req.OrderID)
	return appendSymbol(buf, req.Symbol)
}

func DecodeCancel(b []byte) (orderbook.CancelRequest, error) {
	var req orderbook.CancelRequest
	if len(b) < 8+1 {
		return req, errShortPayload
	}
	req.OrderID = binary.BigEndian.Uint64(b[0:8])
	sym, err := readSymbol(b[8:])
	if err != nil {
		return req, err
	}
	req.Symbol = sym
	return req, nil
}

func EncodeAmend(req orderbook.AmendRequest) []byte {
	buf := make([]byte, 0, 8+8+8+1+len(req.Symbol))
	buf = binary.BigEndian.AppendUint64(buf, req.OrderID)
	buf = binary.BigEndian.AppendUint64(buf, uint64(req.NewPrice))
	buf = binary.BigEndian.AppendUint64(buf, req.NewQuantity)
	return appendSymbol(buf, req.Symbol)
}

func DecodeAmend(b []byte) (orderbook.AmendRequest, error) {
	var req orderbook.AmendRequest
	if len(b) < 8+8+8+1 {
		return req, errShortPayload
	}
	req.OrderID = binary.BigEndian.Uint64(b[0:8])
	req.NewPrice = orderbook.Price(binary.BigEndian.Uint64(b[8:16]))
	req.NewQuantity = binary.BigEndian.Uint64(b[16:24])
	sym, err := readSymbol(b[24:])
	if err != nil {
		return req, err
	}
	req.Symbol = sym
	return req, nil
}

func appendSymbol(buf []byte, symbol string) []byte {
	if len(symbol) > 16 {
		symbol = symbol[:16]
	}
	buf = append(buf, byte(len(symbol)))
	return append(buf, symbol...)
}

func readSymbol(b []byte) (string, error) {
	if len(b) < 1 {
		return "", errShortPayload
	}
	n := int(b[0])
	if len(b) < 1+n {
		return "", errShortPayload
	}
	return string(b[1 : 1+n]), nil
}
