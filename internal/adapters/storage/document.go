package storage

import (
	"encoding/json"
	"fmt"

	"github.com/alejandrodnm/dexsniper/internal/domain"
)

// encodeDocument serializa el documento sin trades; el historial se guarda aparte.
func encodeDocument(doc domain.TokenDocument) ([]byte, error) {
	doc.Trades = nil
	doc.LastTrade = nil
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document %s: %w", doc.TokenAddress, err)
	}
	return data, nil
}

func decodeDocument(data []byte) (domain.TokenDocument, error) {
	var doc domain.TokenDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.TokenDocument{}, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

func encodeTrade(tr domain.TradeRecord) ([]byte, error) {
	data, err := json.Marshal(tr)
	if err != nil {
		return nil, fmt.Errorf("encode trade: %w", err)
	}
	return data, nil
}

func decodeTrade(data []byte) (domain.TradeRecord, error) {
	var tr domain.TradeRecord
	if err := json.Unmarshal(data, &tr); err != nil {
		return domain.TradeRecord{}, fmt.Errorf("decode trade: %w", err)
	}
	return tr, nil
}

// withTrades adjunta el historial y apunta LastTrade al último.
func withTrades(doc *domain.TokenDocument, trades []domain.TradeRecord) {
	doc.Trades = trades
	doc.LastTrade = nil
	if n := len(trades); n > 0 {
		last := trades[n-1]
		doc.LastTrade = &last
	}
}
