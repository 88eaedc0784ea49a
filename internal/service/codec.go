package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/fjod/go_cart/gomarketplace/internal/domain"
)

func encodeItems(items []domain.CartItem) (string, error) {
	if items == nil {
		items = []domain.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshal cart failed: %w", err)
	}
	return string(data), nil
}

// decodeItems parses a persisted blob. Lines without an id, with a quantity
// below 1 or with a negative or non-finite price are dropped and repeated ids are merged into the first
// occurrence, so the result always satisfies the cart invariants.
func decodeItems(raw string) (items []domain.CartItem, repaired bool, err error) {
	if strings.TrimSpace(raw) == "" {
		return []domain.CartItem{}, false, nil
	}

	var decoded []domain.CartItem
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrMalformedPersistedData, err)
	}

	items = make([]domain.CartItem, 0, len(decoded))
	for _, item := range decoded {
		if item.ID == "" || item.Quantity < 1 || !validPrice(item.Price) {
			repaired = true
			continue
		}
		if idx := domain.IndexOf(items, item.ID); idx >= 0 {
			items[idx].Quantity += item.Quantity
			repaired = true
			continue
		}
		items = append(items, item)
	}
	return items, repaired, nil
}

func validPrice(p float64) bool {
	return p >= 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}
