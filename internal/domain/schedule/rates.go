package schedule

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// RateTable maps a term length in months to an interest rate percentage.
type RateTable map[int]float64

// ParseRateTable decodes a JSON object such as {"6": 5, "12": "7.5"}.
// Keys must be non-negative integers and rates non-negative numbers;
// numeric strings are accepted for rates.
func ParseRateTable(raw string) (RateTable, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return RateTable{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("rate table: %w", err)
	}
	out := make(RateTable, len(m))
	for k, v := range m {
		months, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil || months < 0 {
			return nil, fmt.Errorf("rate table: invalid month key %q", k)
		}
		var rate float64
		switch x := v.(type) {
		case float64:
			rate = x
		case string:
			rate, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err != nil {
				return nil, fmt.Errorf("rate table: invalid rate %q for %d months", x, months)
			}
		default:
			return nil, fmt.Errorf("rate table: invalid rate for %d months", months)
		}
		if rate < 0 {
			return nil, fmt.Errorf("rate table: negative rate for %d months", months)
		}
		out[months] = rate
	}
	return out, nil
}

// String encodes the table as the JSON stored on loan types.
func (t RateTable) String() string {
	b, _ := json.Marshal(map[int]float64(t))
	return string(b)
}

// Months returns the keys in ascending order.
func (t RateTable) Months() []int {
	out := make([]int, 0, len(t))
	for m := range t {
		out = append(out, m)
	}
	sort.Ints(out)
	return out
}

// Lookup returns the rate for months, falling back to the entry with the
// smallest month count. ok is false only when the table is empty.
func (t RateTable) Lookup(months int) (rate float64, ok bool) {
	if r, found := t[months]; found {
		return r, true
	}
	keys := t.Months()
	if len(keys) == 0 {
		return 0, false
	}
	return t[keys[0]], true
}
