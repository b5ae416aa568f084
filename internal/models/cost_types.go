package models

import (
	"math"
	"sort"
)

// CostForecast totals the monthly prices of one currency over common horizons.
type CostForecast struct {
	Currency      string  `json:"currency"`
	Subscriptions int     `json:"subscriptions"`
	Monthly       float64 `json:"monthly"`
	SixMonths     float64 `json:"sixMonths"`
	Yearly        float64 `json:"yearly"`
}

// ForecastCosts groups subscriptions by currency; amounts are never converted between currencies.
func ForecastCosts(subs []Subscription) []CostForecast {
	byCurrency := make(map[string]*CostForecast)
	for _, sub := range subs {
		f, ok := byCurrency[sub.Currency]
		if !ok {
			f = &CostForecast{Currency: sub.Currency}
			byCurrency[sub.Currency] = f
		}
		f.Subscriptions++
		f.Monthly += sub.Price
	}

	out := make([]CostForecast, 0, len(byCurrency))
	for _, f := range byCurrency {
		monthly := f.Monthly
		f.Monthly = roundCents(monthly)
		f.SixMonths = roundCents(monthly * 6)
		f.Yearly = roundCents(monthly * 12)
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
