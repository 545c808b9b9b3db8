// Package pricing resolves default amounts from the practice settings record.
// The record has accumulated several key conventions over the years, so the
// resolver tries each in turn and always comes back with a number.
package pricing

import (
	"fmt"
	"strconv"

	"github.com/turchettamarco/gestionale-fisio-sub002/internal/model"
)

// legacy flat names for price types: "invoiced" was stored as "fattura" and
// "cash" as "contanti" in older settings rows.
var legacyPriceNames = map[model.PriceType]string{
	model.PriceInvoiced: "fattura",
	model.PriceCash:     "contanti",
}

// nested groupings tried after the flat keys, oldest last.
var nestedGroups = []string{"prices", "default_prices", "pricing"}

// Resolve returns the default amount for a treatment/price-type pair. Flat
// legacy key shapes are tried first, then the nested groupings, then 0.
// Stored values may be numbers or numeric strings; anything else is skipped.
func Resolve(treatment model.TreatmentType, price model.PriceType, settings model.JSONMap) float64 {
	if settings == nil {
		return 0
	}

	for _, key := range candidateKeys(treatment, price) {
		if amount, ok := toNumber(settings[key]); ok {
			return amount
		}
	}

	for _, group := range nestedGroups {
		nested, ok := settings[group].(map[string]interface{})
		if !ok {
			continue
		}
		keys := append([]string{fmt.Sprintf("%s_%s", treatment, price)}, candidateKeys(treatment, price)...)
		for _, key := range keys {
			if amount, ok := toNumber(nested[key]); ok {
				return amount
			}
		}
	}

	return 0
}

// EffectiveAmount honors an explicit override first: a set amount always wins
// over the resolver, and zero is a valid free-of-charge value distinct from
// unset.
func EffectiveAmount(appt *model.Appointment, settings model.JSONMap) float64 {
	if appt.Amount != nil {
		return *appt.Amount
	}
	return Resolve(appt.TreatmentType, appt.PriceType, settings)
}

func candidateKeys(treatment model.TreatmentType, price model.PriceType) []string {
	return []string{
		fmt.Sprintf("default_price_%s_%s", treatment, price),
		fmt.Sprintf("price_%s_%s", treatment, price),
		fmt.Sprintf("%s_%s_price", treatment, price),
		fmt.Sprintf("prezzo_%s_%s", treatment, legacyPriceNames[price]),
	}
}

func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
