package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turchettamarco/gestionale-fisio-sub002/internal/model"
)

func TestResolveFlatKeys(t *testing.T) {
	tests := []struct {
		name     string
		settings model.JSONMap
		expected float64
	}{
		{
			name:     "default_price key",
			settings: model.JSONMap{"default_price_seduta_invoiced": 60.0},
			expected: 60,
		},
		{
			name:     "price key",
			settings: model.JSONMap{"price_seduta_invoiced": 55.0},
			expected: 55,
		},
		{
			name:     "suffix key",
			settings: model.JSONMap{"seduta_invoiced_price": 50.0},
			expected: 50,
		},
		{
			name:     "italian legacy key",
			settings: model.JSONMap{"prezzo_seduta_fattura": 45.0},
			expected: 45,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(model.TreatmentSeduta, model.PriceInvoiced, tt.settings)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolvePrecedence(t *testing.T) {
	// When several shapes coexist the newest wins.
	settings := model.JSONMap{
		"default_price_seduta_cash": 70.0,
		"price_seduta_cash":         60.0,
		"prezzo_seduta_contanti":    50.0,
	}

	assert.Equal(t, 70.0, Resolve(model.TreatmentSeduta, model.PriceCash, settings))
}

func TestResolveFlatBeatsNested(t *testing.T) {
	settings := model.JSONMap{
		"price_seduta_cash": 60.0,
		"prices": map[string]interface{}{
			"seduta_cash": 40.0,
		},
	}

	assert.Equal(t, 60.0, Resolve(model.TreatmentSeduta, model.PriceCash, settings))
}

func TestResolveNestedGroups(t *testing.T) {
	tests := []struct {
		name     string
		settings model.JSONMap
		expected float64
	}{
		{
			name: "short key in prices group",
			settings: model.JSONMap{
				"prices": map[string]interface{}{"macchinario_cash": 25.0},
			},
			expected: 25,
		},
		{
			name: "long key in default_prices group",
			settings: model.JSONMap{
				"default_prices": map[string]interface{}{"price_macchinario_cash": 30.0},
			},
			expected: 30,
		},
		{
			name: "pricing group tried last",
			settings: model.JSONMap{
				"pricing": map[string]interface{}{"macchinario_cash": 20.0},
			},
			expected: 20,
		},
		{
			name: "earlier group wins",
			settings: model.JSONMap{
				"prices":  map[string]interface{}{"macchinario_cash": 25.0},
				"pricing": map[string]interface{}{"macchinario_cash": 99.0},
			},
			expected: 25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(model.TreatmentMacchinario, model.PriceCash, tt.settings)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveValueCoercion(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected float64
	}{
		{"float", 42.5, 42.5},
		{"int", 42, 42},
		{"int64", int64(42), 42},
		{"numeric string", "42.50", 42.5},
		{"garbage string", "quaranta", 0},
		{"bool skipped", true, 0},
		{"nil skipped", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := model.JSONMap{"price_seduta_cash": tt.value}
			assert.Equal(t, tt.expected, Resolve(model.TreatmentSeduta, model.PriceCash, settings))
		})
	}
}

func TestResolveNoMatchReturnsZero(t *testing.T) {
	assert.Equal(t, 0.0, Resolve(model.TreatmentSeduta, model.PriceCash, nil))
	assert.Equal(t, 0.0, Resolve(model.TreatmentSeduta, model.PriceCash, model.JSONMap{}))
	assert.Equal(t, 0.0, Resolve(model.TreatmentSeduta, model.PriceCash, model.JSONMap{
		"price_macchinario_cash": 30.0, // other treatment
	}))
}

func TestEffectiveAmount(t *testing.T) {
	settings := model.JSONMap{"price_seduta_cash": 60.0}

	explicit := 35.0
	appt := &model.Appointment{
		TreatmentType: model.TreatmentSeduta,
		PriceType:     model.PriceCash,
		Amount:        &explicit,
	}
	assert.Equal(t, 35.0, EffectiveAmount(appt, settings))

	// Zero is free-of-charge, not unset.
	zero := 0.0
	appt.Amount = &zero
	assert.Equal(t, 0.0, EffectiveAmount(appt, settings))

	appt.Amount = nil
	assert.Equal(t, 60.0, EffectiveAmount(appt, settings))
}
