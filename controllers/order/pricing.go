package orderControllers

import (
	"os"

	"github.com/shopspring/decimal"
)

// PricingConfig carries the charge rules applied when an order is
// assembled. Values come from the environment so deployments can tune
// them without a rebuild.
type PricingConfig struct {
	TaxRate               decimal.Decimal // fraction of subtotal, e.g. 0.10
	FreeShippingThreshold decimal.Decimal // subtotal at or above this ships free
	FlatShippingCost      decimal.Decimal // charged below the threshold
}

// DefaultPricing returns the built-in rates: 10% tax, free shipping
// from $100, $10.00 flat shipping below that.
func DefaultPricing() PricingConfig {
	return PricingConfig{
		TaxRate:               decimal.NewFromFloat(0.10),
		FreeShippingThreshold: decimal.NewFromInt(100),
		FlatShippingCost:      decimal.NewFromInt(10),
	}
}

// PricingFromEnv reads TAX_RATE, FREE_SHIPPING_THRESHOLD and
// FLAT_SHIPPING_COST, falling back to the defaults for anything unset
// or unparseable.
func PricingFromEnv() PricingConfig {
	cfg := DefaultPricing()
	if v := os.Getenv("TAX_RATE"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			cfg.TaxRate = d
		}
	}
	if v := os.Getenv("FREE_SHIPPING_THRESHOLD"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			cfg.FreeShippingThreshold = d
		}
	}
	if v := os.Getenv("FLAT_SHIPPING_COST"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			cfg.FlatShippingCost = d
		}
	}
	return cfg
}

// ShippingCost applies the free-shipping threshold to a subtotal.
func (cfg PricingConfig) ShippingCost(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(cfg.FreeShippingThreshold) {
		return decimal.Zero
	}
	return cfg.FlatShippingCost
}

// Tax rounds subtotal × rate to two decimal places.
func (cfg PricingConfig) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(cfg.TaxRate).Round(2)
}
