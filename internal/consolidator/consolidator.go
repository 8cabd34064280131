// Package consolidator collapses credit-card settlement lines. Properties
// report the same settlement from multiple sources; this stage removes the
// duplicate totals, nets each card brand, and adds the property's deposit
// account entry for the net amount.
package consolidator

import (
	"github.com/shopspring/decimal"

	"wrh/nightaudit/internal/logging"
	"wrh/nightaudit/internal/models"
)

var log = logging.GetLogger()

// SetLogger allows setting a configured logger.
func SetLogger(logger logging.Logger) {
	if logger == nil {
		return
	}
	log = logger
}

// Consolidate runs after mapping and before report aggregation. Its output
// still conforms to MappedRecord, so the assembler is unaware of it.
func Consolidate(records []models.MappedRecord, cfg models.PropertyConfig) []models.MappedRecord {
	var out []models.MappedRecord
	seen := make(map[string]bool)
	netByBrand := make(map[string]decimal.Decimal)
	var brandOrder []string

	for _, r := range records {
		if r.PaymentMethod == "" {
			out = append(out, r)
			continue
		}

		// Duplicate totals: the same settlement reported by more than one
		// source row. Brand plus amount identifies the settlement.
		dupKey := r.PaymentMethod + "|" + r.MappedAmount.String()
		if seen[dupKey] {
			log.Info("Removing duplicate credit-card settlement",
				logging.Field{Key: logging.FieldBrand, Value: r.PaymentMethod},
				logging.Field{Key: logging.FieldAmount, Value: r.MappedAmount.String()},
				logging.Field{Key: logging.FieldDescription, Value: r.SourceDescription})
			continue
		}
		seen[dupKey] = true

		if _, ok := netByBrand[r.PaymentMethod]; !ok {
			brandOrder = append(brandOrder, r.PaymentMethod)
		}
		netByBrand[r.PaymentMethod] = netByBrand[r.PaymentMethod].Add(r.MappedAmount)
		out = append(out, r)
	}

	if len(brandOrder) == 0 {
		return out
	}

	if cfg.CreditCardDepositAccount == "" {
		log.Warn("Property has no credit-card deposit account configured, skipping deposit entries",
			logging.Field{Key: logging.FieldProperty, Value: cfg.PropertyName})
		return out
	}

	for _, brand := range brandOrder {
		net := netByBrand[brand]
		if net.IsZero() {
			continue
		}
		out = append(out, models.MappedRecord{
			SourceCode:        brand,
			SourceDescription: brand + " Net Deposit",
			SourceAmount:      net,
			TargetCode:        cfg.CreditCardDepositAccount,
			TargetDescription: cfg.PropertyName + " CC Deposit",
			MappedAmount:      net,
			PaymentMethod:     brand,
			PropertyID:        propertyIDOf(records),
		})
		log.Info("Generated credit-card deposit entry",
			logging.Field{Key: logging.FieldBrand, Value: brand},
			logging.Field{Key: logging.FieldAmount, Value: net.String()},
			logging.Field{Key: logging.FieldProperty, Value: cfg.PropertyName})
	}
	return out
}

func propertyIDOf(records []models.MappedRecord) string {
	for _, r := range records {
		if r.PropertyID != "" {
			return r.PropertyID
		}
	}
	return ""
}
