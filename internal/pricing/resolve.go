package pricing

import (
	"strings"

	contractdomain "github.com/openrentals/rentbill/internal/contract/domain"
	invoicedomain "github.com/openrentals/rentbill/internal/invoice/domain"
)

// ResolveMode looks up the pricing mode governing an item under a contract.
//
// Built-in electricity/water rules win over custom services; custom services
// are matched by exact name. ModeNone means the item is not governed by any
// contract rule: no meter fields, amounts left as-is.
func ResolveMode(item invoicedomain.InvoiceItem, contract *contractdomain.Contract, kw KeywordTable) Mode {
	if contract == nil {
		return ModeNone
	}

	if kind, ok := kw.MatchBuiltin(item.Name); ok {
		switch kind {
		case BuiltinElectricity:
			if rule := contract.ServiceFeeConfig.Electricity; rule != nil {
				return modeFromPriceType(rule.PriceType)
			}
		case BuiltinWater:
			if rule := contract.ServiceFeeConfig.Water; rule != nil {
				return modeFromPriceType(rule.PriceType)
			}
		}
		return ModeNone
	}

	name := strings.TrimSpace(item.Name)
	for _, svc := range contract.CustomServices {
		if strings.TrimSpace(svc.Name) == name {
			return modeFromPriceType(svc.PriceType)
		}
	}

	return ModeNone
}
