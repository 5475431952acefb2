package pricing

import (
	"strings"

	"github.com/openrentals/rentbill/internal/config"
)

// BuiltinService names a keyword-matched built-in service kind.
type BuiltinService string

const (
	BuiltinElectricity BuiltinService = "electricity"
	BuiltinWater       BuiltinService = "water"
)

// KeywordTable is the single place where item names are matched against
// localized service keywords. Matching is case-insensitive substring match,
// so "Tiền điện tháng 3" still resolves to electricity.
type KeywordTable struct {
	Electricity []string
	Water       []string
	// Contract lists additional keyword sets that mark an item as a
	// standard contract-origin service without a built-in fee rule
	// (internet, garbage, parking and the like).
	Contract map[string][]string
}

func DefaultKeywords() KeywordTable {
	return KeywordsFromConfig(config.DefaultPricingConfig())
}

func KeywordsFromConfig(cfg config.PricingConfig) KeywordTable {
	return KeywordTable{
		Electricity: cfg.ElectricityKeywords,
		Water:       cfg.WaterKeywords,
		Contract:    cfg.ContractKeywords,
	}
}

// MatchBuiltin resolves an item name to electricity or water.
func (t KeywordTable) MatchBuiltin(name string) (BuiltinService, bool) {
	if matchesAny(name, t.Electricity) {
		return BuiltinElectricity, true
	}
	if matchesAny(name, t.Water) {
		return BuiltinWater, true
	}
	return "", false
}

// MatchKnownService reports whether the name matches any known service
// keyword set, built-in or contract-level.
func (t KeywordTable) MatchKnownService(name string) bool {
	if _, ok := t.MatchBuiltin(name); ok {
		return true
	}
	for _, keywords := range t.Contract {
		if matchesAny(name, keywords) {
			return true
		}
	}
	return false
}

func matchesAny(name string, keywords []string) bool {
	lowered := strings.ToLower(strings.TrimSpace(name))
	if lowered == "" {
		return false
	}
	for _, keyword := range keywords {
		k := strings.ToLower(strings.TrimSpace(keyword))
		if k == "" {
			continue
		}
		if strings.Contains(lowered, k) {
			return true
		}
	}
	return false
}
