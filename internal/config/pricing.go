package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PricingConfig carries the contract-pricing rules that are not derivable
// from the database: the keyword table used to classify built-in services
// by localized name, and the grace period applied when an invoice is loaded
// with a due date already in the past.
type PricingConfig struct {
	DueDateGraceDays    int                 `mapstructure:"dueDateGraceDays"`
	ElectricityKeywords []string            `mapstructure:"electricityKeywords"`
	WaterKeywords       []string            `mapstructure:"waterKeywords"`
	ContractKeywords    map[string][]string `mapstructure:"contractKeywords"`
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		DueDateGraceDays:    5,
		ElectricityKeywords: []string{"điện", "dien", "electricity", "electric"},
		WaterKeywords:       []string{"nước", "nuoc", "water"},
		ContractKeywords: map[string][]string{
			"internet": {"internet", "wifi"},
			"garbage":  {"rác", "rac", "garbage", "trash"},
			"parking":  {"gửi xe", "gui xe", "parking"},
		},
	}
}

// PricingConfigHolder stores the live PricingConfig and hot-reloads it
// when the backing file changes.
type PricingConfigHolder struct {
	current atomic.Value // holds PricingConfig
}

func NewPricingConfigHolder() (*PricingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/rentbill/config") // Volume-mounted config
	v.AddConfigPath("/etc/rentbill")            // System config
	v.AddConfigPath(".")                        // Current directory (dev mode)

	v.SetEnvPrefix("RENTBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultPricingConfig()
		v.SetDefault("pricing.dueDateGraceDays", defaults.DueDateGraceDays)
		v.SetDefault("pricing.electricityKeywords", defaults.ElectricityKeywords)
		v.SetDefault("pricing.waterKeywords", defaults.WaterKeywords)
		v.SetDefault("pricing.contractKeywords", defaults.ContractKeywords)
	}

	var cfg PricingConfig
	if err := v.UnmarshalKey("pricing", &cfg); err != nil {
		return nil, err
	}
	if err := validatePricingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PricingConfig
		if err := v.UnmarshalKey("pricing", &updated); err != nil {
			log.Printf("[pricing-config] reload failed: %v", err)
			return
		}
		if err := validatePricingConfig(updated); err != nil {
			log.Printf("[pricing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[pricing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticPricingConfigHolder wraps a fixed config, for tests.
func NewStaticPricingConfigHolder(cfg PricingConfig) *PricingConfigHolder {
	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *PricingConfigHolder) Get() PricingConfig {
	return h.current.Load().(PricingConfig)
}

func validatePricingConfig(cfg PricingConfig) error {
	if cfg.DueDateGraceDays <= 0 {
		return errors.New("pricing.dueDateGraceDays must be positive")
	}
	if len(cfg.ElectricityKeywords) == 0 {
		return errors.New("pricing.electricityKeywords cannot be empty")
	}
	if len(cfg.WaterKeywords) == 0 {
		return errors.New("pricing.waterKeywords cannot be empty")
	}
	return nil
}
