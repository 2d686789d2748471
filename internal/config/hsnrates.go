package config

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	taxdomain "github.com/craftline/salesdesk/internal/tax/domain"
)

// HSNRatesHolder holds the classification rate table, reloading it when the
// hsnrates config file changes. Falls back to the compiled-in table when no
// file is present.
type HSNRatesHolder struct {
	current atomic.Value // holds *taxdomain.RateTable
}

type hsnRatesFile struct {
	Rates  map[string]float64                `mapstructure:"rates"`
	TaxIds map[string]taxdomain.FamilyTaxIDs `mapstructure:"taxIds"`
}

// NewHSNRatesHolder reads hsnrates.yml and keeps it hot-reloaded.
func NewHSNRatesHolder() (*HSNRatesHolder, error) {
	v := viper.New()

	v.SetConfigName("hsnrates")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/salesdesk/config") // Volume-mounted config
	v.AddConfigPath("/etc/salesdesk")            // System config
	v.AddConfigPath(".")                         // Current directory (dev mode)

	v.SetEnvPrefix("SALESDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		v.SetDefault("hsn.rates", taxdomain.DefaultRates())
	}

	table, err := unmarshalRates(v)
	if err != nil {
		return nil, err
	}

	holder := &HSNRatesHolder{}
	holder.current.Store(table)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := unmarshalRates(v)
		if err != nil {
			log.Printf("[hsnrates] reload failed: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[hsnrates] reloaded from %s", e.Name)
	})

	return holder, nil
}

// Table returns the current classification rate table.
func (h *HSNRatesHolder) Table() *taxdomain.RateTable {
	return h.current.Load().(*taxdomain.RateTable)
}

func unmarshalRates(v *viper.Viper) (*taxdomain.RateTable, error) {
	var cfg hsnRatesFile
	if err := v.UnmarshalKey("hsn", &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Rates) == 0 {
		cfg.Rates = taxdomain.DefaultRates()
	}
	return taxdomain.NewRateTable(cfg.Rates, cfg.TaxIds), nil
}
