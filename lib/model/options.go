package model

import (
	"fmt"

	"gopkg.in/yaml.v2"
)

// Options holds the loader-level settings of a ledger, most notably
// the configured root names of the five account types.
type Options struct {
	NameAssets          string   `yaml:"name_assets"`
	NameLiabilities     string   `yaml:"name_liabilities"`
	NameEquity          string   `yaml:"name_equity"`
	NameIncome          string   `yaml:"name_income"`
	NameExpenses        string   `yaml:"name_expenses"`
	OperatingCurrencies []string `yaml:"operating_currencies"`
}

// DefaultOptions returns the standard account type names.
func DefaultOptions() *Options {
	return &Options{
		NameAssets:      "Assets",
		NameLiabilities: "Liabilities",
		NameEquity:      "Equity",
		NameIncome:      "Income",
		NameExpenses:    "Expenses",
	}
}

// ParseOptions decodes options from a YAML document, filling absent
// fields with defaults.
func ParseOptions(text []byte) (*Options, error) {
	res := DefaultOptions()
	if err := yaml.UnmarshalStrict(text, res); err != nil {
		return nil, fmt.Errorf("parsing options: %w", err)
	}
	for _, name := range []string{res.NameAssets, res.NameLiabilities, res.NameEquity, res.NameIncome, res.NameExpenses} {
		if name == "" {
			return nil, fmt.Errorf("parsing options: empty account type name")
		}
	}
	return res, nil
}

// typeNames maps the configured root segment to its account type.
func (o *Options) typeNames() map[string]AccountType {
	return map[string]AccountType{
		o.NameAssets:      ASSETS,
		o.NameLiabilities: LIABILITIES,
		o.NameEquity:      EQUITY,
		o.NameIncome:      INCOME,
		o.NameExpenses:    EXPENSES,
	}
}
