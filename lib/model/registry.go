package model

import (
	"fmt"
	"strings"
	"unicode"
)

// Registry interns the accounts and commodities referenced by a
// ledger, so that they can be compared by pointer.
type Registry struct {
	options     *Options
	types       map[string]AccountType
	accounts    map[string]*Account
	commodities map[string]*Commodity
}

// NewRegistry creates a registry with default options.
func NewRegistry() *Registry {
	return NewRegistryWithOptions(DefaultOptions())
}

// NewRegistryWithOptions creates a registry using the configured
// account type names.
func NewRegistryWithOptions(o *Options) *Registry {
	return &Registry{
		options:     o,
		types:       o.typeNames(),
		accounts:    make(map[string]*Account),
		commodities: make(map[string]*Commodity),
	}
}

// Options returns the options this registry was built with.
func (reg *Registry) Options() *Options {
	return reg.options
}

// GetAccount returns the interned account with the given name,
// creating it if necessary.
func (reg *Registry) GetAccount(name string) (*Account, error) {
	if a, ok := reg.accounts[name]; ok {
		return a, nil
	}
	segments := strings.Split(name, ":")
	t, ok := reg.types[segments[0]]
	if !ok {
		return nil, fmt.Errorf("invalid account name %q: unknown account type %q", name, segments[0])
	}
	if len(segments) < 2 {
		return nil, fmt.Errorf("invalid account name %q: missing subaccount", name)
	}
	for _, s := range segments {
		if s == "" {
			return nil, fmt.Errorf("invalid account name %q: empty segment", name)
		}
	}
	a := &Account{accountType: t, name: name}
	reg.accounts[name] = a
	return a, nil
}

// Account returns the interned account or panics on an invalid name.
func (reg *Registry) Account(name string) *Account {
	a, err := reg.GetAccount(name)
	if err != nil {
		panic(err)
	}
	return a
}

// GetCommodity returns the interned commodity with the given name,
// creating it if necessary.
func (reg *Registry) GetCommodity(name string) (*Commodity, error) {
	if c, ok := reg.commodities[name]; ok {
		return c, nil
	}
	if name == "" {
		return nil, fmt.Errorf("invalid commodity name: empty")
	}
	for _, ch := range name {
		if !unicode.IsUpper(ch) && !unicode.IsDigit(ch) && ch != '.' && ch != '_' && ch != '-' {
			return nil, fmt.Errorf("invalid commodity name %q", name)
		}
	}
	c := &Commodity{name: name}
	reg.commodities[name] = c
	return c, nil
}

// Commodity returns the interned commodity or panics on an invalid name.
func (reg *Registry) Commodity(name string) *Commodity {
	c, err := reg.GetCommodity(name)
	if err != nil {
		panic(err)
	}
	return c
}
