package services

import (
	"errors"
	"sort"
)

// ErrUnknownPackage is returned for a package id not in the catalog.
var ErrUnknownPackage = errors.New("unknown premium package")

// PremiumPackage is one purchasable storefront package. Pricing here is
// authoritative; client-supplied amounts are never used.
type PremiumPackage struct {
	ID           string `json:"id"`
	BasePremium  int64  `json:"basePremium"`
	BonusPercent int64  `json:"bonusPercent"`
	PriceCents   int64  `json:"priceCents"`
	Popular      bool   `json:"popular"`
}

// TotalPremium is the credited amount: floor(base + base*bonus/100).
func (p PremiumPackage) TotalPremium() int64 {
	return p.BasePremium + p.BasePremium*p.BonusPercent/100
}

// PricingCatalog maps package ids to their premium amount and price.
type PricingCatalog struct {
	packages map[string]PremiumPackage
}

// NewPricingCatalog builds the storefront catalog. Packages of $50 and
// above carry a 30% premium bonus.
func NewPricingCatalog() *PricingCatalog {
	packages := []PremiumPackage{
		{ID: "50", BasePremium: 50, BonusPercent: 0, PriceCents: 500},
		{ID: "100", BasePremium: 100, BonusPercent: 0, PriceCents: 1000},
		{ID: "300", BasePremium: 300, BonusPercent: 0, PriceCents: 3000},
		{ID: "500", BasePremium: 500, BonusPercent: 30, PriceCents: 5000, Popular: true},
		{ID: "700", BasePremium: 700, BonusPercent: 30, PriceCents: 7000},
		{ID: "1000", BasePremium: 1000, BonusPercent: 30, PriceCents: 10000},
	}

	byID := make(map[string]PremiumPackage, len(packages))
	for _, pkg := range packages {
		byID[pkg.ID] = pkg
	}
	return &PricingCatalog{packages: byID}
}

// Lookup resolves a package id to its server-side pricing.
func (c *PricingCatalog) Lookup(packageID string) (PremiumPackage, error) {
	pkg, ok := c.packages[packageID]
	if !ok {
		return PremiumPackage{}, ErrUnknownPackage
	}
	return pkg, nil
}

// Packages lists the catalog ordered by price for the storefront.
func (c *PricingCatalog) Packages() []PremiumPackage {
	list := make([]PremiumPackage, 0, len(c.packages))
	for _, pkg := range c.packages {
		list = append(list, pkg)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].PriceCents < list[j].PriceCents })
	return list
}
