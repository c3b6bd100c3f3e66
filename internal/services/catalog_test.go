package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPricingCatalog_Lookup(t *testing.T) {
	catalog := NewPricingCatalog()

	t.Run("known package", func(t *testing.T) {
		pkg, err := catalog.Lookup("500")
		assert.NoError(t, err)
		assert.Equal(t, int64(500), pkg.BasePremium)
		assert.Equal(t, int64(30), pkg.BonusPercent)
		assert.Equal(t, int64(5000), pkg.PriceCents)
	})

	t.Run("unknown package", func(t *testing.T) {
		_, err := catalog.Lookup("999999")
		assert.ErrorIs(t, err, ErrUnknownPackage)
	})
}

func TestPremiumPackage_TotalPremium(t *testing.T) {
	tests := []struct {
		packageID string
		expected  int64
	}{
		{"50", 50},
		{"100", 100},
		{"300", 300},
		{"500", 650},
		{"700", 910},
		{"1000", 1300},
	}

	catalog := NewPricingCatalog()
	for _, tt := range tests {
		pkg, err := catalog.Lookup(tt.packageID)
		assert.NoError(t, err)
		assert.Equal(t, tt.expected, pkg.TotalPremium(), "package %s", tt.packageID)
	}
}

func TestPricingCatalog_PackagesOrderedByPrice(t *testing.T) {
	packages := NewPricingCatalog().Packages()
	assert.Len(t, packages, 6)
	for i := 1; i < len(packages); i++ {
		assert.Less(t, packages[i-1].PriceCents, packages[i].PriceCents)
	}
}
