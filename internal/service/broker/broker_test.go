package broker

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Broker(t *testing.T) {
	catalog := NewCatalog()

	b, ok := catalog.Broker("kraken")
	require.True(t, ok)
	assert.Equal(t, "Kraken", b.Name)
	assert.True(t, b.TakerFee.Equal(decimal.NewFromFloat(0.0026)))

	_, ok = catalog.Broker("unknown")
	assert.False(t, ok)

	assert.Len(t, catalog.Brokers(), 4)
}

func TestCatalog_CalculateFee_Percentage(t *testing.T) {
	catalog := NewCatalog()

	// 1 unit at 1000 with taker fee 0.001 costs exactly 1.0
	fee := catalog.CalculateFee(decimal.NewFromInt(1), decimal.NewFromInt(1000), RoleTaker, "binance")
	assert.True(t, fee.Equal(decimal.NewFromInt(1)), "fee = %s", fee)

	fee = catalog.CalculateFee(decimal.NewFromFloat(0.5), decimal.NewFromInt(40000), RoleMaker, "kraken")
	assert.True(t, fee.Equal(decimal.NewFromInt(32)), "fee = %s", fee)
}

func TestCatalog_CalculateFee_Fixed(t *testing.T) {
	catalog := NewCatalog()

	// Flat fee regardless of notional.
	fee := catalog.CalculateFee(decimal.NewFromInt(100), decimal.NewFromInt(50000), RoleTaker, "fixed_example")
	assert.True(t, fee.Equal(decimal.NewFromInt(2)))

	fee = catalog.CalculateFee(decimal.NewFromInt(100), decimal.NewFromInt(50000), RoleMaker, "fixed_example")
	assert.True(t, fee.Equal(decimal.NewFromInt(1)))
}

func TestCatalog_CalculateFee_UnknownBroker(t *testing.T) {
	catalog := NewCatalog()
	fee := catalog.CalculateFee(decimal.NewFromInt(1), decimal.NewFromInt(1000), RoleTaker, "nope")
	assert.True(t, fee.IsZero())
}
