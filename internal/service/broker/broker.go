package broker

import (
	"github.com/KNICEX/trading-sim/pkg/decimalx"
	"github.com/shopspring/decimal"
)

type FeeType string

const (
	FeeTypePercentage FeeType = "PERCENTAGE"
	FeeTypeFixed      FeeType = "FIXED"
)

type Role string

const (
	RoleMaker Role = "MAKER"
	RoleTaker Role = "TAKER"
)

// Config is one broker catalog entry. The catalog is static and
// immutable at runtime.
type Config struct {
	Id       string
	Name     string
	FeeType  FeeType
	MakerFee decimal.Decimal
	TakerFee decimal.Decimal
}

type Catalog struct {
	brokers []Config
}

func NewCatalog() *Catalog {
	return &Catalog{
		brokers: []Config{
			{
				Id:       "binance",
				Name:     "Binance",
				FeeType:  FeeTypePercentage,
				MakerFee: decimalx.MustFromString("0.001"),
				TakerFee: decimalx.MustFromString("0.001"),
			},
			{
				Id:       "kraken",
				Name:     "Kraken",
				FeeType:  FeeTypePercentage,
				MakerFee: decimalx.MustFromString("0.0016"),
				TakerFee: decimalx.MustFromString("0.0026"),
			},
			{
				Id:       "coinbase",
				Name:     "Coinbase Pro",
				FeeType:  FeeTypePercentage,
				MakerFee: decimalx.MustFromString("0.004"),
				TakerFee: decimalx.MustFromString("0.006"),
			},
			{
				Id:       "fixed_example",
				Name:     "Fixed Fee Broker",
				FeeType:  FeeTypeFixed,
				MakerFee: decimalx.MustFromString("1"),
				TakerFee: decimalx.MustFromString("2"),
			},
		},
	}
}

func (c *Catalog) Brokers() []Config {
	out := make([]Config, len(c.brokers))
	copy(out, c.brokers)
	return out
}

func (c *Catalog) Broker(id string) (Config, bool) {
	for _, b := range c.brokers {
		if b.Id == id {
			return b, true
		}
	}
	return Config{}, false
}

// CalculateFee prices a fill. FIXED brokers charge the rate as a flat
// currency amount; PERCENTAGE brokers charge rate * amount * price.
// Unknown broker ids charge nothing.
func (c *Catalog) CalculateFee(amount, price decimal.Decimal, role Role, brokerId string) decimal.Decimal {
	b, ok := c.Broker(brokerId)
	if !ok {
		return decimal.Zero
	}

	rate := b.TakerFee
	if role == RoleMaker {
		rate = b.MakerFee
	}

	if b.FeeType == FeeTypeFixed {
		return rate
	}
	return amount.Mul(price).Mul(rate)
}
