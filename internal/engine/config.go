package engine

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNonPositiveCapital = errors.New("initial capital must be positive")
	ErrUnknownSymbol      = errors.New("signal references symbol absent from price data")
	ErrUnsortedSeries     = errors.New("price series must be strictly increasing by date")
)

// ProgressFunc receives (processed, total) bar-date counts during a run.
// The engine itself performs no I/O; callers hook a progress bar here.
type ProgressFunc func(done, total int)

// Config carries everything a run needs besides the market data and the
// signals. Slippage and Commission default to the no-op models.
type Config struct {
	InitialCapital  decimal.Decimal
	Slippage        SlippageModel
	Commission      CommissionModel
	AllowFractional bool
	MarginEnabled   bool
	Progress        ProgressFunc
}

// NewConfig builds a validated config with default models and fractional
// quantities allowed.
func NewConfig(initialCapital decimal.Decimal) (*Config, error) {
	cfg := &Config{
		InitialCapital:  initialCapital,
		AllowFractional: true,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if !c.InitialCapital.IsPositive() {
		return ErrNonPositiveCapital
	}
	return nil
}

func (c *Config) slippage() SlippageModel {
	if c.Slippage == nil {
		return NoSlippage{}
	}
	return c.Slippage
}

func (c *Config) commission() CommissionModel {
	if c.Commission == nil {
		return NoCommission{}
	}
	return c.Commission
}
