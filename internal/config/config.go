// Package config loads a run file: where the data comes from, how the
// engine should execute, and what report to write.
package config

import (
	"errors"
	"fmt"
	"os"

	"quantbt/internal/engine"
	"quantbt/internal/report"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var ErrUnknownModel = errors.New("unknown model name")

// Config mirrors the YAML run file.
type Config struct {
	Data struct {
		DatabaseURL string   `yaml:"database_url"`
		BarsFile    string   `yaml:"bars_file"`
		SignalsFile string   `yaml:"signals_file"`
		Symbols     []string `yaml:"symbols"`
		Start       string   `yaml:"start"`
		End         string   `yaml:"end"`
	} `yaml:"data"`

	Backtest struct {
		InitialCapital  decimal.Decimal `yaml:"initial_capital"`
		AllowFractional *bool           `yaml:"allow_fractional"`
		MarginEnabled   bool            `yaml:"margin_enabled"`
		Slippage        ModelSpec       `yaml:"slippage"`
		Commission      ModelSpec       `yaml:"commission"`
	} `yaml:"backtest"`

	Report struct {
		Format   string   `yaml:"format"`
		Sections []string `yaml:"sections"`
		Title    string   `yaml:"title"`
		Output   string   `yaml:"output"`
	} `yaml:"report"`
}

// ModelSpec names a slippage or commission variant with its parameters.
type ModelSpec struct {
	Name     string          `yaml:"name"`
	Amount   decimal.Decimal `yaml:"amount"`
	Percent  decimal.Decimal `yaml:"percent"`
	PerShare decimal.Decimal `yaml:"per_share"`
	Minimum  decimal.Decimal `yaml:"minimum"`
	Maximum  decimal.Decimal `yaml:"maximum"`
	Base     decimal.Decimal `yaml:"base_impact"`
	Factor   decimal.Decimal `yaml:"volume_factor"`
	Tiers    []TierSpec      `yaml:"tiers"`
}

type TierSpec struct {
	UpperBound *decimal.Decimal `yaml:"upper_bound"`
	Percent    decimal.Decimal  `yaml:"percent"`
}

// Load reads the YAML run file, with DATABASE_URL overriding the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Data.DatabaseURL = v
	}
	if cfg.Report.Format == "" {
		cfg.Report.Format = string(report.FormatJSON)
	}
	return cfg, nil
}

// EngineConfig materializes the backtest block into an engine config.
// Model construction errors (a tier table with no terminal band, an
// unknown model name) surface here, before any data is loaded.
func (c *Config) EngineConfig() (*engine.Config, error) {
	cfg, err := engine.NewConfig(c.Backtest.InitialCapital)
	if err != nil {
		return nil, err
	}
	if c.Backtest.AllowFractional != nil {
		cfg.AllowFractional = *c.Backtest.AllowFractional
	}
	cfg.MarginEnabled = c.Backtest.MarginEnabled

	if cfg.Slippage, err = c.Backtest.Slippage.slippage(); err != nil {
		return nil, err
	}
	if cfg.Commission, err = c.Backtest.Commission.commission(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (m ModelSpec) slippage() (engine.SlippageModel, error) {
	switch m.Name {
	case "", "none":
		return engine.NoSlippage{}, nil
	case "fixed":
		return engine.NewFixedSlippage(m.Amount), nil
	case "percentage":
		return engine.NewPercentageSlippage(m.Percent), nil
	case "volume":
		return engine.NewVolumeSlippage(m.Base, m.Factor), nil
	default:
		return nil, fmt.Errorf("slippage %q: %w", m.Name, ErrUnknownModel)
	}
}

func (m ModelSpec) commission() (engine.CommissionModel, error) {
	switch m.Name {
	case "", "none":
		return engine.NoCommission{}, nil
	case "fixed":
		return engine.NewFixedCommission(m.Amount), nil
	case "per_share":
		return engine.NewPerShareCommission(m.PerShare, m.Minimum, m.Maximum), nil
	case "percentage":
		return engine.NewPercentageCommission(m.Percent), nil
	case "tiered":
		tiers := make([]engine.CommissionTier, len(m.Tiers))
		for i, t := range m.Tiers {
			tiers[i] = engine.CommissionTier{UpperBound: t.UpperBound, Percent: t.Percent}
		}
		return engine.NewTieredCommission(tiers)
	default:
		return nil, fmt.Errorf("commission %q: %w", m.Name, ErrUnknownModel)
	}
}

// ReportConfig materializes the report block.
func (c *Config) ReportConfig() report.Config {
	sections := make([]report.Section, len(c.Report.Sections))
	for i, s := range c.Report.Sections {
		sections[i] = report.Section(s)
	}
	return report.Config{
		Format:   report.Format(c.Report.Format),
		Sections: sections,
		Title:    c.Report.Title,
	}
}
