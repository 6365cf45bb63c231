package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"solar-battery-sim/internal/model"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML). The API accepts the
// same shape as JSON.
type Config struct {
	// Optional: load battery parameters from a separate YAML (e.g. examples/batteries/*.yaml).
	// If both BatteryFile and Battery are provided, Battery overrides BatteryFile.
	BatteryFile string         `yaml:"battery_file" json:"battery_file,omitempty"`
	Solar       SolarConfig    `yaml:"solar" json:"solar"`
	Battery     BatteryConfig  `yaml:"battery" json:"battery"`
	Tariff      TariffConfig   `yaml:"tariff" json:"tariff"`
	Dispatch    DispatchConfig `yaml:"dispatch" json:"dispatch"`
}

// Numeric settings are pointers: nil means omitted and gets a default,
// while an explicit 0 is kept and either honoured or rejected by Params.
type SolarConfig struct {
	CapacityKW       *float64 `yaml:"capacity_kw" json:"capacity_kw,omitempty"`
	TempCoeff        *float64 `yaml:"temp_coeff" json:"temp_coeff,omitempty"`
	PerformanceRatio *float64 `yaml:"performance_ratio" json:"performance_ratio,omitempty"`
}

type BatteryConfig struct {
	Name                string   `yaml:"name" json:"name,omitempty"`
	CapacityKWh         *float64 `yaml:"capacity_kwh" json:"capacity_kwh,omitempty"`
	RoundTripEfficiency *float64 `yaml:"round_trip_efficiency" json:"round_trip_efficiency,omitempty"`
	InitialSOC          *float64 `yaml:"initial_soc" json:"initial_soc,omitempty"`
	MinSOC              *float64 `yaml:"min_soc" json:"min_soc,omitempty"`
	MaxSOC              *float64 `yaml:"max_soc" json:"max_soc,omitempty"`

	// 0 disables that direction.
	MaxChargeKW    *float64 `yaml:"max_charge_kw" json:"max_charge_kw,omitempty"`
	MaxDischargeKW *float64 `yaml:"max_discharge_kw" json:"max_discharge_kw,omitempty"`
}

type WindowConfig struct {
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

type ImportPriceConfig struct {
	Source    string  `yaml:"source" json:"source,omitempty"` // "tou" or "spot"
	Offpeak   float64 `yaml:"offpeak" json:"offpeak,omitempty"`
	Peak      float64 `yaml:"peak" json:"peak,omitempty"`
	Shoulder  float64 `yaml:"shoulder" json:"shoulder,omitempty"`
	SpotScale float64 `yaml:"spot_scale" json:"spot_scale,omitempty"`
}

type TariffConfig struct {
	Offpeak     WindowConfig      `yaml:"offpeak" json:"offpeak"`
	Peak        WindowConfig      `yaml:"peak" json:"peak"`
	ImportPrice ImportPriceConfig `yaml:"import_price" json:"import_price"`
	ExportPrice float64           `yaml:"export_price" json:"export_price"`
}

type DispatchConfig struct {
	Name           string         `yaml:"name" json:"name"`
	PriceThreshold *float64       `yaml:"price_threshold" json:"price_threshold,omitempty"`
	Params         map[string]any `yaml:"params" json:"params,omitempty"`
}

// Defaults applied by ApplyDefaults.
const (
	DefaultSolarKW          = 5.0
	DefaultTempCoeff        = -0.004
	DefaultPerformanceRatio = 1.0
	DefaultCapacityKWh      = 10.0
	DefaultEfficiency       = 0.95
	DefaultInitialSOC       = 0.5
	DefaultMinSOC           = 0.0
	DefaultMaxSOC           = 1.0
	DefaultSpotScale        = 1.0
)

var (
	DefaultOffpeak = WindowConfig{Start: "22:00", End: "06:00"}
	DefaultPeak    = WindowConfig{Start: "17:00", End: "21:00"}
)

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	// Relative battery_file paths are read from the config file directory
	// first, then from the working directory.
	if err := c.ResolveBatteryFile(filepath.Dir(path), "."); err != nil {
		return nil, err
	}
	return c, nil
}

// Parse decodes a YAML document. JSON is a subset of YAML, so it works too.
func Parse(raw []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ResolveBatteryFile loads c.BatteryFile, if set, from the first directory
// in dirs that has it and merges c.Battery on top. A bare preset name like
// "home_10kwh" also matches "home_10kwh.yaml". BatteryFile is cleared once
// merged.
func (c *Config) ResolveBatteryFile(dirs ...string) error {
	if c.BatteryFile == "" {
		return nil
	}
	path, err := findBatteryFile(c.BatteryFile, dirs)
	if err != nil {
		return err
	}
	loaded, err := LoadBatteryFile(path)
	if err != nil {
		return err
	}
	c.Battery = MergeBattery(loaded, c.Battery)
	c.BatteryFile = ""
	return nil
}

func findBatteryFile(name string, dirs []string) (string, error) {
	candidates := []string{name}
	if filepath.Ext(name) == "" {
		candidates = append(candidates, name+".yaml", name+".yml")
	}
	if filepath.IsAbs(name) {
		dirs = []string{""}
	}
	for _, dir := range dirs {
		for _, cand := range candidates {
			p := filepath.Join(dir, cand)
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
	}
	return "", &model.ConfigError{Field: "battery_file", Reason: fmt.Sprintf("%q not found", name)}
}

// ApplyDefaults fills every omitted setting.
func (c *Config) ApplyDefaults() {
	setDefault(&c.Solar.CapacityKW, DefaultSolarKW)
	setDefault(&c.Solar.TempCoeff, DefaultTempCoeff)
	setDefault(&c.Solar.PerformanceRatio, DefaultPerformanceRatio)

	b := &c.Battery
	setDefault(&b.CapacityKWh, DefaultCapacityKWh)
	setDefault(&b.RoundTripEfficiency, DefaultEfficiency)
	setDefault(&b.InitialSOC, DefaultInitialSOC)
	setDefault(&b.MinSOC, DefaultMinSOC)
	setDefault(&b.MaxSOC, DefaultMaxSOC)
	// 0.5C when the inverter rating is not given.
	setDefault(&b.MaxChargeKW, *b.CapacityKWh/2)
	setDefault(&b.MaxDischargeKW, *b.CapacityKWh/2)

	t := &c.Tariff
	if t.Offpeak == (WindowConfig{}) {
		t.Offpeak = DefaultOffpeak
	}
	if t.Peak == (WindowConfig{}) {
		t.Peak = DefaultPeak
	}
	if t.ImportPrice.Source == "" {
		t.ImportPrice.Source = string(model.PriceSourceSpot)
	}
	if t.ImportPrice.SpotScale == 0 {
		t.ImportPrice.SpotScale = DefaultSpotScale
	}

	if c.Dispatch.Name == "" {
		c.Dispatch.Name = string(model.StrategyTOUVPP)
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	_, err := c.Params()
	return err
}

// Params applies defaults to a copy of c and converts it into validated
// simulation parameters. Every failure is a *model.ConfigError.
func (c Config) Params() (model.SimulationParams, error) {
	if c.BatteryFile != "" {
		return model.SimulationParams{}, model.ConfigErrorf("battery_file", "%q was not resolved", c.BatteryFile)
	}
	c.ApplyDefaults()

	offpeak, err := model.ParseWindow(c.Tariff.Offpeak.Start, c.Tariff.Offpeak.End)
	if err != nil {
		return model.SimulationParams{}, &model.ConfigError{Field: "tariff.offpeak", Reason: err.Error()}
	}
	peak, err := model.ParseWindow(c.Tariff.Peak.Start, c.Tariff.Peak.End)
	if err != nil {
		return model.SimulationParams{}, &model.ConfigError{Field: "tariff.peak", Reason: err.Error()}
	}

	name := model.StrategyName(strings.TrimSpace(c.Dispatch.Name))
	threshold := 0.0
	switch {
	case c.Dispatch.PriceThreshold != nil:
		threshold = *c.Dispatch.PriceThreshold
	case name == model.StrategyTOUVPP:
		return model.SimulationParams{}, model.ConfigErrorf("dispatch.price_threshold", "required for %s", name)
	}

	p := model.SimulationParams{
		Solar: model.SolarParams{
			CapacityKW:       *c.Solar.CapacityKW,
			TempCoeff:        *c.Solar.TempCoeff,
			PerformanceRatio: *c.Solar.PerformanceRatio,
		},
		Battery: c.Battery.ToModelParams(),
		Tariff: model.TariffParams{
			Offpeak:      offpeak,
			Peak:         peak,
			ImportSource: model.PriceSource(strings.ToLower(c.Tariff.ImportPrice.Source)),
			OffpeakRate:  c.Tariff.ImportPrice.Offpeak,
			PeakRate:     c.Tariff.ImportPrice.Peak,
			ShoulderRate: c.Tariff.ImportPrice.Shoulder,
			SpotScale:    c.Tariff.ImportPrice.SpotScale,
			ExportRate:   c.Tariff.ExportPrice,
		},
		Dispatch: model.DispatchParams{
			Strategy:       name,
			PriceThreshold: threshold,
			Options:        c.Dispatch.Params,
		},
	}
	if err := p.Validate(); err != nil {
		return model.SimulationParams{}, err
	}
	return p, nil
}

// ToModelParams converts b as is, reading omitted fields as 0; call
// ApplyDefaults first for a complete battery.
func (b BatteryConfig) ToModelParams() model.BatteryParams {
	return model.BatteryParams{
		Name:                b.Name,
		CapacityKWh:         deref(b.CapacityKWh),
		RoundTripEfficiency: deref(b.RoundTripEfficiency),
		InitialSOC:          deref(b.InitialSOC),
		MinSOC:              deref(b.MinSOC),
		MaxSOC:              deref(b.MaxSOC),
		MaxChargeKW:         deref(b.MaxChargeKW),
		MaxDischargeKW:      deref(b.MaxDischargeKW),
	}
}

type batteryFileWrapper struct {
	Battery BatteryConfig `yaml:"battery"`
}

// LoadBatteryFile reads a battery preset (a YAML document with a top-level
// "battery" key).
func LoadBatteryFile(path string) (BatteryConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return BatteryConfig{}, err
	}
	var w batteryFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return BatteryConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return w.Battery, nil
}

// MergeBattery overlays the set fields of override onto base, including
// explicit zeros. This is used when loading a battery file and then
// applying overrides from the request.
func MergeBattery(base, override BatteryConfig) BatteryConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	overlay(&out.CapacityKWh, override.CapacityKWh)
	overlay(&out.RoundTripEfficiency, override.RoundTripEfficiency)
	overlay(&out.InitialSOC, override.InitialSOC)
	overlay(&out.MinSOC, override.MinSOC)
	overlay(&out.MaxSOC, override.MaxSOC)
	overlay(&out.MaxChargeKW, override.MaxChargeKW)
	overlay(&out.MaxDischargeKW, override.MaxDischargeKW)
	return out
}

// Merge overlays the set fields of override onto base. Scenario
// comparisons use it to express each variation as a diff.
func Merge(base, override Config) Config {
	out := base
	if override.BatteryFile != "" {
		out.BatteryFile = override.BatteryFile
	}
	out.Battery = MergeBattery(base.Battery, override.Battery)

	overlay(&out.Solar.CapacityKW, override.Solar.CapacityKW)
	overlay(&out.Solar.TempCoeff, override.Solar.TempCoeff)
	overlay(&out.Solar.PerformanceRatio, override.Solar.PerformanceRatio)

	if override.Tariff.Offpeak != (WindowConfig{}) {
		out.Tariff.Offpeak = override.Tariff.Offpeak
	}
	if override.Tariff.Peak != (WindowConfig{}) {
		out.Tariff.Peak = override.Tariff.Peak
	}
	ip := override.Tariff.ImportPrice
	if ip.Source != "" {
		out.Tariff.ImportPrice.Source = ip.Source
	}
	if ip.Offpeak != 0 {
		out.Tariff.ImportPrice.Offpeak = ip.Offpeak
	}
	if ip.Peak != 0 {
		out.Tariff.ImportPrice.Peak = ip.Peak
	}
	if ip.Shoulder != 0 {
		out.Tariff.ImportPrice.Shoulder = ip.Shoulder
	}
	if ip.SpotScale != 0 {
		out.Tariff.ImportPrice.SpotScale = ip.SpotScale
	}
	if override.Tariff.ExportPrice != 0 {
		out.Tariff.ExportPrice = override.Tariff.ExportPrice
	}

	if override.Dispatch.Name != "" && override.Dispatch.Name != base.Dispatch.Name {
		// A different strategy does not inherit the base's params.
		out.Dispatch = DispatchConfig{Name: override.Dispatch.Name, PriceThreshold: base.Dispatch.PriceThreshold}
	}
	if override.Dispatch.PriceThreshold != nil {
		out.Dispatch.PriceThreshold = override.Dispatch.PriceThreshold
	}
	if len(override.Dispatch.Params) > 0 {
		params := make(map[string]any, len(out.Dispatch.Params)+len(override.Dispatch.Params))
		for k, v := range out.Dispatch.Params {
			params[k] = v
		}
		for k, v := range override.Dispatch.Params {
			params[k] = v
		}
		out.Dispatch.Params = params
	}
	return out
}

func ptr(v float64) *float64 { return &v }

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func setDefault(dst **float64, v float64) {
	if *dst == nil {
		*dst = ptr(v)
	}
}

func overlay(dst **float64, v *float64) {
	if v != nil {
		*dst = v
	}
}
