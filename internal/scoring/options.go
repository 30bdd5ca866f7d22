package scoring

import (
	"errors"
	"fmt"
	"strings"
)

// ExtrasPolicy splits the extras component between its sub-factors. Shares should sum to 1.
type ExtrasPolicy struct {
	PortfolioShare     float64 `json:"portfolioShare"`
	ExperienceShare    float64 `json:"experienceShare"`
	AchievementShare   float64 `json:"achievementShare"`
	ExperienceCapYears float64 `json:"experienceCapYears"`
	AchievementCap     float64 `json:"achievementCap"`
}

var DefaultExtrasPolicy = ExtrasPolicy{
	PortfolioShare:     0.3,
	ExperienceShare:    0.3,
	AchievementShare:   0.4,
	ExperienceCapYears: 5,
	AchievementCap:     5,
}

type Options struct {
	Weights    WeightSet
	Curve      PartialCreditCurve
	Thresholds Thresholds
	Extras     ExtrasPolicy

	// NeutralCredit is awarded when the program sets no benchmark for a component.
	NeutralCredit float64
	// MissingLanguageCredit is awarded when no English test is supplied and none is required.
	MissingLanguageCredit float64
	StatsWindowYears      int
	CurrencyRates         map[string]float64
}

func DefaultOptions() Options {
	return Options{
		Weights:               StandardWeights,
		Curve:                 DefaultCurve,
		Thresholds:            DefaultThresholds,
		Extras:                DefaultExtrasPolicy,
		NeutralCredit:         0.5,
		MissingLanguageCredit: 0.2,
		StatsWindowYears:      3,
		CurrencyRates:         DefaultCurrencyRates,
	}
}

// withDefaults fills zero-valued fields from DefaultOptions. Currency rates are
// merged over the defaults.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Weights == (WeightSet{}) {
		o.Weights = d.Weights
	}
	if o.Curve == (PartialCreditCurve{}) {
		o.Curve = d.Curve
	}
	if o.Thresholds == (Thresholds{}) {
		o.Thresholds = d.Thresholds
	}
	if o.Extras == (ExtrasPolicy{}) {
		o.Extras = d.Extras
	}
	if o.NeutralCredit == 0 {
		o.NeutralCredit = d.NeutralCredit
	}
	if o.MissingLanguageCredit == 0 {
		o.MissingLanguageCredit = d.MissingLanguageCredit
	}
	if o.StatsWindowYears == 0 {
		o.StatsWindowYears = d.StatsWindowYears
	}

	rates := make(map[string]float64, len(d.CurrencyRates)+len(o.CurrencyRates))
	for k, v := range d.CurrencyRates {
		rates[k] = v
	}
	for k, v := range o.CurrencyRates {
		rates[strings.ToUpper(k)] = v
	}
	o.CurrencyRates = rates
	return o
}

func (o Options) Validate() error {
	var errs []error
	if err := o.Weights.Validate(); err != nil {
		errs = append(errs, err)
	}
	for _, c := range componentOrder {
		if m := o.Weights.maxFor(c); m != float64(int(m)) {
			errs = append(errs, fmt.Errorf("weight set %q: %s maximum does not rescale to whole points", o.Weights.Name, c))
		}
	}
	if !o.Curve.valid() {
		errs = append(errs, errors.New("partial credit curve needs 0 <= floor <= meetCredit <= 1 and non-negative slope and headroom"))
	}
	if !o.Thresholds.valid() {
		errs = append(errs, fmt.Errorf("thresholds must satisfy 0 < target < safety <= 100, got %d/%d",
			o.Thresholds.Target, o.Thresholds.Safety))
	}
	if o.NeutralCredit < 0 || o.NeutralCredit > 1 {
		errs = append(errs, errors.New("neutral credit must be within [0, 1]"))
	}
	if o.MissingLanguageCredit < 0 || o.MissingLanguageCredit > 1 {
		errs = append(errs, errors.New("missing language credit must be within [0, 1]"))
	}
	if o.StatsWindowYears < 1 {
		errs = append(errs, errors.New("stats window must be at least one year"))
	}
	return errors.Join(errs...)
}
