package scoring

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FinancialFit compares a program's net annual cost against a student's budget, in USD.
type FinancialFit struct {
	CoveredByBudget         bool     `json:"covered_by_budget"`
	NeedsScholarship        bool     `json:"needs_scholarship"`
	AnnualCostUSD           float64  `json:"annual_cost_usd"`
	NetCostUSD              float64  `json:"net_cost_usd"`
	BudgetUSD               float64  `json:"budget_usd"`
	ShortfallUSD            float64  `json:"shortfall_usd"`
	BestScholarshipCoverage *float64 `json:"best_scholarship_coverage"`
	TuitionCurrency         string   `json:"tuition_currency"`
}

// DefaultCurrencyRates are USD per unit of currency.
var DefaultCurrencyRates = map[string]float64{
	"USD": 1,
	"EUR": 1.08,
	"GBP": 1.27,
	"CAD": 0.74,
	"AUD": 0.66,
	"NZD": 0.61,
	"CHF": 1.13,
	"SEK": 0.095,
	"NOK": 0.094,
	"DKK": 0.145,
	"PLN": 0.25,
	"CZK": 0.043,
	"JPY": 0.0067,
	"KRW": 0.00073,
	"CNY": 0.14,
	"HKD": 0.13,
	"SGD": 0.74,
	"MYR": 0.21,
	"TRY": 0.031,
	"KZT": 0.0021,
	"RUB": 0.011,
}

var hundred = decimal.NewFromInt(100)

// financialFit returns nil when there is no budget, no tuition, or the tuition
// currency has no known rate.
func (s *Scorer) financialFit(p StudentProfile, r ProgramRequirements) *FinancialFit {
	if p.BudgetUSD == nil || r.TuitionAmount == nil {
		return nil
	}

	currency := strings.ToUpper(strings.TrimSpace(r.TuitionCurrency))
	if currency == "" {
		currency = "USD"
	}
	rate, ok := s.opts.CurrencyRates[currency]
	if !ok || rate <= 0 {
		return nil
	}

	annual := decimal.NewFromFloat(*r.TuitionAmount).Mul(decimal.NewFromFloat(rate))
	budget := decimal.NewFromFloat(*p.BudgetUSD)
	net := annual

	fit := &FinancialFit{
		AnnualCostUSD:   annual.Round(2).InexactFloat64(),
		BudgetUSD:       budget.Round(2).InexactFloat64(),
		TuitionCurrency: currency,
	}

	if best, found := bestScholarship(r.Scholarships, p.Citizenship); found {
		coverage := decimal.NewFromFloat(best).Div(hundred)
		net = annual.Mul(decimal.NewFromInt(1).Sub(coverage))
		fit.BestScholarshipCoverage = &best
	}
	fit.NetCostUSD = net.Round(2).InexactFloat64()

	if net.GreaterThan(budget) {
		fit.NeedsScholarship = true
		fit.ShortfallUSD = net.Sub(budget).Round(2).InexactFloat64()
	} else {
		fit.CoveredByBudget = true
	}
	return fit
}

// bestScholarship returns the highest coverage percent among scholarships the student is eligible for.
func bestScholarship(scholarships []Scholarship, citizenship string) (float64, bool) {
	var best float64
	for _, sc := range scholarships {
		if !sc.EligibleFor(citizenship) {
			continue
		}
		pct := clamp(maxFloat(sc.MaxPercent, sc.MinPercent), 0, 100)
		if pct > best {
			best = pct
		}
	}
	return best, best > 0
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
