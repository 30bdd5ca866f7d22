package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// reasons lists one sentence per component, most deficient first, followed by
// context about selectivity, requirements and cost.
func (s *Scorer) reasons(scores []componentScore, p StudentProfile, r ProgramRequirements, fit *FinancialFit) []string {
	ordered := make([]componentScore, len(scores))
	copy(ordered, scores)
	sort.SliceStable(ordered, func(i, j int) bool {
		return s.deficiency(ordered[i]) > s.deficiency(ordered[j])
	})

	out := make([]string, 0, len(ordered)+4)
	for _, cs := range ordered {
		if s.maxPoints(cs.component) == 0 {
			continue
		}
		out = append(out, cs.reason)
	}

	recent := RecentStats(r.Stats, r.AsOfYear, s.opts.StatsWindowYears)
	if rate := averageStat(recent, func(st AdmissionStat) *float64 { return st.AcceptanceRate }); rate != nil {
		pct := *rate
		if pct <= 1 {
			pct *= 100
		}
		switch {
		case pct < 15:
			out = append(out, fmt.Sprintf("The program is highly selective, admitting about %d%% of applicants", int(math.Round(pct))))
		case pct < 35:
			out = append(out, fmt.Sprintf("The program is selective, admitting about %d%% of applicants", int(math.Round(pct))))
		}
	}

	if r.RequiresPortfolio && !p.HasPortfolio {
		out = append(out, "The program requires a portfolio, which you have not listed")
	}
	if r.MinWorkExperienceYears > 0 && p.WorkExperienceYears < r.MinWorkExperienceYears {
		out = append(out, fmt.Sprintf("The program expects at least %s years of work experience",
			formatNumber(r.MinWorkExperienceYears)))
	}
	if len(r.Scholarships) > 0 && p.Citizenship != "" {
		if !eligibleForAny(r.Scholarships, p.Citizenship) {
			out = append(out, fmt.Sprintf("The listed scholarships are not open to citizens of %s",
				strings.ToUpper(p.Citizenship)))
		}
	}

	if fit != nil {
		switch {
		case fit.NeedsScholarship:
			out = append(out, fmt.Sprintf("Net tuition of $%s exceeds your budget by $%s",
				formatMoney(fit.NetCostUSD), formatMoney(fit.ShortfallUSD)))
		case fit.BestScholarshipCoverage != nil && fit.AnnualCostUSD > fit.BudgetUSD:
			out = append(out, "Tuition fits your budget once the best available scholarship is applied")
		default:
			out = append(out, "Tuition fits within your budget")
		}
	}
	return out
}

func (s *Scorer) deficiency(cs componentScore) float64 {
	max := s.maxPoints(cs.component)
	if max == 0 {
		return 0
	}
	return 1 - float64(s.points(cs))/float64(max)
}

func eligibleForAny(scholarships []Scholarship, citizenship string) bool {
	for _, sc := range scholarships {
		if sc.EligibleFor(citizenship) {
			return true
		}
	}
	return false
}

func formatMoney(v float64) string {
	whole := int64(math.Round(v))
	digits := fmt.Sprintf("%d", whole)
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func (s *Scorer) advice(res ScoreResult) string {
	t := s.opts.Thresholds
	switch {
	case res.Score >= t.Safety:
		return "Strong chance of admission. Apply!"
	case res.Score >= t.Target:
		return "A realistic option with a fair chance of admission. Strengthening your application will improve your odds."
	case res.Score >= t.Target/2:
		advice := "A difficult option, but not impossible."
		if res.ImprovementPath != nil && len(res.ImprovementPath.Steps) > 0 {
			advice += " Recommended: " + res.ImprovementPath.Steps[0].Action + ". It is worth a try."
		}
		return advice
	default:
		return "A very difficult option. Consider focusing on other programs."
	}
}
