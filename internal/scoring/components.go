package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Component string

const (
	ComponentGPA      Component = "gpa"
	ComponentLanguage Component = "language"
	ComponentTests    Component = "tests"
	ComponentExtras   Component = "extras"
)

var componentOrder = []Component{ComponentGPA, ComponentLanguage, ComponentTests, ComponentExtras}

// Status describes how a student compares to a program on one component.
type Status string

const (
	StatusExceeds     Status = "exceeds"
	StatusMeets       Status = "meets"
	StatusBelow       Status = "below"
	StatusMissing     Status = "missing"
	StatusNotRequired Status = "not_required"
)

const epsilon = 1e-9

type componentScore struct {
	component Component
	credit    float64
	status    Status
	reason    string
}

func compare(student, required float64) Status {
	switch {
	case student > required+epsilon:
		return StatusExceeds
	case student >= required-epsilon:
		return StatusMeets
	default:
		return StatusBelow
	}
}

func (s *Scorer) scoreGPA(p StudentProfile, r ProgramRequirements) componentScore {
	cs := componentScore{component: ComponentGPA}

	student, ok := NormalizeGPA(p.GPA, p.GPAScale)
	if !ok {
		cs.status = StatusMissing
		cs.reason = "No GPA was provided, so the GPA component adds nothing to the estimate"
		return cs
	}

	if r.MinGPA == nil {
		cs.credit = s.opts.NeutralCredit
		cs.status = StatusNotRequired
		cs.reason = "The program does not publish a minimum GPA, so your GPA was scored as neutral"
		return cs
	}

	reqScale := r.MinGPAScale
	if !reqScale.Valid() {
		reqScale = inferGPAScale(*r.MinGPA)
	}
	required, _ := NormalizeGPA(*r.MinGPA, reqScale)

	cs.credit = s.opts.Curve.Credit(student, required)
	cs.status = compare(student, required)
	switch cs.status {
	case StatusExceeds:
		cs.reason = "Your GPA is above the program's minimum requirement"
	case StatusMeets:
		cs.reason = "Your GPA meets the program's minimum requirement"
	default:
		cs.reason = fmt.Sprintf("Your GPA is below the program's typical minimum of %s on a %s scale",
			formatNumber(*r.MinGPA), reqScale)
	}
	return cs
}

// inferGPAScale guesses the scale of a minimum GPA stored without one.
func inferGPAScale(v float64) GPAScale {
	switch {
	case v <= 4.0:
		return GPAScale4
	case v <= 5.0:
		return GPAScale5
	default:
		return GPAScale100
	}
}

func (s *Scorer) scoreLanguage(p StudentProfile, r ProgramRequirements) componentScore {
	cs := componentScore{component: ComponentLanguage}

	if !p.EnglishTest.Valid() || p.EnglishScore == nil {
		cs.status = StatusMissing
		if r.requiresEnglish() {
			cs.reason = "No English test score was provided, but the program requires " + englishRequirement(r)
			return cs
		}
		cs.credit = s.opts.MissingLanguageCredit
		cs.reason = "No English test score was provided; the program does not list a minimum"
		return cs
	}

	test := p.EnglishTest
	student := clamp(*p.EnglishScore/test.Max(), 0, 1)

	min, minTest := englishMinimum(r, test)
	if min == nil {
		cs.credit = student
		cs.status = StatusNotRequired
		cs.reason = fmt.Sprintf("Your %s score of %s was counted without a program minimum",
			test, formatNumber(*p.EnglishScore))
		return cs
	}

	required := clamp(*min/minTest.Max(), 0, 1)
	cs.credit = s.opts.Curve.Credit(student, required)
	cs.status = compare(student, required)
	switch cs.status {
	case StatusExceeds:
		cs.reason = fmt.Sprintf("Your %s score exceeds the program's minimum of %s %s",
			test, minTest, formatNumber(*min))
	case StatusMeets:
		cs.reason = fmt.Sprintf("Your %s score meets the requirement", test)
	default:
		cs.reason = fmt.Sprintf("Your %s score of %s is below the program's minimum of %s %s",
			test, formatNumber(*p.EnglishScore), minTest, formatNumber(*min))
	}
	return cs
}

// englishMinimum prefers the minimum for the student's own test and falls back
// to the other test, compared as a fraction of its scale.
func englishMinimum(r ProgramRequirements, test EnglishTest) (*float64, EnglishTest) {
	switch {
	case test == EnglishTestIELTS && r.MinIELTS != nil:
		return r.MinIELTS, EnglishTestIELTS
	case test == EnglishTestTOEFL && r.MinTOEFL != nil:
		return r.MinTOEFL, EnglishTestTOEFL
	case r.MinIELTS != nil:
		return r.MinIELTS, EnglishTestIELTS
	case r.MinTOEFL != nil:
		return r.MinTOEFL, EnglishTestTOEFL
	default:
		return nil, ""
	}
}

func englishRequirement(r ProgramRequirements) string {
	var parts []string
	if r.MinIELTS != nil {
		parts = append(parts, "IELTS "+formatNumber(*r.MinIELTS))
	}
	if r.MinTOEFL != nil {
		parts = append(parts, "TOEFL "+formatNumber(*r.MinTOEFL))
	}
	return strings.Join(parts, " or ")
}

func (s *Scorer) scoreTests(p StudentProfile, r ProgramRequirements) componentScore {
	cs := componentScore{component: ComponentTests}
	recent := RecentStats(r.Stats, r.AsOfYear, s.opts.StatsWindowYears)

	var (
		credits     []float64
		required    []string
		benchmarked bool
		worst       = StatusExceeds
		shortfall   string
	)
	for _, t := range relevantTests(r.DegreeLevel) {
		ref := t.minimum(r)
		label := "minimum"
		if ref != nil {
			required = append(required, t.name)
		} else {
			ref = averageStat(recent, t.average)
			label = "recent admitted average"
		}

		score := t.score(p)
		if score == nil {
			continue
		}
		student := clamp(*score/t.max, 0, 1)
		if ref == nil {
			credits = append(credits, student)
			continue
		}

		benchmarked = true
		target := clamp(*ref/t.max, 0, 1)
		credits = append(credits, s.opts.Curve.Credit(student, target))
		st := compare(student, target)
		if st == StatusBelow && shortfall == "" {
			shortfall = fmt.Sprintf("Your %s score of %s is below the program's %s of %s",
				t.name, formatNumber(*score), label, formatNumber(math.Round(*ref)))
		}
		if rank(st) > rank(worst) {
			worst = st
		}
	}

	if len(credits) == 0 {
		cs.status = StatusMissing
		if len(required) > 0 {
			cs.reason = fmt.Sprintf("No %s score was provided, but the program requires one",
				strings.Join(required, " or "))
			return cs
		}
		cs.credit = s.opts.NeutralCredit
		cs.status = StatusNotRequired
		cs.reason = "No standardized test is required, so the tests component was scored as neutral"
		return cs
	}

	var sum float64
	for _, c := range credits {
		sum += c
	}
	cs.credit = sum / float64(len(credits))

	if !benchmarked {
		cs.status = StatusNotRequired
		cs.reason = "Your test scores were counted without a program benchmark"
		return cs
	}
	cs.status = worst
	switch worst {
	case StatusBelow:
		cs.reason = shortfall
	case StatusMeets:
		cs.reason = "Your test scores meet the program's benchmark"
	default:
		cs.reason = "Your test scores are above the program's benchmark"
	}
	return cs
}

func rank(s Status) int {
	switch s {
	case StatusExceeds:
		return 0
	case StatusMeets:
		return 1
	default:
		return 2
	}
}

func (s *Scorer) scoreExtras(p StudentProfile, _ ProgramRequirements) componentScore {
	cs := componentScore{component: ComponentExtras}
	pol := s.opts.Extras

	var credit float64
	if p.HasPortfolio {
		credit += pol.PortfolioShare
	}
	if pol.ExperienceCapYears > 0 {
		credit += pol.ExperienceShare * math.Min(math.Max(p.WorkExperienceYears, 0), pol.ExperienceCapYears) / pol.ExperienceCapYears
	}
	if pol.AchievementCap > 0 {
		credit += pol.AchievementShare * math.Min(math.Max(p.achievementCount(), 0), pol.AchievementCap) / pol.AchievementCap
	}
	cs.credit = math.Min(credit, 1)

	switch {
	case cs.credit >= 1-epsilon:
		cs.status = StatusExceeds
		cs.reason = "Your extracurricular profile is strong"
	case cs.credit >= 0.5:
		cs.status = StatusMeets
		cs.reason = "Your extracurricular profile supports the application"
	case cs.credit > 0:
		cs.status = StatusBelow
		cs.reason = "Your extracurricular profile is light; more achievements or experience would help"
	default:
		cs.status = StatusMissing
		cs.reason = "No portfolio, work experience or achievements were listed"
	}
	return cs
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
