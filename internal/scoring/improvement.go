package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

const maxSuggestions = 3

type Suggestion struct {
	Component     Component `json:"component"`
	Action        string    `json:"action"`
	ImpactPercent int       `json:"impact_percent"`
	CurrentPoints int       `json:"current_points"`
	MaxPoints     int       `json:"max_points"`
}

type ImprovementPath struct {
	NextCategory Category     `json:"next_category"`
	TargetScore  int          `json:"target_score"`
	GapPoints    int          `json:"gap_points"`
	Steps        []Suggestion `json:"steps"`
	NextSteps    []string     `json:"next_3_steps"`
}

func (s *Scorer) improvementPath(p StudentProfile, r ProgramRequirements, scores []componentScore, res ScoreResult) *ImprovementPath {
	nextCategory, target, ok := s.opts.Thresholds.next(res.Category)
	if !ok {
		return nil
	}

	path := &ImprovementPath{
		NextCategory: nextCategory,
		TargetScore:  target,
		GapPoints:    target - res.Score,
		Steps:        []Suggestion{},
		NextSteps:    []string{},
	}

	type lever struct {
		cs      componentScore
		current int
		max     int
	}
	levers := make([]lever, 0, len(scores))
	for _, cs := range scores {
		max := s.maxPoints(cs.component)
		current := s.points(cs)
		if max-current > 0 {
			levers = append(levers, lever{cs: cs, current: current, max: max})
		}
	}
	sort.SliceStable(levers, func(i, j int) bool {
		return levers[i].max-levers[i].current > levers[j].max-levers[j].current
	})

	for _, l := range levers {
		if len(path.Steps) == maxSuggestions {
			break
		}
		impact := s.points(s.scoreAtCeiling(l.cs.component, p, r)) - l.current
		if impact <= 0 {
			continue
		}
		step := Suggestion{
			Component:     l.cs.component,
			Action:        s.action(l.cs, p, r),
			ImpactPercent: impact,
			CurrentPoints: l.current,
			MaxPoints:     l.max,
		}
		path.Steps = append(path.Steps, step)
		path.NextSteps = append(path.NextSteps, step.Action)
	}
	return path
}

// scoreAtCeiling re-runs a component scorer with that component's lever maximized.
func (s *Scorer) scoreAtCeiling(c Component, p StudentProfile, r ProgramRequirements) componentScore {
	ceiling := p
	switch c {
	case ComponentGPA:
		if !ceiling.GPAScale.Valid() {
			ceiling.GPAScale = GPAScale4
		}
		ceiling.GPA = ceiling.GPAScale.Max()
		return s.scoreGPA(ceiling, r)
	case ComponentLanguage:
		test := p.EnglishTest
		if !test.Valid() {
			test = EnglishTestIELTS
			if r.MinIELTS == nil && r.MinTOEFL != nil {
				test = EnglishTestTOEFL
			}
		}
		top := test.Max()
		ceiling.EnglishTest = test
		ceiling.EnglishScore = &top
		return s.scoreLanguage(ceiling, r)
	case ComponentTests:
		recent := RecentStats(r.Stats, r.AsOfYear, s.opts.StatsWindowYears)
		tests := relevantTests(r.DegreeLevel)
		set := false
		for _, t := range tests {
			if t.score(p) != nil || t.minimum(r) != nil || averageStat(recent, t.average) != nil {
				t.setScore(&ceiling, t.max)
				set = true
			}
		}
		if !set && len(tests) > 0 {
			tests[0].setScore(&ceiling, tests[0].max)
		}
		return s.scoreTests(ceiling, r)
	default:
		ceiling.HasPortfolio = true
		ceiling.WorkExperienceYears = s.opts.Extras.ExperienceCapYears
		ceiling.AchievementsCount = int(math.Ceil(s.opts.Extras.AchievementCap))
		ceiling.Achievements = nil
		return s.scoreExtras(ceiling, r)
	}
}

func (s *Scorer) action(cs componentScore, p StudentProfile, r ProgramRequirements) string {
	switch cs.component {
	case ComponentGPA:
		if cs.status == StatusBelow && r.MinGPA != nil && p.GPAScale.Valid() {
			reqScale := r.MinGPAScale
			if !reqScale.Valid() {
				reqScale = inferGPAScale(*r.MinGPA)
			}
			required, _ := NormalizeGPA(*r.MinGPA, reqScale)
			onStudentScale := math.Round(required*p.GPAScale.Max()*100) / 100
			return fmt.Sprintf("Raise your GPA to at least %s on a %s scale", formatNumber(onStudentScale), p.GPAScale)
		}
		return "Raise your GPA toward the top of your scale"

	case ComponentLanguage:
		if cs.status == StatusMissing {
			if r.requiresEnglish() {
				return fmt.Sprintf("Take the IELTS or TOEFL and submit a score (program minimum: %s)", englishRequirement(r))
			}
			return "Take the IELTS or TOEFL and submit a score"
		}
		if cs.status == StatusBelow {
			min, minTest := englishMinimum(r, p.EnglishTest)
			target := roundEnglish(p.EnglishTest, *min/minTest.Max()*p.EnglishTest.Max())
			return fmt.Sprintf("Retake the %s to reach at least %s", p.EnglishTest, formatNumber(target))
		}
		return fmt.Sprintf("Retake the %s to push your score higher", p.EnglishTest)

	case ComponentTests:
		tests := relevantTests(r.DegreeLevel)
		names := make([]string, 0, len(tests))
		supplied := false
		for _, t := range tests {
			names = append(names, t.name)
			supplied = supplied || t.score(p) != nil
		}
		switch {
		case !supplied:
			return fmt.Sprintf("Submit a %s score", joinWithOr(names))
		case cs.status == StatusBelow:
			return fmt.Sprintf("Retake the %s to reach the program's benchmark", joinWithOr(names))
		default:
			return "Improve your standardized test scores"
		}

	default:
		var missing []string
		if p.achievementCount() < s.opts.Extras.AchievementCap {
			missing = append(missing, "achievements")
		}
		if p.WorkExperienceYears < s.opts.Extras.ExperienceCapYears {
			missing = append(missing, "work experience")
		}
		if !p.HasPortfolio {
			missing = append(missing, "a portfolio")
		}
		if len(missing) == 0 {
			return "Strengthen your extracurricular profile"
		}
		return "Add " + joinWithOr(missing)
	}
}

// roundEnglish rounds a target up to the next reportable score: IELTS half bands, whole TOEFL points.
func roundEnglish(t EnglishTest, v float64) float64 {
	if t == EnglishTestIELTS {
		return math.Ceil(v*2-epsilon*1e3) / 2
	}
	return math.Ceil(v - epsilon*1e3)
}

func joinWithOr(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " or " + items[len(items)-1]
	}
}
