// Package scoring estimates a student's admission chance for a program.
//
// A Scorer is a pure, deterministic evaluator. It holds no mutable state and
// performs no I/O, so a single instance can be shared by any number of goroutines.
package scoring

import (
	"math"
)

type Breakdown struct {
	GPA      int `json:"gpa"`
	Language int `json:"language"`
	Tests    int `json:"tests"`
	Extras   int `json:"extras"`
}

func (b Breakdown) Total() int {
	return b.GPA + b.Language + b.Tests + b.Extras
}

type ComponentDetail struct {
	Component Component `json:"component"`
	Points    int       `json:"points"`
	MaxPoints int       `json:"max_points"`
	Status    Status    `json:"status"`
}

// ScoreResult is the outcome of one evaluation. Breakdown is reported on the
// 100 point basis and always sums to Score.
type ScoreResult struct {
	Score           int               `json:"score"`
	Category        Category          `json:"category"`
	Breakdown       Breakdown         `json:"breakdown"`
	Components      []ComponentDetail `json:"components"`
	Reasons         []string          `json:"reasons"`
	Advice          string            `json:"advice"`
	Financial       *FinancialFit     `json:"financial_info,omitempty"`
	ImprovementPath *ImprovementPath  `json:"improvement_path,omitempty"`
	WeightSet       string            `json:"weight_set"`
}

type Scorer struct {
	opts Options
}

func NewScorer(opts Options) (*Scorer, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{opts: opts}, nil
}

var defaultScorer = &Scorer{opts: DefaultOptions().withDefaults()}

// Score evaluates with the default options and the standard weight set.
func Score(p StudentProfile, r ProgramRequirements) ScoreResult {
	return defaultScorer.Score(p, r)
}

// WithWeights returns a copy of the scorer that uses w.
func (s *Scorer) WithWeights(w WeightSet) (*Scorer, error) {
	opts := s.opts
	opts.Weights = w
	return NewScorer(opts)
}

func (s *Scorer) Weights() WeightSet {
	return s.opts.Weights
}

func (s *Scorer) Thresholds() Thresholds {
	return s.opts.Thresholds
}

func (s *Scorer) Score(p StudentProfile, r ProgramRequirements) ScoreResult {
	scores := []componentScore{
		s.scoreGPA(p, r),
		s.scoreLanguage(p, r),
		s.scoreTests(p, r),
		s.scoreExtras(p, r),
	}

	res := ScoreResult{
		WeightSet:  s.opts.Weights.Name,
		Components: make([]ComponentDetail, 0, len(scores)),
	}
	for _, cs := range scores {
		pts := s.points(cs)
		switch cs.component {
		case ComponentGPA:
			res.Breakdown.GPA = pts
		case ComponentLanguage:
			res.Breakdown.Language = pts
		case ComponentTests:
			res.Breakdown.Tests = pts
		case ComponentExtras:
			res.Breakdown.Extras = pts
		}
		res.Components = append(res.Components, ComponentDetail{
			Component: cs.component,
			Points:    pts,
			MaxPoints: s.maxPoints(cs.component),
			Status:    cs.status,
		})
	}

	res.Score = res.Breakdown.Total()
	res.Category = Classify(res.Score, s.opts.Thresholds)
	res.Financial = s.financialFit(p, r)
	res.Reasons = s.reasons(scores, p, r, res.Financial)
	res.ImprovementPath = s.improvementPath(p, r, scores, res)
	res.Advice = s.advice(res)
	return res
}

func (s *Scorer) points(cs componentScore) int {
	return int(math.Round(clamp(cs.credit, 0, 1) * s.opts.Weights.maxFor(cs.component)))
}

func (s *Scorer) maxPoints(c Component) int {
	return int(math.Round(s.opts.Weights.maxFor(c)))
}
