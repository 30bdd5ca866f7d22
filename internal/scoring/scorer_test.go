package scoring

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestScore_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		profile  StudentProfile
		program  ProgramRequirements
		validate func(t *testing.T, res ScoreResult)
	}{
		{
			name: "strong applicant above both minimums",
			profile: StudentProfile{
				GPA:               3.8,
				GPAScale:          GPAScale4,
				EnglishTest:       EnglishTestIELTS,
				EnglishScore:      f(7.5),
				AchievementsCount: 2,
			},
			program: ProgramRequirements{
				DegreeLevel: "bachelor",
				MinGPA:      f(3.5),
				MinGPAScale: GPAScale4,
				MinIELTS:    f(7.0),
			},
			validate: func(t *testing.T, res ScoreResult) {
				assert.Contains(t, []Category{CategorySafety, CategoryTarget}, res.Category)
				assert.Equal(t, 38, res.Breakdown.GPA)
				assert.Equal(t, 27, res.Breakdown.Language)
				assert.Equal(t, 10, res.Breakdown.Tests)
				assert.Equal(t, 2, res.Breakdown.Extras)
				assert.Equal(t, 77, res.Score)
				assert.Equal(t, CategorySafety, res.Category)

				assert.Contains(t, res.Reasons, "Your GPA is above the program's minimum requirement")
				assert.Contains(t, res.Reasons, "Your IELTS score exceeds the program's minimum of IELTS 7")
				assert.Equal(t, StatusExceeds, res.Components[0].Status)
				assert.Equal(t, StatusExceeds, res.Components[1].Status)

				assert.Nil(t, res.ImprovementPath)
				assert.Nil(t, res.Financial)
				assert.Equal(t, "Strong chance of admission. Apply!", res.Advice)
			},
		},
		{
			name: "weak GPA and no English test",
			profile: StudentProfile{
				GPA:      2.5,
				GPAScale: GPAScale4,
			},
			program: ProgramRequirements{
				DegreeLevel: "bachelor",
				MinGPA:      f(3.7),
				MinGPAScale: GPAScale4,
				MinIELTS:    f(7.0),
			},
			validate: func(t *testing.T, res ScoreResult) {
				assert.Equal(t, CategoryReach, res.Category)
				assert.Equal(t, 8, res.Breakdown.GPA)
				assert.Equal(t, 0, res.Breakdown.Language)
				assert.Equal(t, 18, res.Score)

				assert.Contains(t, res.Reasons, "No English test score was provided, but the program requires IELTS 7")
				assert.Contains(t, res.Reasons, "Your GPA is below the program's typical minimum of 3.7 on a 4.0 scale")

				require.NotNil(t, res.ImprovementPath)
				path := res.ImprovementPath
				assert.Equal(t, CategoryTarget, path.NextCategory)
				assert.Equal(t, 40, path.TargetScore)
				assert.Equal(t, 22, path.GapPoints)
				require.Len(t, path.Steps, 3)
				assert.Equal(t, ComponentGPA, path.Steps[0].Component)
				assert.Equal(t, "Raise your GPA to at least 3.7 on a 4.0 scale", path.Steps[0].Action)
				assert.Equal(t, 30, path.Steps[0].ImpactPercent)
				assert.Equal(t, ComponentLanguage, path.Steps[1].Component)
				assert.Equal(t, 30, path.Steps[1].ImpactPercent)
				assert.Equal(t, ComponentTests, path.Steps[2].Component)
				assert.Equal(t, path.NextSteps[0], path.Steps[0].Action)

				assert.Equal(t, "A very difficult option. Consider focusing on other programs.", res.Advice)
			},
		},
		{
			name: "budget short even after scholarship",
			profile: StudentProfile{
				GPA:          3.5,
				GPAScale:     GPAScale4,
				EnglishTest:  EnglishTestTOEFL,
				EnglishScore: f(100),
				BudgetUSD:    f(25000),
			},
			program: ProgramRequirements{
				MinGPA:          f(3.0),
				MinTOEFL:        f(90),
				TuitionAmount:   f(60000),
				TuitionCurrency: "USD",
				Scholarships: []Scholarship{
					{Type: "merit", MinPercent: 25, MaxPercent: 50},
					{Type: "need", MinPercent: 10, MaxPercent: 20},
				},
			},
			validate: func(t *testing.T, res ScoreResult) {
				require.NotNil(t, res.Financial)
				fit := res.Financial
				assert.True(t, fit.NeedsScholarship)
				assert.False(t, fit.CoveredByBudget)
				assert.Equal(t, 60000.0, fit.AnnualCostUSD)
				assert.Equal(t, 30000.0, fit.NetCostUSD)
				assert.Equal(t, 5000.0, fit.ShortfallUSD)
				require.NotNil(t, fit.BestScholarshipCoverage)
				assert.Equal(t, 50.0, *fit.BestScholarshipCoverage)
				assert.Contains(t, res.Reasons, "Net tuition of $30,000 exceeds your budget by $5,000")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Score(tt.profile, tt.program)
			assert.Equal(t, res.Score, res.Breakdown.Total())
			tt.validate(t, res)
		})
	}
}

func TestScore_RangeAndSumInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	scales := []GPAScale{GPAScale4, GPAScale5, GPAScale100}
	levels := []string{"bachelor", "master", "phd", ""}

	smart, err := NewScorer(Options{Weights: SmartSearchWeights})
	require.NoError(t, err)
	scorers := []*Scorer{defaultScorer, smart}

	for i := 0; i < 500; i++ {
		scale := scales[rng.Intn(len(scales))]
		p := StudentProfile{
			GPA:                 rng.Float64() * scale.Max(),
			GPAScale:            scale,
			HasPortfolio:        rng.Intn(2) == 0,
			WorkExperienceYears: rng.Float64() * 12,
			AchievementsCount:   rng.Intn(12),
		}
		if rng.Intn(2) == 0 {
			p.EnglishTest = EnglishTestIELTS
			p.EnglishScore = f(rng.Float64() * 9)
		} else if rng.Intn(2) == 0 {
			p.EnglishTest = EnglishTestTOEFL
			p.EnglishScore = f(rng.Float64() * 120)
		}
		if rng.Intn(2) == 0 {
			p.SAT = f(400 + rng.Float64()*1200)
		}
		if rng.Intn(3) == 0 {
			p.GRE = f(260 + rng.Float64()*80)
		}
		if rng.Intn(3) == 0 {
			p.BudgetUSD = f(rng.Float64() * 80000)
		}

		r := ProgramRequirements{DegreeLevel: levels[rng.Intn(len(levels))]}
		if rng.Intn(4) > 0 {
			r.MinGPA = f(2 + rng.Float64()*2)
			r.MinGPAScale = GPAScale4
		}
		if rng.Intn(2) == 0 {
			r.MinIELTS = f(5 + rng.Float64()*3)
		}
		if rng.Intn(3) == 0 {
			r.MinSAT = f(1000 + rng.Float64()*500)
		}
		if rng.Intn(3) == 0 {
			r.TuitionAmount = f(rng.Float64() * 70000)
			r.TuitionCurrency = "EUR"
		}

		for _, s := range scorers {
			res := s.Score(p, r)
			assert.GreaterOrEqual(t, res.Score, 0)
			assert.LessOrEqual(t, res.Score, 100)
			assert.Equal(t, res.Score, res.Breakdown.Total())
			assert.Equal(t, Classify(res.Score, DefaultThresholds), res.Category)
			if res.Category == CategorySafety {
				assert.Nil(t, res.ImprovementPath)
			} else {
				require.NotNil(t, res.ImprovementPath)
				assert.LessOrEqual(t, len(res.ImprovementPath.Steps), 3)
			}
		}
	}
}

func TestScore_GPAMonotonic(t *testing.T) {
	programs := []ProgramRequirements{
		{MinGPA: f(3.0), MinGPAScale: GPAScale4},
		{MinGPA: f(85), MinGPAScale: GPAScale100},
		{},
	}

	for _, r := range programs {
		prev := -1
		for gpa := 0.0; gpa <= 4.0; gpa += 0.05 {
			res := Score(StudentProfile{GPA: gpa, GPAScale: GPAScale4}, r)
			assert.GreaterOrEqual(t, res.Breakdown.GPA, prev, "gpa %.2f", gpa)
			prev = res.Breakdown.GPA
		}
	}
}

func TestScore_Idempotent(t *testing.T) {
	p := StudentProfile{
		GPA:          88,
		GPAScale:     GPAScale100,
		EnglishTest:  EnglishTestTOEFL,
		EnglishScore: f(95),
		GRE:          f(318),
		BudgetUSD:    f(30000),
		Citizenship:  "KZ",
	}
	r := ProgramRequirements{
		DegreeLevel:     "master",
		MinGPA:          f(3.3),
		MinTOEFL:        f(100),
		TuitionAmount:   f(28000),
		TuitionCurrency: "GBP",
		Scholarships:    []Scholarship{{Type: "merit", MaxPercent: 30, EligibleCitizenships: []string{"kz"}}},
		Stats:           []AdmissionStat{{Year: 2024, AcceptanceRate: f(0.12), AvgGRE: f(325)}},
	}

	assert.Equal(t, Score(p, r), Score(p, r))
}

func TestScore_MissingEnglishTest(t *testing.T) {
	p := StudentProfile{GPA: 3.2, GPAScale: GPAScale4}

	res := Score(p, ProgramRequirements{MinGPA: f(3.0)})
	assert.Equal(t, 6, res.Breakdown.Language)
	assert.Equal(t, StatusMissing, res.Components[1].Status)
	assert.NotEmpty(t, res.Reasons)
	assert.NotEmpty(t, res.Advice)

	res = Score(p, ProgramRequirements{MinGPA: f(3.0), MinTOEFL: f(80)})
	assert.Equal(t, 0, res.Breakdown.Language)
	assert.Contains(t, res.Reasons, "No English test score was provided, but the program requires TOEFL 80")
}

func TestScore_NoMinimumGPAIsNeutral(t *testing.T) {
	low := Score(StudentProfile{GPA: 2.0, GPAScale: GPAScale4}, ProgramRequirements{})
	high := Score(StudentProfile{GPA: 4.0, GPAScale: GPAScale4}, ProgramRequirements{})

	assert.Equal(t, 20, low.Breakdown.GPA)
	assert.Equal(t, low.Breakdown.GPA, high.Breakdown.GPA)
	assert.Equal(t, StatusNotRequired, low.Components[0].Status)
}

func TestScore_SmartSearchWeights(t *testing.T) {
	s, err := NewScorer(Options{Weights: SmartSearchWeights})
	require.NoError(t, err)

	res := s.Score(StudentProfile{
		GPA:                 4.0,
		GPAScale:            GPAScale4,
		EnglishTest:         EnglishTestIELTS,
		EnglishScore:        f(9),
		SAT:                 f(1600),
		HasPortfolio:        true,
		WorkExperienceYears: 5,
		AchievementsCount:   5,
	}, ProgramRequirements{DegreeLevel: "bachelor", MinGPA: f(3.0), MinIELTS: f(6.5), MinSAT: f(1200)})

	assert.Equal(t, WeightSetSmartSearch, res.WeightSet)
	assert.Equal(t, 100, res.Score)
	assert.Equal(t, Breakdown{GPA: 50, Language: 20, Tests: 10, Extras: 20}, res.Breakdown)
	assert.Equal(t, CategorySafety, res.Category)
}

func TestScore_ReasonsMostDeficientFirst(t *testing.T) {
	res := Score(StudentProfile{
		GPA:          3.9,
		GPAScale:     GPAScale4,
		EnglishTest:  EnglishTestIELTS,
		EnglishScore: f(5.0),
	}, ProgramRequirements{DegreeLevel: "bachelor", MinGPA: f(3.0), MinIELTS: f(7.0), MinSAT: f(1300)})

	require.GreaterOrEqual(t, len(res.Reasons), 4)
	assert.Equal(t, "No SAT score was provided, but the program requires one", res.Reasons[0])
	assert.Equal(t, "No portfolio, work experience or achievements were listed", res.Reasons[1])
	assert.Equal(t, "Your GPA is above the program's minimum requirement", res.Reasons[3])
}

func TestNewScorer_RejectsInvalidOptions(t *testing.T) {
	_, err := NewScorer(Options{Weights: WeightSet{Name: "odd", GPAMax: 1, LanguageMax: 1, TestsMax: 1, ExtrasMax: 5}})
	assert.Error(t, err)

	_, err = NewScorer(Options{Thresholds: Thresholds{Target: 70, Safety: 40}})
	assert.Error(t, err)

	_, err = NewScorer(Options{Curve: PartialCreditCurve{MeetCredit: 0.5, Floor: 0.7}})
	assert.Error(t, err)

	s, err := NewScorer(Options{})
	require.NoError(t, err)
	assert.Equal(t, StandardWeights, s.Weights())
}

func TestScorer_WithWeights(t *testing.T) {
	s, err := NewScorer(DefaultOptions())
	require.NoError(t, err)

	smart, err := s.WithWeights(SmartSearchWeights)
	require.NoError(t, err)
	assert.Equal(t, SmartSearchWeights, smart.Weights())
	assert.Equal(t, StandardWeights, s.Weights())
}
