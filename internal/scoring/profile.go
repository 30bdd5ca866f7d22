package scoring

import (
	"sort"
	"strings"
)

type GPAScale string

const (
	GPAScale4   GPAScale = "4.0"
	GPAScale5   GPAScale = "5.0"
	GPAScale100 GPAScale = "100"
)

type EnglishTest string

const (
	EnglishTestIELTS EnglishTest = "IELTS"
	EnglishTestTOEFL EnglishTest = "TOEFL"
)

// Achievements is an optional typed breakdown of a student's achievements.
// When present it replaces AchievementsCount with a weighted count.
type Achievements struct {
	Olympiads    int `json:"olympiads"`
	Leadership   int `json:"leadership"`
	Sports       int `json:"sports"`
	Volunteering int `json:"volunteering"`
	Other        int `json:"other"`
}

func (a Achievements) weightedCount() float64 {
	return float64(a.Olympiads)*3 +
		float64(a.Leadership)*2 +
		float64(a.Sports) +
		float64(a.Volunteering)*0.8 +
		float64(a.Other)
}

type StudentProfile struct {
	GPA                 float64       `json:"gpa"`
	GPAScale            GPAScale      `json:"gpaScale"`
	EnglishTest         EnglishTest   `json:"englishTest,omitempty"`
	EnglishScore        *float64      `json:"englishScore,omitempty"`
	SAT                 *float64      `json:"satScore,omitempty"`
	ACT                 *float64      `json:"actScore,omitempty"`
	GRE                 *float64      `json:"greScore,omitempty"`
	GMAT                *float64      `json:"gmatScore,omitempty"`
	HasPortfolio        bool          `json:"hasPortfolio"`
	WorkExperienceYears float64       `json:"workExperienceYears"`
	AchievementsCount   int           `json:"achievementsCount"`
	Achievements        *Achievements `json:"achievements,omitempty"`
	BudgetUSD           *float64      `json:"budgetUsd,omitempty"`
	Citizenship         string        `json:"citizenship,omitempty"`
}

func (p StudentProfile) achievementCount() float64 {
	if p.Achievements != nil {
		return p.Achievements.weightedCount()
	}
	return float64(p.AchievementsCount)
}

type Scholarship struct {
	Name                 string   `json:"name,omitempty"`
	Type                 string   `json:"type"`
	MinPercent           float64  `json:"minPercent"`
	MaxPercent           float64  `json:"maxPercent"`
	EligibleCitizenships []string `json:"eligibleCitizenships,omitempty"`
}

// EligibleFor reports whether a student with the given citizenship can apply.
// An unknown citizenship is treated as eligible.
func (s Scholarship) EligibleFor(citizenship string) bool {
	if len(s.EligibleCitizenships) == 0 || citizenship == "" {
		return true
	}
	for _, c := range s.EligibleCitizenships {
		if strings.EqualFold(c, citizenship) {
			return true
		}
	}
	return false
}

// AdmissionStat is one year of published admission outcomes. AvgGPA is normalized to 0..1.
type AdmissionStat struct {
	Year           int      `json:"year"`
	AcceptanceRate *float64 `json:"acceptanceRate,omitempty"`
	AvgGPA         *float64 `json:"avgGpa,omitempty"`
	AvgIELTS       *float64 `json:"avgIelts,omitempty"`
	AvgTOEFL       *float64 `json:"avgToefl,omitempty"`
	AvgSAT         *float64 `json:"avgSat,omitempty"`
	AvgACT         *float64 `json:"avgAct,omitempty"`
	AvgGRE         *float64 `json:"avgGre,omitempty"`
	AvgGMAT        *float64 `json:"avgGmat,omitempty"`
}

type ProgramRequirements struct {
	ProgramID              int64           `json:"programId"`
	DegreeLevel            string          `json:"degreeLevel"`
	MinGPA                 *float64        `json:"minGpa,omitempty"`
	MinGPAScale            GPAScale        `json:"minGpaScale,omitempty"`
	MinIELTS               *float64        `json:"minIelts,omitempty"`
	MinTOEFL               *float64        `json:"minToefl,omitempty"`
	MinSAT                 *float64        `json:"minSat,omitempty"`
	MinACT                 *float64        `json:"minAct,omitempty"`
	MinGRE                 *float64        `json:"minGre,omitempty"`
	MinGMAT                *float64        `json:"minGmat,omitempty"`
	RequiresPortfolio      bool            `json:"requiresPortfolio"`
	MinWorkExperienceYears float64         `json:"minWorkExperienceYears"`
	TuitionAmount          *float64        `json:"tuitionAmount,omitempty"`
	TuitionCurrency        string          `json:"tuitionCurrency,omitempty"`
	Scholarships           []Scholarship   `json:"scholarships,omitempty"`
	Stats                  []AdmissionStat `json:"stats,omitempty"`
	// AsOfYear anchors the stats window. Zero means the latest year present in Stats.
	AsOfYear int `json:"asOfYear,omitempty"`
}

func (r ProgramRequirements) requiresEnglish() bool {
	return r.MinIELTS != nil || r.MinTOEFL != nil
}

// RecentStats keeps the stats whose year falls within windowYears of asOfYear,
// newest first. asOfYear of zero anchors the window at the latest year present.
func RecentStats(stats []AdmissionStat, asOfYear, windowYears int) []AdmissionStat {
	if len(stats) == 0 || windowYears <= 0 {
		return nil
	}
	if asOfYear == 0 {
		for _, s := range stats {
			if s.Year > asOfYear {
				asOfYear = s.Year
			}
		}
	}

	recent := make([]AdmissionStat, 0, len(stats))
	for _, s := range stats {
		if s.Year <= asOfYear && s.Year > asOfYear-windowYears {
			recent = append(recent, s)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].Year > recent[j].Year })
	return recent
}

// averageStat averages one optional field across stats, skipping nulls.
func averageStat(stats []AdmissionStat, field func(AdmissionStat) *float64) *float64 {
	var sum float64
	var n int
	for _, s := range stats {
		if v := field(s); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}
