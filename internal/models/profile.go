package models

import (
	"strings"
	"time"

	"unichance/internal/scoring"
)

// StudentProfileRecord is a student_profiles row.
type StudentProfileRecord struct {
	UserID              string    `json:"userId"`
	GPA                 float64   `json:"gpa"`
	GPAScale            string    `json:"gpaScale"`
	EnglishTest         *string   `json:"englishTest,omitempty"`
	EnglishScore        *float64  `json:"englishScore,omitempty"`
	SAT                 *float64  `json:"sat,omitempty"`
	ACT                 *float64  `json:"act,omitempty"`
	GRE                 *float64  `json:"gre,omitempty"`
	GMAT                *float64  `json:"gmat,omitempty"`
	HasPortfolio        bool      `json:"hasPortfolio"`
	WorkExperienceYears float64   `json:"workExperienceYears"`
	AchievementsCount   int       `json:"achievementsCount"`
	BudgetUSD           *float64  `json:"budgetUsd,omitempty"`
	CitizenshipCode     *string   `json:"citizenshipCode,omitempty"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func (r StudentProfileRecord) Profile() scoring.StudentProfile {
	p := scoring.StudentProfile{
		GPA:                 r.GPA,
		GPAScale:            scoring.GPAScale(r.GPAScale),
		EnglishScore:        r.EnglishScore,
		SAT:                 r.SAT,
		ACT:                 r.ACT,
		GRE:                 r.GRE,
		GMAT:                r.GMAT,
		HasPortfolio:        r.HasPortfolio,
		WorkExperienceYears: r.WorkExperienceYears,
		AchievementsCount:   r.AchievementsCount,
		BudgetUSD:           r.BudgetUSD,
	}
	if r.EnglishTest != nil {
		p.EnglishTest = scoring.EnglishTest(strings.ToUpper(*r.EnglishTest))
	}
	if r.CitizenshipCode != nil {
		p.Citizenship = strings.ToUpper(*r.CitizenshipCode)
	}
	return p
}
