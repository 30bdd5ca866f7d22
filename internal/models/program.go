package models

import (
	"unichance/internal/scoring"
)

// ProgramRecord is a program row joined to its university, with its
// admission history and scholarships.
type ProgramRecord struct {
	ID              int64    `json:"id"`
	UniversityID    int64    `json:"university_id"`
	UniversityName  string   `json:"university_name"`
	CountryCode     string   `json:"country_code"`
	QSRank          *int     `json:"qs_rank,omitempty"`
	Title           string   `json:"title"`
	DegreeLevel     string   `json:"degree_level"`
	Field           string   `json:"field"`
	Language        string   `json:"language"`
	TuitionAmount   *float64 `json:"tuition_amount,omitempty"`
	TuitionCurrency string   `json:"tuition_currency,omitempty"`
	HasScholarship  bool     `json:"has_scholarship"`

	MinGPA                 *float64 `json:"min_gpa,omitempty"`
	MinGPAScale            string   `json:"min_gpa_scale,omitempty"`
	MinIELTS               *float64 `json:"min_ielts,omitempty"`
	MinTOEFL               *float64 `json:"min_toefl,omitempty"`
	MinSAT                 *float64 `json:"min_sat,omitempty"`
	MinACT                 *float64 `json:"min_act,omitempty"`
	MinGRE                 *float64 `json:"min_gre,omitempty"`
	MinGMAT                *float64 `json:"min_gmat,omitempty"`
	RequiresPortfolio      bool     `json:"requires_portfolio"`
	MinWorkExperienceYears float64  `json:"min_work_experience_years"`

	Stats        []scoring.AdmissionStat `json:"stats,omitempty"`
	Scholarships []ScholarshipRecord     `json:"scholarships,omitempty"`
}

type ScholarshipRecord struct {
	ID                int64    `json:"id"`
	ProgramID         int64    `json:"program_id"`
	Name              string   `json:"name"`
	Type              string   `json:"type"`
	MinPercent        float64  `json:"coverage_min_percent"`
	MaxPercent        float64  `json:"coverage_max_percent"`
	EligibleCountries []string `json:"eligible_countries,omitempty"`
}

// AdmissionStatRecord is one admission_stats row.
type AdmissionStatRecord struct {
	ProgramID int64 `json:"program_id"`
	scoring.AdmissionStat
}

// ProgramCard is the program summary returned alongside a score.
type ProgramCard struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	UniversityName  string   `json:"university_name"`
	CountryCode     string   `json:"country_code"`
	DegreeLevel     string   `json:"degree_level"`
	Field           string   `json:"field"`
	Language        string   `json:"language"`
	TuitionAmount   *float64 `json:"tuition_amount,omitempty"`
	TuitionCurrency string   `json:"tuition_currency,omitempty"`
	HasScholarship  bool     `json:"has_scholarship"`
}

func (p ProgramRecord) Card() ProgramCard {
	return ProgramCard{
		ID:              p.ID,
		Title:           p.Title,
		UniversityName:  p.UniversityName,
		CountryCode:     p.CountryCode,
		DegreeLevel:     p.DegreeLevel,
		Field:           p.Field,
		Language:        p.Language,
		TuitionAmount:   p.TuitionAmount,
		TuitionCurrency: p.TuitionCurrency,
		HasScholarship:  p.HasScholarship,
	}
}

// Requirements converts the record into scoring input. asOfYear anchors the stats window.
func (p ProgramRecord) Requirements(asOfYear int) scoring.ProgramRequirements {
	scholarships := make([]scoring.Scholarship, 0, len(p.Scholarships))
	for _, s := range p.Scholarships {
		scholarships = append(scholarships, scoring.Scholarship{
			Name:                 s.Name,
			Type:                 s.Type,
			MinPercent:           s.MinPercent,
			MaxPercent:           s.MaxPercent,
			EligibleCitizenships: s.EligibleCountries,
		})
	}

	return scoring.ProgramRequirements{
		ProgramID:              p.ID,
		DegreeLevel:            p.DegreeLevel,
		MinGPA:                 p.MinGPA,
		MinGPAScale:            scoring.GPAScale(p.MinGPAScale),
		MinIELTS:               p.MinIELTS,
		MinTOEFL:               p.MinTOEFL,
		MinSAT:                 p.MinSAT,
		MinACT:                 p.MinACT,
		MinGRE:                 p.MinGRE,
		MinGMAT:                p.MinGMAT,
		RequiresPortfolio:      p.RequiresPortfolio,
		MinWorkExperienceYears: p.MinWorkExperienceYears,
		TuitionAmount:          p.TuitionAmount,
		TuitionCurrency:        p.TuitionCurrency,
		Scholarships:           scholarships,
		Stats:                  p.Stats,
		AsOfYear:               asOfYear,
	}
}
