// Package repository loads programs, student profiles and report recipients
// from Postgres, with an optional Redis cache in front.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"unichance/internal/models"
	"unichance/internal/scoring"
)

var ErrNotFound = errors.New("not found")

const (
	defaultTake = 30
	maxTake     = 50
)

// Loader is what the scoring workers and API need to score one program.
type Loader interface {
	LoadProgram(ctx context.Context, programID int64, asOfYear int) (*models.ProgramRecord, error)
	LoadStudentProfile(ctx context.Context, userID string) (*models.StudentProfileRecord, error)
}

// Store reads from Postgres.
type Store struct {
	db          *sql.DB
	statsWindow int
}

// NewStore returns a Store keeping statsWindow years of admission history.
func NewStore(db *sql.DB, statsWindow int) *Store {
	if statsWindow <= 0 {
		statsWindow = 3
	}
	return &Store{db: db, statsWindow: statsWindow}
}

const programColumns = `
	p.id, p.university_id, u.name, u.country_code, u.qs_rank,
	p.title, p.degree_level::text, p.field, COALESCE(p.language, ''),
	p.tuition_amount, COALESCE(p.tuition_currency::text, ''), p.has_scholarship,
	p.min_gpa, COALESCE(p.min_gpa_scale, ''), p.min_ielts, p.min_toefl,
	p.min_sat, p.min_act, p.min_gre, p.min_gmat,
	p.requires_portfolio, COALESCE(p.min_work_experience_years, 0)`

const programByIDQuery = `
	SELECT` + programColumns + `
	FROM programs p
	JOIN universities u ON u.id = p.university_id
	WHERE p.id = $1`

const statsQuery = `
	SELECT program_id, year, acceptance_rate, avg_gpa, avg_ielts, avg_toefl,
	       avg_sat, avg_act, avg_gre, avg_gmat
	FROM admission_stats
	WHERE program_id = ANY($1) AND ($2 = 0 OR year > $2 - $3)
	ORDER BY program_id, year DESC`

const scholarshipsQuery = `
	SELECT id, program_id, COALESCE(name, ''), COALESCE(type, ''),
	       coverage_min_percent, coverage_max_percent, eligible_countries
	FROM scholarships
	WHERE program_id = ANY($1)
	ORDER BY program_id, coverage_max_percent DESC`

const profileQuery = `
	SELECT user_id, gpa, gpa_scale, english_test, english_score,
	       sat, act, gre, gmat, has_portfolio, work_experience_years,
	       achievements_count, budget_usd, citizenship_code, updated_at
	FROM student_profiles
	WHERE user_id = $1`

const recipientQuery = `
	SELECT id, COALESCE(full_name, ''), email, COALESCE(phone, '')
	FROM users
	WHERE id = $1`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProgram(row rowScanner) (*models.ProgramRecord, error) {
	var p models.ProgramRecord
	err := row.Scan(
		&p.ID, &p.UniversityID, &p.UniversityName, &p.CountryCode, &p.QSRank,
		&p.Title, &p.DegreeLevel, &p.Field, &p.Language,
		&p.TuitionAmount, &p.TuitionCurrency, &p.HasScholarship,
		&p.MinGPA, &p.MinGPAScale, &p.MinIELTS, &p.MinTOEFL,
		&p.MinSAT, &p.MinACT, &p.MinGRE, &p.MinGMAT,
		&p.RequiresPortfolio, &p.MinWorkExperienceYears,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadProgram loads one program with its windowed admission stats and scholarships.
func (s *Store) LoadProgram(ctx context.Context, programID int64, asOfYear int) (*models.ProgramRecord, error) {
	p, err := scanProgram(s.db.QueryRowContext(ctx, programByIDQuery, programID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("program %d: %w", programID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load program %d: %w", programID, err)
	}

	programs := []models.ProgramRecord{*p}
	if err := s.attachDetails(ctx, programs, asOfYear); err != nil {
		return nil, err
	}
	return &programs[0], nil
}

// ListSmartSearchCandidates returns programs matching params ordered by QS rank then
// title, each with its windowed stats and scholarships.
func (s *Store) ListSmartSearchCandidates(ctx context.Context, params models.SmartSearchParams, asOfYear int) ([]models.ProgramRecord, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	add := func(cond string, val interface{}) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if len(params.Countries) > 0 {
		add("u.country_code = ANY($%d)", pq.Array(upper(params.Countries)))
	}
	if len(params.Fields) > 0 {
		add("p.field = ANY($%d)", pq.Array(params.Fields))
	}
	if len(params.DegreeLevels) > 0 {
		add("p.degree_level::text = ANY($%d)", pq.Array(params.DegreeLevels))
	}
	if params.MaxTuition != nil {
		add("p.tuition_amount <= $%d", *params.MaxTuition)
	}
	if len(params.ProgramIDs) > 0 {
		add("p.id = ANY($%d)", pq.Array(params.ProgramIDs))
	}

	args = append(args, clampTake(params.Take))
	query := `
	SELECT` + programColumns + `
	FROM programs p
	JOIN universities u ON u.id = p.university_id
	WHERE ` + strings.Join(where, " AND ") + `
	ORDER BY u.qs_rank ASC NULLS LAST, p.title ASC
	LIMIT $` + fmt.Sprint(len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var programs []models.ProgramRecord
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		programs = append(programs, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	if err := s.attachDetails(ctx, programs, asOfYear); err != nil {
		return nil, err
	}
	return programs, nil
}

// attachDetails loads stats and scholarships for all programs in two queries.
func (s *Store) attachDetails(ctx context.Context, programs []models.ProgramRecord, asOfYear int) error {
	if len(programs) == 0 {
		return nil
	}

	ids := make([]int64, len(programs))
	index := make(map[int64]int, len(programs))
	for i, p := range programs {
		ids[i] = p.ID
		index[p.ID] = i
	}

	stats, err := s.loadStats(ctx, ids, asOfYear)
	if err != nil {
		return err
	}
	scholarships, err := s.loadScholarships(ctx, ids)
	if err != nil {
		return err
	}

	for id, i := range index {
		programs[i].Stats = scoring.RecentStats(stats[id], asOfYear, s.statsWindow)
		programs[i].Scholarships = scholarships[id]
	}
	return nil
}

func (s *Store) loadStats(ctx context.Context, ids []int64, asOfYear int) (map[int64][]scoring.AdmissionStat, error) {
	rows, err := s.db.QueryContext(ctx, statsQuery, pq.Array(ids), asOfYear, s.statsWindow)
	if err != nil {
		return nil, fmt.Errorf("load admission stats: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]scoring.AdmissionStat)
	for rows.Next() {
		var r models.AdmissionStatRecord
		if err := rows.Scan(
			&r.ProgramID, &r.Year, &r.AcceptanceRate, &r.AvgGPA, &r.AvgIELTS, &r.AvgTOEFL,
			&r.AvgSAT, &r.AvgACT, &r.AvgGRE, &r.AvgGMAT,
		); err != nil {
			return nil, fmt.Errorf("scan admission stat: %w", err)
		}
		out[r.ProgramID] = append(out[r.ProgramID], r.AdmissionStat)
	}
	return out, rows.Err()
}

func (s *Store) loadScholarships(ctx context.Context, ids []int64) (map[int64][]models.ScholarshipRecord, error) {
	rows, err := s.db.QueryContext(ctx, scholarshipsQuery, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("load scholarships: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]models.ScholarshipRecord)
	for rows.Next() {
		var r models.ScholarshipRecord
		if err := rows.Scan(
			&r.ID, &r.ProgramID, &r.Name, &r.Type,
			&r.MinPercent, &r.MaxPercent, pq.Array(&r.EligibleCountries),
		); err != nil {
			return nil, fmt.Errorf("scan scholarship: %w", err)
		}
		out[r.ProgramID] = append(out[r.ProgramID], r)
	}
	return out, rows.Err()
}

func (s *Store) LoadStudentProfile(ctx context.Context, userID string) (*models.StudentProfileRecord, error) {
	var r models.StudentProfileRecord
	err := s.db.QueryRowContext(ctx, profileQuery, userID).Scan(
		&r.UserID, &r.GPA, &r.GPAScale, &r.EnglishTest, &r.EnglishScore,
		&r.SAT, &r.ACT, &r.GRE, &r.GMAT, &r.HasPortfolio, &r.WorkExperienceYears,
		&r.AchievementsCount, &r.BudgetUSD, &r.CitizenshipCode, &r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile for user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load profile for user %s: %w", userID, err)
	}
	return &r, nil
}

func (s *Store) LoadRecipient(ctx context.Context, userID string) (*models.Recipient, error) {
	var r models.Recipient
	err := s.db.QueryRowContext(ctx, recipientQuery, userID).Scan(&r.UserID, &r.FullName, &r.Email, &r.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	return &r, nil
}

func clampTake(take int) int {
	switch {
	case take <= 0:
		return defaultTake
	case take > maxTake:
		return maxTake
	default:
		return take
	}
}

func upper(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToUpper(v)
	}
	return out
}
