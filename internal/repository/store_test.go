package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unichance/internal/models"
)

var programCols = []string{
	"id", "university_id", "name", "country_code", "qs_rank",
	"title", "degree_level", "field", "language",
	"tuition_amount", "tuition_currency", "has_scholarship",
	"min_gpa", "min_gpa_scale", "min_ielts", "min_toefl",
	"min_sat", "min_act", "min_gre", "min_gmat",
	"requires_portfolio", "min_work_experience_years",
}

var statCols = []string{
	"program_id", "year", "acceptance_rate", "avg_gpa", "avg_ielts", "avg_toefl",
	"avg_sat", "avg_act", "avg_gre", "avg_gmat",
}

var scholarshipCols = []string{
	"id", "program_id", "name", "type", "coverage_min_percent", "coverage_max_percent", "eligible_countries",
}

func programRow(rows *sqlmock.Rows, id int64, title string, qsRank interface{}) *sqlmock.Rows {
	return rows.AddRow(
		id, 1, "Nazarbayev University", "KZ", qsRank,
		title, "bachelor", "computer_science", "en",
		12000.0, "USD", true,
		3.0, "4.0", 6.5, nil,
		nil, nil, nil, nil,
		false, 0.0,
	)
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db, 3), mock
}

func TestStore_LoadProgram(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM programs p").
		WithArgs(int64(11)).
		WillReturnRows(programRow(sqlmock.NewRows(programCols), 11, "BSc Computer Science", 250))

	mock.ExpectQuery("FROM admission_stats").
		WithArgs(sqlmock.AnyArg(), 0, 3).
		WillReturnRows(sqlmock.NewRows(statCols).
			AddRow(11, 2024, 0.12, 3.6, 6.5, nil, nil, nil, nil, nil).
			AddRow(11, 2023, 0.15, 3.5, 6.5, nil, nil, nil, nil, nil).
			AddRow(11, 2020, 0.40, 3.1, 6.0, nil, nil, nil, nil, nil))

	mock.ExpectQuery("FROM scholarships").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(scholarshipCols).
			AddRow(5, 11, "Merit", "merit", 25.0, 50.0, "{KZ,UZ}"))

	rec, err := store.LoadProgram(context.Background(), 11, 0)
	require.NoError(t, err)

	assert.Equal(t, "BSc Computer Science", rec.Title)
	require.NotNil(t, rec.QSRank)
	assert.Equal(t, 250, *rec.QSRank)
	assert.Equal(t, 3.0, *rec.MinGPA)
	assert.Nil(t, rec.MinTOEFL)

	require.Len(t, rec.Stats, 2, "2020 falls outside the window anchored at 2024")
	assert.Equal(t, 2024, rec.Stats[0].Year)

	require.Len(t, rec.Scholarships, 1)
	assert.Equal(t, []string{"KZ", "UZ"}, rec.Scholarships[0].EligibleCountries)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_LoadProgram_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM programs p").
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows(programCols))

	_, err := store.LoadProgram(context.Background(), 404, 2025)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_LoadProgram_QueryError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM programs p").
		WithArgs(int64(11)).
		WillReturnError(errors.New("connection reset"))

	_, err := store.LoadProgram(context.Background(), 11, 2025)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestStore_ListSmartSearchCandidates(t *testing.T) {
	store, mock := newMockStore(t)
	maxTuition := 20000.0

	mock.ExpectQuery(`u.country_code = ANY\(\$1\) AND p.tuition_amount <= \$2\s+ORDER BY u.qs_rank ASC NULLS LAST, p.title ASC\s+LIMIT \$3`).
		WithArgs(sqlmock.AnyArg(), maxTuition, 50).
		WillReturnRows(func() *sqlmock.Rows {
			rows := sqlmock.NewRows(programCols)
			programRow(rows, 11, "BSc Computer Science", 250)
			programRow(rows, 12, "BA Economics", nil)
			return rows
		}())

	mock.ExpectQuery("FROM admission_stats").
		WithArgs(sqlmock.AnyArg(), 2025, 3).
		WillReturnRows(sqlmock.NewRows(statCols).
			AddRow(12, 2024, 0.3, nil, nil, nil, nil, nil, nil, nil))

	mock.ExpectQuery("FROM scholarships").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(scholarshipCols))

	programs, err := store.ListSmartSearchCandidates(context.Background(), models.SmartSearchParams{
		Countries:  []string{"kz"},
		MaxTuition: &maxTuition,
		Take:       500,
	}, 2025)
	require.NoError(t, err)

	require.Len(t, programs, 2)
	assert.Empty(t, programs[0].Stats)
	assert.Nil(t, programs[1].QSRank)
	require.Len(t, programs[1].Stats, 1)
	assert.Equal(t, 2024, programs[1].Stats[0].Year)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListSmartSearchCandidates_Empty(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`WHERE 1=1\s+ORDER BY`).
		WithArgs(30).
		WillReturnRows(sqlmock.NewRows(programCols))

	programs, err := store.ListSmartSearchCandidates(context.Background(), models.SmartSearchParams{}, 0)
	require.NoError(t, err)
	assert.Empty(t, programs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_LoadStudentProfile(t *testing.T) {
	store, mock := newMockStore(t)
	updated := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM student_profiles").
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"user_id", "gpa", "gpa_scale", "english_test", "english_score",
			"sat", "act", "gre", "gmat", "has_portfolio", "work_experience_years",
			"achievements_count", "budget_usd", "citizenship_code", "updated_at",
		}).AddRow("u-1", 3.7, "4.0", "ielts", 7.0, 1400.0, nil, nil, nil, true, 1.5, 3, 15000.0, "kz", updated))

	rec, err := store.LoadStudentProfile(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, 3.7, rec.GPA)
	assert.Equal(t, "ielts", *rec.EnglishTest)
	assert.Nil(t, rec.ACT)
	assert.Equal(t, 3, rec.AchievementsCount)
	assert.Equal(t, updated, rec.UpdatedAt)

	mock.ExpectQuery("FROM student_profiles").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err = store.LoadStudentProfile(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_LoadRecipient(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM users").
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "phone"}).
			AddRow("u-1", "Aruzhan S.", "aruzhan@example.com", "+77010000000"))

	r, err := store.LoadRecipient(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "aruzhan@example.com", r.Email)

	mock.ExpectQuery("FROM users").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "phone"}))

	_, err = store.LoadRecipient(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClampTake(t *testing.T) {
	assert.Equal(t, 30, clampTake(0))
	assert.Equal(t, 30, clampTake(-5))
	assert.Equal(t, 12, clampTake(12))
	assert.Equal(t, 50, clampTake(51))
}
