package registry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivities(t *testing.T) {
	activities := Activities()
	require.Len(t, activities, 5)

	ids := make([]string, len(activities))
	for i, a := range activities {
		ids[i] = a.ID
		assert.Equal(t, a.ID, a.TaskType)
		assert.NotEmpty(t, a.ErrorCodes, a.ID)
		assert.NotEmpty(t, a.Timeout, a.ID)
		assert.Equal(t, Version, a.Version)
	}
	assert.Equal(t, []string{
		"query-elasticsearch",
		"query-postgresql",
		"score-admission-chance",
		"send-score-report",
		"smart-search",
	}, ids)

	score := activities[2]
	assert.Equal(t, "10s", score.Timeout)
	require.NotNil(t, score.InputSchema)
	assert.Equal(t, []interface{}{"programId"}, score.InputSchema["required"])
	assert.Contains(t, score.ErrorCodes, "PROGRAM_NOT_FOUND")
}

func TestSaveAndLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "activity-registry.json")
	reg := Build(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	require.NoError(t, SaveRegistry(reg, path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01T12:00:00Z", loaded.LastUpdated)
	assert.Len(t, loaded.Activities, 5)
	assert.Empty(t, Validate(loaded))
}

func TestLoadRegistry_Missing(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	reg := Build(time.Now())
	reg.Activities = reg.Activities[1:]
	reg.Activities[0].DisplayName = ""
	reg.Activities = append(reg.Activities,
		Activity{ID: "deadline-reminder", DisplayName: "Old", TaskType: "deadline-reminder", Category: "legacy"},
		Activity{ID: "smart-search", DisplayName: "Dup", TaskType: "smart-search", Category: "admission"},
	)

	problems := Validate(reg)

	var messages []string
	for _, p := range problems {
		messages = append(messages, p.Error())
	}
	assert.Contains(t, messages, "activity query-postgresql missing required field: displayName")
	assert.Contains(t, messages, "duplicate activity id: smart-search")
	assert.Contains(t, messages, "activity query-elasticsearch is not in the registry")
	assert.Contains(t, messages, "activity deadline-reminder has no worker")
}
