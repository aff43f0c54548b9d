package service

import (
	"strings"
	"testing"

	"github.com/mansoorceksport/metafit/internal/domain"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPlanJSON = `{
  "title": "Strength Starter",
  "description": "Three full-body sessions a week.",
  "workouts": [
    {
      "id": "model-supplied-id",
      "title": "Day A",
      "description": "Push focus",
      "level": "beginner",
      "duration": 30,
      "caloriesBurn": 250,
      "exercises": [
        {"name": "Push-up", "description": "Chest to floor", "sets": 3, "reps": 10, "duration": 0, "restTime": 30},
        {"name": "Plank", "description": "Hold", "sets": 2, "reps": 1, "duration": 45, "restTime": 20}
      ]
    },
    {
      "title": "Day B",
      "description": "Pull focus",
      "level": "Intermediate",
      "duration": 35,
      "caloriesBurn": 300,
      "exercises": [
        {"name": "Row", "description": "Band row", "sets": 3, "reps": 12, "duration": 0, "restTime": 45}
      ]
    }
  ]
}`

func TestParsePlan_Valid(t *testing.T) {
	plan, err := ParsePlan(validPlanJSON)
	require.NoError(t, err)

	assert.Equal(t, "Strength Starter", plan.Title)
	require.Len(t, plan.Workouts, 2)

	dayA := plan.Workouts[0]
	assert.Equal(t, "Day A", dayA.Title)
	assert.Equal(t, domain.LevelBeginner, dayA.Level)
	assert.Equal(t, 2, dayA.ExerciseCount)
	assert.Equal(t, 250, dayA.CaloriesBurn)
	assert.Equal(t, plan.ID, dayA.PlanID)
	assert.NotEqual(t, "model-supplied-id", dayA.ID)

	plank := dayA.Exercises[1]
	assert.Equal(t, "Plank", plank.Name)
	assert.Equal(t, 45, plank.Duration)
	assert.True(t, plank.Timed())
	assert.Equal(t, 1, plank.Position)
	assert.Equal(t, dayA.ID, plank.WorkoutID)
	assert.False(t, plank.CreatedAt.IsZero())
	assert.Equal(t, dayA.CreatedAt, plank.CreatedAt)

	assert.Equal(t, domain.LevelIntermediate, plan.Workouts[1].Level)
	assert.Equal(t, 1, plan.Workouts[1].Position)
}

func TestParsePlan_AssignsFreshUniqueIDs(t *testing.T) {
	first, err := ParsePlan(validPlanJSON)
	require.NoError(t, err)
	second, err := ParsePlan(validPlanJSON)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, plan := range []*domain.WorkoutPlan{first, second} {
		ids := []string{plan.ID}
		for _, w := range plan.Workouts {
			ids = append(ids, w.ID)
			for _, ex := range w.Exercises {
				ids = append(ids, ex.ID)
			}
		}
		for _, id := range ids {
			_, err := ulid.Parse(id)
			assert.NoError(t, err, "id %q is not a ULID", id)
			assert.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
	}
}

func TestParsePlan_Fences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"json fence", "Here is your plan:\n```json\n" + validPlanJSON + "\n```\nEnjoy!"},
		{"plain fence", "```\n" + validPlanJSON + "\n```"},
		{"no fence with whitespace", "\n\n  " + validPlanJSON + "  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := ParsePlan(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, "Strength Starter", plan.Title)
		})
	}
}

func TestParsePlan_Malformed(t *testing.T) {
	removeField := func(field string) string {
		return strings.Replace(validPlanJSON, field, `"removed": 0,`, 1)
	}

	tests := []struct {
		name     string
		raw      string
		wantPath string
	}{
		{"empty text", "   ", "empty response"},
		{"prose only", "Sorry, I cannot help with that.", "invalid JSON"},
		{"truncated", validPlanJSON[:200], "invalid JSON"},
		{"missing plan title", removeField(`"title": "Strength Starter",`), "title"},
		{"missing workout level", removeField(`"level": "beginner",`), "workouts[0].level"},
		{"missing exercise sets", strings.Replace(validPlanJSON, `"name": "Row", "description": "Band row", "sets": 3,`, `"name": "Row", "description": "Band row",`, 1), "workouts[1].exercises[0].sets"},
		{"missing rest time", strings.Replace(validPlanJSON, `"duration": 45, "restTime": 20`, `"duration": 45`, 1), "workouts[0].exercises[1].restTime"},
		{"unknown level", strings.Replace(validPlanJSON, `"level": "beginner"`, `"level": "expert"`, 1), "workouts[0].level"},
		{"zero sets", strings.Replace(validPlanJSON, `"sets": 2`, `"sets": 0`, 1), "workouts[0].exercises[1].sets"},
		{"negative rest", strings.Replace(validPlanJSON, `"restTime": 45`, `"restTime": -5`, 1), "workouts[1].exercises[0].restTime"},
		{"huge sets", strings.Replace(validPlanJSON, `"sets": 2`, `"sets": 1e20`, 1), "workouts[0].exercises[1].sets is out of range"},
		{"huge negative calories", strings.Replace(validPlanJSON, `"caloriesBurn": 300`, `"caloriesBurn": -1e20`, 1), "workouts[1].caloriesBurn is out of range"},
		{"fractional reps", strings.Replace(validPlanJSON, `"reps": 12`, `"reps": 12.5`, 1), "workouts[1].exercises[0].reps"},
		{"no workouts", `{"title": "t", "description": "d", "workouts": []}`, "workouts"},
		{"no exercises", `{"title": "t", "description": "d", "workouts": [{"title": "w", "description": "d", "level": "beginner", "duration": 10, "caloriesBurn": 50, "exercises": []}]}`, "workouts[0].exercises"},
		{"wrong type", strings.Replace(validPlanJSON, `"sets": 3, "reps": 10`, `"sets": "three", "reps": 10`, 1), "invalid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := ParsePlan(tt.raw)
			assert.Nil(t, plan)
			require.ErrorIs(t, err, domain.ErrMalformedPlan)
			assert.Contains(t, err.Error(), tt.wantPath)
		})
	}
}
