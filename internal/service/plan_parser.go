package service

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mansoorceksport/metafit/internal/domain"
	"github.com/oklog/ulid/v2"
)

const (
	jsonFence  = "```json"
	plainFence = "```"
)

// Loosely typed mirror of the generated JSON. Pointers tell "missing" apart from zero.
type rawPlan struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	Workouts    []*rawWorkout `json:"workouts"`
}

type rawWorkout struct {
	Title        *string        `json:"title"`
	Description  *string        `json:"description"`
	Level        *string        `json:"level"`
	Duration     *float64       `json:"duration"`
	CaloriesBurn *float64       `json:"caloriesBurn"`
	Exercises    []*rawExercise `json:"exercises"`
}

type rawExercise struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Sets        *float64 `json:"sets"`
	Reps        *float64 `json:"reps"`
	Duration    *float64 `json:"duration"`
	RestTime    *float64 `json:"restTime"`
}

// ParsePlan extracts, validates and identifies a plan from generated text.
// Every failure wraps domain.ErrMalformedPlan and names the offending field path.
func ParsePlan(raw string) (*domain.WorkoutPlan, error) {
	body := extractJSONBlock(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", domain.ErrMalformedPlan)
	}

	var rp rawPlan
	if err := json.Unmarshal([]byte(body), &rp); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", domain.ErrMalformedPlan, err)
	}

	now := time.Now()
	plan := &domain.WorkoutPlan{ID: newID(), CreatedAt: now}

	var err error
	if plan.Title, err = requireString(rp.Title, "title"); err != nil {
		return nil, err
	}
	if plan.Description, err = requireString(rp.Description, "description"); err != nil {
		return nil, err
	}
	if len(rp.Workouts) == 0 {
		return nil, malformed("workouts", "must contain at least one workout")
	}

	plan.Workouts = make([]*domain.Workout, 0, len(rp.Workouts))
	for i, rw := range rp.Workouts {
		w, err := convertWorkout(rw, fmt.Sprintf("workouts[%d]", i))
		if err != nil {
			return nil, err
		}
		w.PlanID = plan.ID
		w.Position = i
		w.CreatedAt = now
		for _, ex := range w.Exercises {
			ex.CreatedAt = now
		}
		plan.Workouts = append(plan.Workouts, w)
	}

	return plan, nil
}

func convertWorkout(rw *rawWorkout, path string) (*domain.Workout, error) {
	if rw == nil {
		return nil, malformed(path, "is null")
	}

	w := &domain.Workout{ID: newID()}
	var err error
	if w.Title, err = requireString(rw.Title, path+".title"); err != nil {
		return nil, err
	}
	if w.Description, err = requireString(rw.Description, path+".description"); err != nil {
		return nil, err
	}

	level, err := requireString(rw.Level, path+".level")
	if err != nil {
		return nil, err
	}
	w.Level = domain.Level(strings.ToLower(strings.TrimSpace(level)))
	if !w.Level.Valid() {
		return nil, malformed(path+".level", fmt.Sprintf("unknown level %q", level))
	}

	if w.Duration, err = requireInt(rw.Duration, path+".duration", 0); err != nil {
		return nil, err
	}
	if w.CaloriesBurn, err = requireInt(rw.CaloriesBurn, path+".caloriesBurn", 0); err != nil {
		return nil, err
	}

	if len(rw.Exercises) == 0 {
		return nil, malformed(path+".exercises", "must contain at least one exercise")
	}
	w.Exercises = make([]*domain.Exercise, 0, len(rw.Exercises))
	for j, re := range rw.Exercises {
		ex, err := convertExercise(re, fmt.Sprintf("%s.exercises[%d]", path, j))
		if err != nil {
			return nil, err
		}
		ex.WorkoutID = w.ID
		ex.Position = j
		w.Exercises = append(w.Exercises, ex)
	}
	w.ExerciseCount = len(w.Exercises)

	return w, nil
}

func convertExercise(re *rawExercise, path string) (*domain.Exercise, error) {
	if re == nil {
		return nil, malformed(path, "is null")
	}

	ex := &domain.Exercise{ID: newID()}
	var err error
	if ex.Name, err = requireString(re.Name, path+".name"); err != nil {
		return nil, err
	}
	if ex.Description, err = requireString(re.Description, path+".description"); err != nil {
		return nil, err
	}
	if ex.Sets, err = requireInt(re.Sets, path+".sets", 1); err != nil {
		return nil, err
	}
	if ex.Reps, err = requireInt(re.Reps, path+".reps", 0); err != nil {
		return nil, err
	}
	if ex.Duration, err = requireInt(re.Duration, path+".duration", 0); err != nil {
		return nil, err
	}
	if ex.RestTime, err = requireInt(re.RestTime, path+".restTime", 0); err != nil {
		return nil, err
	}
	return ex, nil
}

// extractJSONBlock strips a markdown code fence if present
func extractJSONBlock(text string) string {
	if _, after, ok := strings.Cut(text, jsonFence); ok {
		block, _, _ := strings.Cut(after, plainFence)
		return strings.TrimSpace(block)
	}
	if _, after, ok := strings.Cut(text, plainFence); ok {
		block, _, _ := strings.Cut(after, plainFence)
		return strings.TrimSpace(block)
	}
	return strings.TrimSpace(text)
}

func requireString(v *string, path string) (string, error) {
	if v == nil {
		return "", malformed(path, "is required")
	}
	return *v, nil
}

// requireInt accepts whole JSON numbers not below min
func requireInt(v *float64, path string, min int) (int, error) {
	if v == nil {
		return 0, malformed(path, "is required")
	}
	if *v > math.MaxInt32 || *v < math.MinInt32 {
		return 0, malformed(path, "is out of range")
	}
	n := int(*v)
	if float64(n) != *v {
		return 0, malformed(path, "must be a whole number")
	}
	if n < min {
		return 0, malformed(path, fmt.Sprintf("must be at least %d", min))
	}
	return n, nil
}

func malformed(path, reason string) error {
	return fmt.Errorf("%w: %s %s", domain.ErrMalformedPlan, path, reason)
}

func newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
