package service

import (
	"bytes"
	"strconv"
	"strings"
	"text/template"

	"github.com/mansoorceksport/metafit/internal/domain"
)

const (
	defaultFitnessLevel     = "beginner"
	defaultGoals            = "general fitness"
	defaultLimitations      = "none"
	defaultTargetAreas      = "full body"
	defaultWorkoutDuration  = 30
	defaultWorkoutFrequency = 3
	unknownValue            = "unknown"

	planPromptTmplStr = `
Generate a detailed, personalized workout plan for a person with the following characteristics:
- Age: {{.Age}}
- Gender: {{.Gender}}
- Height: {{.Height}} cm
- Weight: {{.Weight}} kg
- Fitness Level: {{.FitnessLevel}}
- Goals: {{.Goals}}
- Preferred Workout Duration: {{.Duration}} minutes per session
- Workout Frequency: {{.Frequency}} times per week
- Preferred Time of Day: {{.PreferredTime}}
- Physical Limitations: {{.Limitations}}
- Target Areas: {{.TargetAreas}}

The workout plan should include:
1. A title for the overall workout plan
2. A brief description of the plan (1-2 sentences)
3. {{.Frequency}} different workouts, each with:
   - A unique title
   - A short description
   - Appropriate difficulty level (beginner, intermediate, or advanced)
   - Duration in minutes (around {{.Duration}} minutes)
   - Estimated calories burned
   - 4-8 exercises per workout with:
     - Exercise name
     - Brief description of how to perform it
     - Number of sets
     - Number of reps or duration in seconds
     - Rest time between sets in seconds

Format your response as a JSON object following this structure:
{
  "title": "Plan title",
  "description": "Plan description",
  "workouts": [
    {
      "title": "Workout title",
      "description": "Workout description",
      "level": "beginner/intermediate/advanced",
      "duration": 30,
      "caloriesBurn": 300,
      "exercises": [
        {
          "name": "Exercise name",
          "description": "Exercise description",
          "sets": 3,
          "reps": 10,
          "duration": 0,
          "restTime": 30
        }
      ]
    }
  ]
}

Important:
- For strength exercises, use reps (e.g., 10 reps) and set duration to 0
- For timed exercises, use duration in seconds (e.g., 30 seconds) and set reps to 1
- Make sure the exercises are appropriate for the person's fitness level and limitations
- Include proper warm-up and cool-down exercises
- Vary the exercises to target different muscle groups based on the goals
- Only include the JSON in your response, nothing else
`
)

var planPromptTmpl = template.Must(template.New("plan").Parse(planPromptTmplStr))

// planPromptContext holds the profile values after fallbacks are applied
type planPromptContext struct {
	Age           string
	Gender        string
	Height        string
	Weight        string
	FitnessLevel  string
	Goals         string
	Duration      int
	Frequency     int
	PreferredTime string
	Limitations   string
	TargetAreas   string
}

// FormatPlanPrompt renders the generation instruction for a profile.
// Missing or zero values fall back to defaults, so a nil profile still yields a usable prompt.
func FormatPlanPrompt(profile *domain.FitnessProfile) string {
	if profile == nil {
		profile = &domain.FitnessProfile{}
	}

	pc := planPromptContext{
		Age:           intOrUnknown(profile.Age),
		Gender:        stringOr(profile.Gender, unknownValue),
		Height:        intOrUnknown(profile.Height),
		Weight:        intOrUnknown(profile.Weight),
		FitnessLevel:  stringOr(profile.FitnessLevel, defaultFitnessLevel),
		Goals:         joinOr(profile.Goals, defaultGoals),
		Duration:      intOr(profile.WorkoutDuration, defaultWorkoutDuration),
		Frequency:     intOr(profile.WorkoutFrequency, defaultWorkoutFrequency),
		PreferredTime: stringOr(profile.PreferredTime, "any"),
		Limitations:   joinOr(profile.Limitations, defaultLimitations),
		TargetAreas:   joinOr(profile.TargetAreas, defaultTargetAreas),
	}

	var buf bytes.Buffer
	// The template is static and every field is a plain string or int
	_ = planPromptTmpl.Execute(&buf, pc)
	return buf.String()
}

func intOrUnknown(v *int) string {
	if v == nil || *v <= 0 {
		return unknownValue
	}
	return strconv.Itoa(*v)
}

func intOr(v *int, fallback int) int {
	if v == nil || *v <= 0 {
		return fallback
	}
	return *v
}

func stringOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func joinOr(items []string, fallback string) string {
	kept := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			kept = append(kept, item)
		}
	}
	if len(kept) == 0 {
		return fallback
	}
	return strings.Join(kept, ", ")
}
