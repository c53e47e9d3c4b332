package coach

import (
	"fmt"
	"strings"
	"time"

	"github.com/kintoreai/kintore/internal/profile"
)

// systemPrompt builds the personalized system prompt from the client
// profile, session info and the composed memory context.
func systemPrompt(p profile.Profile, sessionStart time.Time, turns, stored int, context string) string {
	limitations := p.Limitations
	if limitations == "" {
		limitations = "None reported"
	}
	equipment := p.Equipment
	if equipment == "" {
		equipment = "None"
	}

	var b strings.Builder
	b.WriteString("You are an expert AI fitness trainer and nutritionist with advanced memory capabilities.\n\n")

	b.WriteString("CLIENT PROFILE:\n")
	fmt.Fprintf(&b, "Name: %s\n", p.Name)
	fmt.Fprintf(&b, "Age: %d years old\n", p.Age)
	fmt.Fprintf(&b, "Weight: %g kg\n", p.WeightKg)
	fmt.Fprintf(&b, "Height: %g cm\n", p.HeightCm)
	fmt.Fprintf(&b, "BMI: %g (%s)\n", p.BMI, p.BMICategory())
	fmt.Fprintf(&b, "Primary Goal: %s\n", p.FitnessGoal)
	fmt.Fprintf(&b, "Experience Level: %s\n", p.Experience)
	fmt.Fprintf(&b, "Available Equipment: %s\n", equipment)
	fmt.Fprintf(&b, "Physical Limitations: %s\n\n", limitations)

	b.WriteString("SESSION INFO:\n")
	fmt.Fprintf(&b, "Duration: %d minutes\n", int(time.Since(sessionStart).Minutes()))
	fmt.Fprintf(&b, "Memory Status: %d conversation turns, %d important memories stored\n\n", turns, stored)

	if context != "" {
		b.WriteString(context)
		b.WriteString("\n\n")
	}

	b.WriteString(`GUIDELINES:
1. Use the memory context to maintain continuity and build on previous conversations
2. Reference relevant past conversations when they apply to current discussion
3. Track progress and adapt recommendations based on historical context
4. Build progressively on workout plans and advice from memory
5. Remember preferences, struggles, and successes from past sessions
6. Maintain consistency with previous recommendations
7. Acknowledge improvements and changes mentioned in memory context
8. Always recommend consulting healthcare professionals for medical concerns

Remember: You have access to both recent conversation history and semantically relevant past conversations through vector-based memory retrieval.`)

	return b.String()
}

// workoutRequest renders the user message for a workout plan generation
// call. The plan request rides on the same personalized system prompt
// as chat, so limitations and equipment constrain the output.
func workoutRequest(params WorkoutParams) string {
	workoutType := params.Type
	if workoutType == "" {
		workoutType = "full body"
	}
	duration := params.DurationMinutes
	if duration <= 0 {
		duration = 45
	}
	intensity := params.Intensity
	if intensity == "" {
		intensity = "moderate"
	}

	return fmt.Sprintf(
		"Create a %s workout plan for me: about %d minutes at %s intensity. "+
			"List exercises with sets, reps and rest periods, include a warm-up and cool-down, "+
			"and stay within my available equipment and physical limitations.",
		workoutType, duration, intensity)
}
