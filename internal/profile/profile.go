// Package profile holds the validated user fitness profile with its derived BMI.
package profile

import (
	"fmt"
	"math"
	"time"
)

// Profile is a user's fitness profile. BMI is derived and recomputed
// whenever weight or height changes.
type Profile struct {
	Name        string    `json:"name"`
	Age         int       `json:"age"`
	WeightKg    float64   `json:"weight_kg"`
	HeightCm    float64   `json:"height_cm"`
	BMI         float64   `json:"bmi"`
	FitnessGoal string    `json:"fitness_goal"`
	Experience  string    `json:"experience"`
	Equipment   string    `json:"equipment"`
	Limitations string    `json:"limitations"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValidationError reports a missing or malformed profile field.
// It is user-correctable and never retryable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid profile field %q: %s", e.Field, e.Reason)
}

var requiredFields = []string{"name", "age", "weight", "height", "fitness_goal", "experience"}

var numericFields = map[string]bool{"age": true, "weight": true, "height": true}

// New validates raw profile data and builds a Profile. Required fields are
// name, age, weight, height, fitness_goal and experience; age, weight and
// height must be numeric. Equipment and limitations are optional.
func New(data map[string]any) (*Profile, error) {
	for _, f := range requiredFields {
		v, ok := data[f]
		if !ok || v == nil {
			return nil, &ValidationError{Field: f, Reason: "missing required field"}
		}
		if numericFields[f] {
			if _, err := toFloat(v); err != nil {
				return nil, &ValidationError{Field: f, Reason: "must be numeric"}
			}
		} else if s, ok := v.(string); !ok || s == "" {
			return nil, &ValidationError{Field: f, Reason: "must be a non-empty string"}
		}
	}

	age, _ := toFloat(data["age"])
	weight, _ := toFloat(data["weight"])
	height, _ := toFloat(data["height"])
	if weight <= 0 {
		return nil, &ValidationError{Field: "weight", Reason: "must be positive"}
	}
	if height <= 0 {
		return nil, &ValidationError{Field: "height", Reason: "must be positive"}
	}

	now := time.Now()
	p := &Profile{
		Name:        data["name"].(string),
		Age:         int(age),
		WeightKg:    weight,
		HeightCm:    height,
		FitnessGoal: data["fitness_goal"].(string),
		Experience:  data["experience"].(string),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if eq, ok := data["equipment"].(string); ok {
		p.Equipment = eq
	}
	if lim, ok := data["limitations"].(string); ok {
		p.Limitations = lim
	}
	p.recomputeBMI()
	return p, nil
}

// Update applies whitelisted fields from partial data and recomputes BMI
// when weight or height changed. Unknown fields are ignored.
func (p *Profile) Update(data map[string]any) error {
	dims := false
	for field, v := range data {
		switch field {
		case "name", "fitness_goal", "experience", "equipment", "limitations":
			s, ok := v.(string)
			if !ok {
				return &ValidationError{Field: field, Reason: "must be a string"}
			}
			switch field {
			case "name":
				p.Name = s
			case "fitness_goal":
				p.FitnessGoal = s
			case "experience":
				p.Experience = s
			case "equipment":
				p.Equipment = s
			case "limitations":
				p.Limitations = s
			}
		case "age":
			f, err := toFloat(v)
			if err != nil {
				return &ValidationError{Field: "age", Reason: "must be numeric"}
			}
			p.Age = int(f)
		case "weight":
			f, err := toFloat(v)
			if err != nil || f <= 0 {
				return &ValidationError{Field: "weight", Reason: "must be a positive number"}
			}
			p.WeightKg = f
			dims = true
		case "height":
			f, err := toFloat(v)
			if err != nil || f <= 0 {
				return &ValidationError{Field: "height", Reason: "must be a positive number"}
			}
			p.HeightCm = f
			dims = true
		}
	}
	if dims {
		p.recomputeBMI()
	}
	p.UpdatedAt = time.Now()
	return nil
}

// recomputeBMI derives BMI = weight / (height/100)^2, rounded to 1 decimal.
func (p *Profile) recomputeBMI() {
	heightM := p.HeightCm / 100
	p.BMI = math.Round(p.WeightKg/(heightM*heightM)*10) / 10
}

// BMICategory buckets the derived BMI for prompt personalization.
func (p *Profile) BMICategory() string {
	switch {
	case p.BMI < 18.5:
		return "underweight"
	case p.BMI < 25:
		return "normal weight"
	case p.BMI < 30:
		return "overweight"
	default:
		return "obese"
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}
