package model

import "time"

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

type GoalKind string

const (
	GoalLose     GoalKind = "lose"
	GoalMaintain GoalKind = "maintain"
	GoalGain     GoalKind = "gain"
)

// UserProfile is stored wholesale under the userProfile state key.
type UserProfile struct {
	Age                  int      `json:"age"`
	Sex                  Sex      `json:"sex"`
	WeightKg             float64  `json:"weight"`
	HeightCm             float64  `json:"height"`
	Activity             float64  `json:"activity"`
	Goal                 GoalKind `json:"goal"`
	GoalOffset           *int     `json:"goalDeficit,omitempty"`
	BodyFatPct           *float64 `json:"bodyfat,omitempty"`
	JobType              string   `json:"jobType,omitempty"`
	TrainingType         string   `json:"trainingType,omitempty"`
	TrainingHoursPerWeek *float64 `json:"trainingFrequency,omitempty"`
	DietType             string   `json:"dietType,omitempty"`
	MealsPerDay          *int     `json:"mealsPerDay,omitempty"`
}

// UserGoals is stored wholesale under the userGoals state key.
type UserGoals struct {
	Kcal     int `json:"kcal"`
	ProteinG int `json:"protein"`
	CarbG    int `json:"carb"`
	FatG     int `json:"fat"`
}

type Macros struct {
	Kcal     float64 `json:"kcal"`
	ProteinG float64 `json:"protein"`
	CarbG    float64 `json:"carb"`
	FatG     float64 `json:"fat"`
}

func (m Macros) Add(o Macros) Macros {
	return Macros{
		Kcal:     m.Kcal + o.Kcal,
		ProteinG: m.ProteinG + o.ProteinG,
		CarbG:    m.CarbG + o.CarbG,
		FatG:     m.FatG + o.FatG,
	}
}

func (m Macros) Scale(f float64) Macros {
	return Macros{Kcal: m.Kcal * f, ProteinG: m.ProteinG * f, CarbG: m.CarbG * f, FatG: m.FatG * f}
}

const (
	SourceManual     = "manual"
	SourceQuickAdd   = "quick-add"
	SourceCommonMeal = "common-meal"
	SourceSearch     = "search"
	SourceAIPhoto    = "ai-photo"
)

type FoodEntry struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Macros      Macros    `json:"macros"`
	Source      string    `json:"source"`
	Meal        string    `json:"meal,omitempty"`
	ImageRef    string    `json:"imageRef,omitempty"`
	ConsumedAt  time.Time `json:"timestamp"`
}

type CalculationRecord struct {
	ID           int64     `json:"id"`
	CalculatedAt time.Time `json:"date"`
	BMR          float64   `json:"bmr"`
	Maintenance  int       `json:"maintenance"`
	GoalKcal     int       `json:"goal"`
	ProteinG     int       `json:"protein"`
	CarbG        int       `json:"carb"`
	FatG         int       `json:"fat"`
	Source       string    `json:"source"`
}

// SumMacros reduces entries to their macro totals. Totals are never stored.
func SumMacros(entries []FoodEntry) Macros {
	var total Macros
	for _, e := range entries {
		total = total.Add(e.Macros)
	}
	return total
}
