package nutrition

import (
	"fmt"
	"math"
	"strings"

	"github.com/ChristopherCousin/Kcal/internal/model"
)

type Status string

const (
	StatusNoGoals  Status = "no goals"
	StatusStart    Status = "start"
	StatusDeficit  Status = "deficit"
	StatusSurplus  Status = "surplus"
	StatusBalanced Status = "balanced"
)

// balanceBand is the share of the calorie goal treated as on target.
const balanceBand = 0.10

func GoalStatus(totals model.Macros, goals *model.UserGoals) Status {
	if goals == nil || goals.Kcal <= 0 {
		return StatusNoGoals
	}
	if totals.Kcal <= 0 {
		return StatusStart
	}
	diff := totals.Kcal - float64(goals.Kcal)
	threshold := float64(goals.Kcal) * balanceBand
	switch {
	case diff < -threshold:
		return StatusDeficit
	case diff > threshold:
		return StatusSurplus
	default:
		return StatusBalanced
	}
}

// Progress holds intake as a percentage of each goal, uncapped.
type Progress struct {
	Kcal    float64 `json:"kcal"`
	Protein float64 `json:"protein"`
	Carb    float64 `json:"carb"`
	Fat     float64 `json:"fat"`
}

func ProgressOf(totals model.Macros, goals *model.UserGoals) Progress {
	if goals == nil {
		return Progress{}
	}
	return Progress{
		Kcal:    percent(totals.Kcal, goals.Kcal),
		Protein: percent(totals.ProteinG, goals.ProteinG),
		Carb:    percent(totals.CarbG, goals.CarbG),
		Fat:     percent(totals.FatG, goals.FatG),
	}
}

func percent(value float64, goal int) float64 {
	if goal <= 0 {
		return 0
	}
	return value / float64(goal) * 100
}

// Bar renders a fixed-width bar for a percentage, clamped to 0..100.
func Bar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	clamped := math.Max(0, math.Min(100, pct))
	filled := int(math.Round(clamped / 100 * float64(width)))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

// goalDirection reads the intended direction from the profile, preferring
// an explicit offset over the goal kind.
func goalDirection(p *model.UserProfile) model.GoalKind {
	if p == nil {
		return model.GoalMaintain
	}
	if p.GoalOffset != nil {
		switch {
		case *p.GoalOffset < 0:
			return model.GoalLose
		case *p.GoalOffset > 0:
			return model.GoalGain
		default:
			return model.GoalMaintain
		}
	}
	if p.Goal == "" {
		return model.GoalMaintain
	}
	return p.Goal
}

// Coach picks a short comment on the day's intake. At most one comment
// is returned even when several thresholds trip.
func Coach(totals model.Macros, goals *model.UserGoals, profile *model.UserProfile) string {
	if goals == nil || goals.Kcal <= 0 {
		return "Set your daily goals to get personalised advice."
	}
	if totals.Kcal == 0 {
		if profile != nil && profile.WeightKg > 0 {
			return "Your goals are ready. Log your first meal to start tracking."
		}
		return "Log your first meal to see how you are doing."
	}

	pct := ProgressOf(totals, goals)
	direction := goalDirection(profile)

	var comments []string
	switch {
	case pct.Kcal > 115:
		tail := "Consider eating a little less tomorrow."
		if direction == model.GoalGain {
			tail = "Great for your goal."
		}
		comments = append(comments, fmt.Sprintf("Calories are very high (%d%%). %s", roundPct(pct.Kcal), tail))
	case pct.Kcal > 105:
		tail := "Watch the extras."
		if direction == model.GoalGain {
			tail = "Nice."
		}
		comments = append(comments, fmt.Sprintf("Calories are a bit high (%d%%). %s", roundPct(pct.Kcal), tail))
	case pct.Kcal < 60:
		tail := "Consider adding something more."
		if direction == model.GoalLose {
			tail = "Make sure you are not restricting too much."
		}
		comments = append(comments, fmt.Sprintf("Calories are low (%d%%). %s", roundPct(pct.Kcal), tail))
	case pct.Kcal < 80:
		tail := "more nutritious food."
		if direction == model.GoalLose {
			tail = "a healthy snack."
		}
		comments = append(comments, "You still have room for "+tail)
	}

	if pct.Protein < 70 {
		comments = append(comments, fmt.Sprintf("Protein is low (%d%%). Good sources: chicken, fish, eggs, tofu, legumes.", roundPct(pct.Protein)))
	} else if pct.Protein > 130 && len(comments) < 2 {
		comments = append(comments, fmt.Sprintf("Protein is high (%d%%). Great for keeping or building muscle.", roundPct(pct.Protein)))
	}
	if pct.Carb < 70 && len(comments) < 2 {
		comments = append(comments, fmt.Sprintf("Carbs are low (%d%%). For more energy add rice, potato, fruit or oats.", roundPct(pct.Carb)))
	}
	if pct.Fat < 70 && len(comments) < 2 {
		comments = append(comments, fmt.Sprintf("Healthy fats are low (%d%%). Try avocado, nuts or olive oil.", roundPct(pct.Fat)))
	}

	if len(comments) == 0 {
		if pct.Kcal > 90 && pct.Kcal < 110 && pct.Protein > 90 && pct.Carb > 85 && pct.Fat > 85 {
			return "Excellent. All your macros are well balanced. Keep it up."
		}
		return "Your nutrition is on track. Consistency is what gets you to your goals."
	}
	return comments[0]
}

func roundPct(v float64) int {
	return int(math.Round(v))
}
