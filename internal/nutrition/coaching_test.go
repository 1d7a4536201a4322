package nutrition

import (
	"strings"
	"testing"

	"github.com/ChristopherCousin/Kcal/internal/model"
)

func TestGoalStatus(t *testing.T) {
	t.Parallel()

	goals := &model.UserGoals{Kcal: 2000, ProteinG: 150, CarbG: 200, FatG: 60}
	cases := []struct {
		name   string
		kcal   float64
		goals  *model.UserGoals
		expect Status
	}{
		{"no goals", 500, nil, StatusNoGoals},
		{"nothing eaten", 0, goals, StatusStart},
		{"deficit", 1500, goals, StatusDeficit},
		{"surplus", 2300, goals, StatusSurplus},
		{"lower edge balanced", 1800, goals, StatusBalanced},
		{"upper edge balanced", 2200, goals, StatusBalanced},
	}
	for _, tc := range cases {
		if got := GoalStatus(model.Macros{Kcal: tc.kcal}, tc.goals); got != tc.expect {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.expect, got)
		}
	}
}

func TestBarClampsToWidth(t *testing.T) {
	t.Parallel()

	if got := Bar(150, 10); got != "[##########]" {
		t.Fatalf("expected full bar, got %q", got)
	}
	if got := Bar(-5, 4); got != "[....]" {
		t.Fatalf("expected empty bar, got %q", got)
	}
	if got := Bar(50, 4); got != "[##..]" {
		t.Fatalf("expected half bar, got %q", got)
	}
}

func TestCoachComments(t *testing.T) {
	t.Parallel()

	goals := &model.UserGoals{Kcal: 2000, ProteinG: 100, CarbG: 250, FatG: 60}
	gain := &model.UserProfile{WeightKg: 70, Goal: model.GoalGain}
	lose := &model.UserProfile{WeightKg: 70, Goal: model.GoalLose}

	if got := Coach(model.Macros{}, nil, nil); !strings.Contains(got, "Set your daily goals") {
		t.Fatalf("unexpected no-goal comment %q", got)
	}
	if got := Coach(model.Macros{}, goals, lose); !strings.Contains(got, "first meal") {
		t.Fatalf("unexpected empty-day comment %q", got)
	}

	over := model.Macros{Kcal: 2400, ProteinG: 100, CarbG: 250, FatG: 60}
	if got := Coach(over, goals, gain); !strings.Contains(got, "Great for your goal") {
		t.Fatalf("expected gain-friendly comment, got %q", got)
	}
	if got := Coach(over, goals, lose); !strings.Contains(got, "eating a little less") {
		t.Fatalf("expected caution comment, got %q", got)
	}

	lowProtein := model.Macros{Kcal: 2000, ProteinG: 40, CarbG: 250, FatG: 60}
	if got := Coach(lowProtein, goals, lose); !strings.HasPrefix(got, "Protein is low (40%)") {
		t.Fatalf("expected protein comment, got %q", got)
	}

	balanced := model.Macros{Kcal: 2000, ProteinG: 100, CarbG: 250, FatG: 60}
	if got := Coach(balanced, goals, lose); !strings.HasPrefix(got, "Excellent") {
		t.Fatalf("expected balanced comment, got %q", got)
	}
}

func TestCoachUsesOffsetSignForDirection(t *testing.T) {
	t.Parallel()

	goals := &model.UserGoals{Kcal: 2000, ProteinG: 100, CarbG: 250, FatG: 60}
	surplus := 300
	profile := &model.UserProfile{WeightKg: 70, Goal: model.GoalLose, GoalOffset: &surplus}
	over := model.Macros{Kcal: 2400, ProteinG: 100, CarbG: 250, FatG: 60}
	if got := Coach(over, goals, profile); !strings.Contains(got, "Great for your goal") {
		t.Fatalf("expected positive offset to read as gain, got %q", got)
	}
}
