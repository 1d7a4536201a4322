package kcal

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ChristopherCousin/Kcal/internal/model"
	"github.com/ChristopherCousin/Kcal/internal/nutrition"
	"github.com/ChristopherCousin/Kcal/internal/service"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your body profile",
}

var (
	profileAge           int
	profileSex           string
	profileWeight        float64
	profileHeight        float64
	profileActivity      string
	profileGoal          string
	profileGoalOffset    int
	profileBodyFat       float64
	profileJob           string
	profileTraining      string
	profileTrainingHours float64
	profileDiet          string
	profileMeals         int
	profileJSON          bool
)

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or update the profile; unset flags keep their stored value",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			current, err := service.LoadProfile(sqldb)
			if err != nil {
				return err
			}
			p := model.UserProfile{Activity: 1.2, Goal: model.GoalMaintain}
			if current != nil {
				p = *current
			}
			if err := applyProfileFlags(cmd, &p); err != nil {
				return err
			}
			if err := service.SaveProfile(sqldb, p); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Saved profile")
			return nil
		})
	},
}

func applyProfileFlags(cmd *cobra.Command, p *model.UserProfile) error {
	flags := cmd.Flags()
	if flags.Changed("age") {
		p.Age = profileAge
	}
	if flags.Changed("sex") {
		p.Sex = model.Sex(strings.ToLower(strings.TrimSpace(profileSex)))
	}
	if flags.Changed("weight") {
		p.WeightKg = profileWeight
	}
	if flags.Changed("height") {
		p.HeightCm = profileHeight
	}
	if flags.Changed("activity") {
		v, err := nutrition.ParseActivity(profileActivity)
		if err != nil {
			return err
		}
		p.Activity = v
	}
	if flags.Changed("goal") {
		p.Goal = model.GoalKind(strings.ToLower(strings.TrimSpace(profileGoal)))
	}
	if flags.Changed("goal-offset") {
		v := profileGoalOffset
		p.GoalOffset = &v
	}
	if flags.Changed("bodyfat") {
		v := profileBodyFat
		p.BodyFatPct = &v
	}
	if flags.Changed("job") {
		p.JobType = profileJob
	}
	if flags.Changed("training") {
		p.TrainingType = profileTraining
	}
	if flags.Changed("training-hours") {
		v := profileTrainingHours
		p.TrainingHoursPerWeek = &v
	}
	if flags.Changed("diet") {
		p.DietType = profileDiet
	}
	if flags.Changed("meals") {
		v := profileMeals
		p.MealsPerDay = &v
	}
	return nil
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			p, err := service.LoadProfile(sqldb)
			if err != nil {
				return err
			}
			if p == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No profile configured")
				return nil
			}
			if profileJSON {
				return printJSON(cmd, p)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Age: %d\nSex: %s\nWeight: %.1f kg\nHeight: %.1f cm\n", p.Age, p.Sex, p.WeightKg, p.HeightCm)
			fmt.Fprintf(out, "Activity: %.3g\nGoal: %s\n", p.Activity, p.Goal)
			if p.GoalOffset != nil {
				fmt.Fprintf(out, "Goal offset: %+d kcal\n", *p.GoalOffset)
			}
			if p.BodyFatPct != nil {
				fmt.Fprintf(out, "Body fat: %.1f%%\n", *p.BodyFatPct)
			}
			if p.JobType != "" {
				fmt.Fprintf(out, "Job: %s\n", p.JobType)
			}
			if p.TrainingType != "" {
				fmt.Fprintf(out, "Training: %s\n", p.TrainingType)
			}
			if p.TrainingHoursPerWeek != nil {
				fmt.Fprintf(out, "Training hours/week: %.1f\n", *p.TrainingHoursPerWeek)
			}
			if p.DietType != "" {
				fmt.Fprintf(out, "Diet: %s\n", p.DietType)
			}
			if p.MealsPerDay != nil {
				fmt.Fprintf(out, "Meals/day: %d\n", *p.MealsPerDay)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileSetCmd, profileShowCmd)

	f := profileSetCmd.Flags()
	f.IntVar(&profileAge, "age", 0, "Age in years (15-100)")
	f.StringVar(&profileSex, "sex", "", "Sex: male or female")
	f.Float64Var(&profileWeight, "weight", 0, "Weight in kg")
	f.Float64Var(&profileHeight, "height", 0, "Height in cm")
	f.StringVar(&profileActivity, "activity", "", "Activity multiplier or level: "+strings.Join(nutrition.ActivityLevelNames(), ", "))
	f.StringVar(&profileGoal, "goal", "", "Goal: lose, maintain or gain")
	f.IntVar(&profileGoalOffset, "goal-offset", 0, "Daily kcal offset overriding the default ±500 (negative for a deficit)")
	f.Float64Var(&profileBodyFat, "bodyfat", 0, "Body fat percentage")
	f.StringVar(&profileJob, "job", "", "Job type, e.g. desk, standing, physical")
	f.StringVar(&profileTraining, "training", "", "Training type, e.g. strength, cardio, mixed")
	f.Float64Var(&profileTrainingHours, "training-hours", 0, "Training hours per week")
	f.StringVar(&profileDiet, "diet", "", "Diet type, e.g. omnivore, vegetarian")
	f.IntVar(&profileMeals, "meals", 0, "Meals per day")

	profileShowCmd.Flags().BoolVar(&profileJSON, "json", false, "Print the profile as JSON")
}
