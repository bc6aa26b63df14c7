package members

import (
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/shopspring/decimal"
)

// WeeklyTargets divides the savings window into week-aligned buckets, from
// the Monday of start's week to the Monday of end's week, and returns the
// cumulative target balance for each week rounded to two decimal places:
// goal / numWeeks * (i+1) for week i.
func WeeklyTargets(start, end time.Time, goal decimal.Decimal) ([]decimal.Decimal, error) {
	monday1 := mondayOf(start)
	monday2 := mondayOf(end)

	// count calendar weeks; a DST spring-forward week is shorter than 168h
	numWeeks := 0
	for m := monday1; m.Before(monday2); m = m.AddDate(0, 0, 7) {
		numWeeks++
	}
	if numWeeks <= 0 {
		return nil, ErrInvalidDateRange
	}

	increment := goal.Div(decimal.NewFromInt(int64(numWeeks)))

	targets := make([]decimal.Decimal, numWeeks)
	for i := range targets {
		targets[i] = increment.Mul(decimal.NewFromInt(int64(i + 1))).Round(2)
	}

	return targets, nil
}

// ProjectSavings computes the weekly targets for an account's configured
// savings window. It reads account fields only; no side effects.
func ProjectSavings(account *Account) ([]decimal.Decimal, error) {
	if account == nil {
		return nil, goerrors.New("account must not be nil", goerrors.CategoryBadInput)
	}

	if account.SavingsStartDate == nil || account.SavingsEndDate == nil {
		return nil, ErrInvalidDateRange
	}

	goal := decimal.NewFromInt(account.GoalAmount)
	return WeeklyTargets(*account.SavingsStartDate, *account.SavingsEndDate, goal)
}

// mondayOf truncates t to midnight on the Monday of its ISO week.
func mondayOf(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
