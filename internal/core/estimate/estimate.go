// Package estimate computes availability windows and resolves proposal
// deadlines. Every function takes the reference time explicitly.
package estimate

import (
	"fmt"
	"time"

	"github.com/noah-isme/commission-api/internal/models"
	appErrors "github.com/noah-isme/commission-api/pkg/errors"
)

// StandardGrace is added to the latest date when the listing fixes the deadline.
const StandardGrace = 14 * 24 * time.Hour

// Window is the span in which work on a new proposal can be delivered.
type Window struct {
	BaseDate     time.Time `json:"baseDate"`
	EarliestDate time.Time `json:"earliestDate"`
	LatestDate   time.Time `json:"latestDate"`
}

// BaseDate returns the later of now and the artist's latest active contract
// deadline.
func BaseDate(now time.Time, latestContractDeadline *time.Time) time.Time {
	if latestContractDeadline != nil && latestContractDeadline.After(now) {
		return latestContractDeadline.UTC()
	}
	return now.UTC()
}

// ComputeDynamicEstimate derives the delivery window for policy starting at base.
func ComputeDynamicEstimate(policy models.DeadlinePolicy, base time.Time) (Window, error) {
	if policy.Min == nil || policy.Max == nil {
		return Window{}, appErrors.Clone(appErrors.ErrConfiguration, "listing deadline policy requires min and max turnaround")
	}
	lo, hi := *policy.Min, *policy.Max
	if lo < 0 || lo >= hi {
		return Window{}, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("invalid turnaround bounds %d..%d", lo, hi))
	}
	earliest, err := addTurnaround(base, lo, policy.Unit)
	if err != nil {
		return Window{}, err
	}
	latest, err := addTurnaround(base, hi, policy.Unit)
	if err != nil {
		return Window{}, err
	}
	return Window{BaseDate: base, EarliestDate: earliest, LatestDate: latest}, nil
}

func addTurnaround(base time.Time, n int, unit models.TurnaroundUnit) (time.Time, error) {
	switch unit {
	case "", models.TurnaroundDays:
		return base.AddDate(0, 0, n), nil
	case models.TurnaroundWeeks:
		return base.AddDate(0, 0, 7*n), nil
	case models.TurnaroundMonths:
		return base.AddDate(0, n, 0), nil
	default:
		return time.Time{}, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("unknown turnaround unit %q", unit))
	}
}

// ResolveDeadline applies the listing's deadline mode to the client's
// requested deadline against a freshly computed window.
func ResolveDeadline(mode models.DeadlineMode, window Window, requested *time.Time) (time.Time, error) {
	switch mode {
	case models.DeadlineModeStandard:
		return window.LatestDate.Add(StandardGrace), nil
	case models.DeadlineModeWithDeadline:
		if requested == nil || requested.IsZero() {
			return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "deadline is required for this listing")
		}
		if requested.Before(window.EarliestDate) {
			return time.Time{}, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("deadline must be on or after %s", window.EarliestDate.Format("2006-01-02")))
		}
		return requested.UTC(), nil
	case models.DeadlineModeWithRush:
		if requested == nil || requested.IsZero() {
			return window.LatestDate.Add(StandardGrace), nil
		}
		return requested.UTC(), nil
	default:
		return time.Time{}, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("unknown deadline mode %q", mode))
	}
}
