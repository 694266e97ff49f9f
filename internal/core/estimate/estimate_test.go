package estimate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/commission-api/internal/models"
	appErrors "github.com/noah-isme/commission-api/pkg/errors"
)

func intPtr(v int) *int { return &v }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBaseDate(t *testing.T) {
	now := day("2024-05-25")
	later := day("2024-06-10")
	earlier := day("2024-05-01")

	require.Equal(t, now, BaseDate(now, nil))
	require.Equal(t, later, BaseDate(now, &later))
	require.Equal(t, now, BaseDate(now, &earlier))
}

func TestComputeDynamicEstimate(t *testing.T) {
	base := day("2024-01-31")
	tests := []struct {
		name         string
		policy       models.DeadlinePolicy
		wantEarliest time.Time
		wantLatest   time.Time
		wantErr      error
	}{
		{
			name:         "days default unit",
			policy:       models.DeadlinePolicy{Min: intPtr(7), Max: intPtr(21)},
			wantEarliest: day("2024-02-07"),
			wantLatest:   day("2024-02-21"),
		},
		{
			name:         "zero minimum starts at base",
			policy:       models.DeadlinePolicy{Min: intPtr(0), Max: intPtr(1), Unit: models.TurnaroundDays},
			wantEarliest: base,
			wantLatest:   day("2024-02-01"),
		},
		{
			name:         "weeks",
			policy:       models.DeadlinePolicy{Min: intPtr(1), Max: intPtr(3), Unit: models.TurnaroundWeeks},
			wantEarliest: day("2024-02-07"),
			wantLatest:   day("2024-02-21"),
		},
		{
			name:         "months",
			policy:       models.DeadlinePolicy{Min: intPtr(1), Max: intPtr(2), Unit: models.TurnaroundMonths},
			wantEarliest: base.AddDate(0, 1, 0),
			wantLatest:   base.AddDate(0, 2, 0),
		},
		{name: "missing min", policy: models.DeadlinePolicy{Max: intPtr(3)}, wantErr: appErrors.ErrConfiguration},
		{name: "missing max", policy: models.DeadlinePolicy{Min: intPtr(3)}, wantErr: appErrors.ErrConfiguration},
		{name: "min equals max", policy: models.DeadlinePolicy{Min: intPtr(3), Max: intPtr(3)}, wantErr: appErrors.ErrConfiguration},
		{name: "negative min", policy: models.DeadlinePolicy{Min: intPtr(-1), Max: intPtr(3)}, wantErr: appErrors.ErrConfiguration},
		{name: "unknown unit", policy: models.DeadlinePolicy{Min: intPtr(1), Max: intPtr(3), Unit: "years"}, wantErr: appErrors.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window, err := ComputeDynamicEstimate(tt.policy, base)
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, base, window.BaseDate)
			require.Equal(t, tt.wantEarliest, window.EarliestDate)
			require.Equal(t, tt.wantLatest, window.LatestDate)
			require.True(t, window.EarliestDate.Before(window.LatestDate))
			require.False(t, window.EarliestDate.Before(window.BaseDate))
		})
	}
}

func TestComputeDynamicEstimateOrderingHolds(t *testing.T) {
	base := day("2024-03-15")
	for _, unit := range []models.TurnaroundUnit{"", models.TurnaroundDays, models.TurnaroundWeeks, models.TurnaroundMonths} {
		for lo := 0; lo < 6; lo++ {
			for hi := lo + 1; hi < 8; hi++ {
				window, err := ComputeDynamicEstimate(models.DeadlinePolicy{Min: intPtr(lo), Max: intPtr(hi), Unit: unit}, base)
				require.NoError(t, err)
				require.True(t, window.EarliestDate.Before(window.LatestDate), "%s %d..%d", unit, lo, hi)
				require.False(t, window.EarliestDate.Before(base), "%s %d..%d", unit, lo, hi)
			}
		}
	}
}

func TestResolveDeadline(t *testing.T) {
	window := Window{
		BaseDate:     day("2024-05-25"),
		EarliestDate: day("2024-06-01"),
		LatestDate:   day("2024-06-15"),
	}
	early := day("2024-05-20")
	onTime := day("2024-06-05")
	exact := day("2024-06-01")

	tests := []struct {
		name      string
		mode      models.DeadlineMode
		requested *time.Time
		want      time.Time
		wantErr   error
	}{
		{name: "standard ignores client value", mode: models.DeadlineModeStandard, requested: &early, want: day("2024-06-29")},
		{name: "standard without client value", mode: models.DeadlineModeStandard, want: day("2024-06-29")},
		{name: "withDeadline before earliest", mode: models.DeadlineModeWithDeadline, requested: &early, wantErr: appErrors.ErrValidation},
		{name: "withDeadline missing", mode: models.DeadlineModeWithDeadline, wantErr: appErrors.ErrValidation},
		{name: "withDeadline on earliest", mode: models.DeadlineModeWithDeadline, requested: &exact, want: exact},
		{name: "withDeadline after earliest", mode: models.DeadlineModeWithDeadline, requested: &onTime, want: onTime},
		{name: "withRush accepts early", mode: models.DeadlineModeWithRush, requested: &early, want: early},
		{name: "withRush falls back", mode: models.DeadlineModeWithRush, want: day("2024-06-29")},
		{name: "unknown mode", mode: "asap", requested: &onTime, wantErr: appErrors.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveDeadline(tt.mode, window, tt.requested)
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
