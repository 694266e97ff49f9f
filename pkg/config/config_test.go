package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PROPOSAL_EXPIRY_THRESHOLD", "")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 7*24*time.Hour, cfg.Proposals.ExpiryThreshold)
	require.Equal(t, 5*time.Minute, cfg.Sweeper.Interval)
	require.Equal(t, "commission.events", cfg.Events.Exchange)
	require.Equal(t, []string{"image/png", "image/jpeg", "image/webp", "image/gif"}, cfg.Uploads.AllowedMIMEs)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("PROPOSAL_EXPIRY_THRESHOLD", "72h")
	t.Setenv("EXPIRY_SWEEP_INTERVAL", "not-a-duration")
	t.Setenv("PUBLIC_BASE_URL", "https://cdn.example.com/")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 72*time.Hour, cfg.Proposals.ExpiryThreshold)
	require.Equal(t, 5*time.Minute, cfg.Sweeper.Interval)
	require.Equal(t, "https://cdn.example.com", cfg.PublicBaseURL)
}

func TestSplitAndTrim(t *testing.T) {
	require.Nil(t, splitAndTrim(""))
	require.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b "))
}
