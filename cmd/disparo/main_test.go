package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxzi/disparo/internal/config"
	"github.com/foxzi/disparo/internal/models"
)

func TestMaskToken(t *testing.T) {
	tests := []struct {
		token    string
		expected string
	}{
		{"", "(not set)"},
		{"short", "********"},
		{"abcdefgh", "********"},
		{"abcd1234efgh5678", "abcd...5678"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskToken(tt.token))
		})
	}
}

func TestPromptConfirmer(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"s\n", true},
		{"Sim\n", true},
		{"y\n", true},
		{"yes", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"talvez\n", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			c := promptConfirmer(strings.NewReader(tt.input), &out)

			ok, err := c.Confirm(context.Background(), "Excluir?")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
			assert.Contains(t, out.String(), "Excluir? [s/N]")
		})
	}
}

func TestGenerateRandomString(t *testing.T) {
	for _, length := range []int{8, 16, 32} {
		assert.Len(t, generateRandomString(length), length)
	}
	assert.NotEqual(t, generateRandomString(32), generateRandomString(32))
}

func TestGenerateConfigLoads(t *testing.T) {
	cfg := config.Default()
	cfg.API.BaseURL = "https://campanhas.example.com/api"
	cfg.API.Token = "secret-token"
	cfg.Polling.CampaignDetail = 3 * time.Second

	data, err := generateConfig(cfg)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "disparo.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.API.BaseURL, loaded.API.BaseURL)
	assert.Equal(t, "secret-token", loaded.API.Token)
	assert.Equal(t, 3*time.Second, loaded.Polling.CampaignDetail)
	assert.Equal(t, cfg.Quota.DailyLimit, loaded.Quota.DailyLimit)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "curto", truncate("curto", 10))
	assert.Equal(t, "Campanh...", truncate("Campanha de Natal", 10))
}

func TestPrintDashboardQuotaFallback(t *testing.T) {
	tests := []struct {
		name     string
		quota    *models.DailyQuota
		fallback int
		expected string
	}{
		{"server limit", &models.DailyQuota{EmailsSent: 500, QuotaLimit: 1000}, 2000, "Quota:      500 / 1000 (50.0%)"},
		{"configured limit", &models.DailyQuota{EmailsSent: 500}, 2000, "Quota:      500 / 2000 (25.0%)"},
		{"no quota reported", nil, 0, "Quota:      0 / 4000 (0.0%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			printDashboard(&out, &models.DashboardStats{TodayQuota: tt.quota}, tt.fallback)
			assert.Contains(t, out.String(), tt.expected)
		})
	}
}

func TestWatchStopsAtFinalStatus(t *testing.T) {
	assert.False(t, campaignFinished(&models.CampaignDetail{Campaign: models.Campaign{Status: models.CampaignActive}}))
	assert.True(t, campaignFinished(&models.CampaignDetail{Campaign: models.Campaign{Status: models.CampaignCompleted}}))
	assert.False(t, listProcessed(&models.List{Status: models.ListProcessing}))
	assert.True(t, listProcessed(&models.List{Status: models.ListFailed}))
}
