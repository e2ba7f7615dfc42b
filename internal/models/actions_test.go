package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaignActions(t *testing.T) {
	tests := []struct {
		status CampaignStatus
		want   []Action
	}{
		{CampaignDraft, []Action{ActionStart, ActionDelete}},
		{CampaignActive, []Action{ActionPause, ActionDelete}},
		{CampaignPaused, []Action{ActionResume, ActionDelete}},
		{CampaignCompleted, []Action{ActionDelete}},
		{"archived", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, CampaignActions(tt.status))
		})
	}
}

func TestCampaignStatusNext(t *testing.T) {
	next, ok := CampaignDraft.Next(ActionStart)
	require.True(t, ok)
	assert.Equal(t, CampaignActive, next)

	next, ok = CampaignActive.Next(ActionPause)
	require.True(t, ok)
	assert.Equal(t, CampaignPaused, next)

	next, ok = CampaignPaused.Next(ActionResume)
	require.True(t, ok)
	assert.Equal(t, CampaignActive, next)

	_, ok = CampaignDraft.Next(ActionPause)
	assert.False(t, ok, "pause must not be offered for a draft")

	for _, a := range []Action{ActionStart, ActionPause, ActionResume} {
		_, ok = CampaignCompleted.Next(a)
		assert.False(t, ok, "completed is terminal")
	}
	assert.True(t, CampaignCompleted.Terminal())
	assert.False(t, CampaignStatus("archived").Known())
}

func TestCampaignAllows(t *testing.T) {
	assert.True(t, CampaignAllows(CampaignDraft, ActionStart))
	assert.False(t, CampaignAllows(CampaignDraft, ActionPause))
	assert.False(t, CampaignAllows("weird", ActionDelete))
}

func TestListStatusTerminal(t *testing.T) {
	assert.False(t, ListProcessing.Terminal())
	assert.True(t, ListCompleted.Terminal())
	assert.True(t, ListFailed.Terminal())
	assert.False(t, ListStatus("unknown").Terminal())
}

func TestIDUnmarshal(t *testing.T) {
	var v struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 42, "b": "abc", "c": null}`), &v))
	assert.Equal(t, ID("42"), v.A)
	assert.Equal(t, ID("abc"), v.B)
	assert.Equal(t, ID(""), v.C)

	require.Error(t, json.Unmarshal([]byte(`{"a": true}`), &v))
}

func TestIDMarshal(t *testing.T) {
	out, err := json.Marshal(map[string]ID{"n": "42", "s": "7f3a", "z": "007"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n": 42, "s": "7f3a", "z": "007"}`, string(out))
}
