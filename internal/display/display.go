// Package display turns raw server counters into the percentages, ranges
// and status badges shown by the console. Every function is pure.
package display

import (
	"fmt"
	"math"
	"strconv"

	"github.com/foxzi/disparo/internal/models"
)

// DefaultQuotaLimit is used when the server reports no daily quota
const DefaultQuotaLimit = 4000

// DefaultDailyLimit is shown for campaigns without a daily limit
const DefaultDailyLimit = 4000

// Tone is the visual class of a badge
type Tone string

const (
	ToneNone    Tone = ""
	ToneMuted   Tone = "muted"
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneInfo    Tone = "info"
	ToneDanger  Tone = "danger"
)

// Badge is a labelled status marker
type Badge struct {
	Label string
	Tone  Tone
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ProgressPercent returns sent/total as a percentage rounded to one
// decimal. A zero total yields 0.
func ProgressPercent(sent, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round1(float64(sent) / float64(total) * 100)
}

// QuotaPercent returns today's share of the daily quota. A missing limit
// (zero or negative) is replaced by DefaultQuotaLimit.
func QuotaPercent(sent, limit int) float64 {
	if limit <= 0 {
		limit = DefaultQuotaLimit
	}
	return round1(float64(sent) / float64(limit) * 100)
}

// QuotaLimit returns the effective quota limit: the limit the server
// reports, else fallback, else DefaultQuotaLimit.
func QuotaLimit(q *models.DailyQuota, fallback int) int {
	if q != nil && q.QuotaLimit > 0 {
		return q.QuotaLimit
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultQuotaLimit
}

// TodayQuota returns today's sends, the effective limit and the share used.
// No quota at all means nothing was sent today.
func TodayQuota(q *models.DailyQuota, fallback int) (sent, limit int, pct float64) {
	if q != nil {
		sent = q.EmailsSent
	}
	limit = QuotaLimit(q, fallback)
	return sent, limit, QuotaPercent(sent, limit)
}

// FormatPercent renders a percentage with one decimal, e.g. "25.0"
func FormatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64)
}

// CampaignProgress is the progress of a campaign by its own counters
func CampaignProgress(c models.Campaign) float64 {
	return ProgressPercent(c.SentCount, c.TotalRecipients)
}

// SentCount prefers the detailed stats and falls back to the campaign counter
func SentCount(d models.CampaignDetail) int {
	if d.Stats != nil && d.Stats.Sent > 0 {
		return d.Stats.Sent
	}
	return d.Campaign.SentCount
}

// DailyLimit returns the campaign daily limit, or the default when unset
func DailyLimit(c models.Campaign) int {
	if c.DailyLimit <= 0 {
		return DefaultDailyLimit
	}
	return c.DailyLimit
}

// Range returns the 1-based positions of the first and last item shown on
// page. An empty collection yields 0, 0.
func Range(page, size, total int) (from, to int) {
	if total <= 0 || size <= 0 {
		return 0, 0
	}
	if page < 1 {
		page = 1
	}
	from = (page-1)*size + 1
	to = min(page*size, total)
	if from > total {
		from = total
	}
	return from, to
}

// RangeLine renders Range as "X - Y de N"
func RangeLine(page, size, total int) string {
	from, to := Range(page, size, total)
	return fmt.Sprintf("%d - %d de %d", from, to, max(total, 0))
}

var campaignTones = map[models.CampaignStatus]Tone{
	models.CampaignDraft:     ToneMuted,
	models.CampaignActive:    ToneSuccess,
	models.CampaignPaused:    ToneWarning,
	models.CampaignCompleted: ToneInfo,
}

var listTones = map[models.ListStatus]Tone{
	models.ListProcessing: ToneWarning,
	models.ListCompleted:  ToneSuccess,
	models.ListFailed:     ToneDanger,
}

// CampaignBadge maps a campaign status to its badge. Unknown statuses are
// shown as-is without styling.
func CampaignBadge(s models.CampaignStatus) Badge {
	return Badge{Label: string(s), Tone: campaignTones[s]}
}

// ListBadge maps a list status to its badge
func ListBadge(s models.ListStatus) Badge {
	return Badge{Label: string(s), Tone: listTones[s]}
}

// ContactBadge marks a contact address as valid or invalid
func ContactBadge(valid bool) Badge {
	if valid {
		return Badge{Label: "Válido", Tone: ToneSuccess}
	}
	return Badge{Label: "Inválido", Tone: ToneDanger}
}
