package models

// DashboardStats is the aggregate returned by the dashboard endpoint
type DashboardStats struct {
	Campaigns       CampaignCounts `json:"campaigns"`
	Lists           ListCounts     `json:"lists"`
	Templates       TemplateCounts `json:"templates"`
	TodayQuota      *DailyQuota    `json:"todayQuota,omitempty"`
	RecentSends     []DailySends   `json:"recentSends"`
	RecentCampaigns []Campaign     `json:"recentCampaigns"`
}

type CampaignCounts struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

type ListCounts struct {
	Total         int `json:"total"`
	TotalContacts int `json:"total_contacts"`
}

type TemplateCounts struct {
	Total int `json:"total"`
}

// DailyQuota is the system-wide sending quota for today. A zero QuotaLimit
// means the service did not report one.
type DailyQuota struct {
	EmailsSent int `json:"emails_sent"`
	QuotaLimit int `json:"quota_limit"`
}

// DailySends is one bar of the recent sends chart
type DailySends struct {
	Date       string `json:"date"`
	EmailsSent int    `json:"emails_sent"`
}
