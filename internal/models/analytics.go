package models

import (
	"time"
)

type LinkMetric string

const (
	MetricTotal    LinkMetric = "total"
	MetricActive   LinkMetric = "active"
	MetricExpired  LinkMetric = "expired"
	MetricArchived LinkMetric = "archived"
)

// LinkCountFilter - подсчёт ссылок владельца по метрике в окне [CreatedFrom, CreatedTo)
type LinkCountFilter struct {
	UserID      int64
	Metric      LinkMetric
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type LinkClickCount struct {
	LinkID      int64     `json:"link_id"`
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
	Clicks      int64     `json:"clicks"`
}

type TopLink struct {
	ShortCode   string `json:"shortCode"`
	Clicks      int64  `json:"clicks"`
	OriginalURL string `json:"originalUrl"`
}

type NeverClickedLink struct {
	ShortCode   string `json:"shortCode"`
	OriginalURL string `json:"originalUrl"`
	CreatedAt   string `json:"createdAt"`
}

type PercentageChange struct {
	ThisWeek float64 `json:"thisWeek"`
}

type WeeklyMetric struct {
	Overall          int64            `json:"overall"`
	ThisWeek         int64            `json:"thisWeek"`
	LastWeek         int64            `json:"lastWeek"`
	PercentageChange PercentageChange `json:"percentageChange"`
}

type LinkMetrics struct {
	Total    WeeklyMetric `json:"total"`
	Active   WeeklyMetric `json:"active"`
	Expired  WeeklyMetric `json:"expired"`
	Archived WeeklyMetric `json:"archived"`
}

type TagUsage struct {
	TagName    string `json:"tagName"`
	UsageCount int64  `json:"usageCount"`
}

type TagSummary struct {
	List  []string   `json:"list"`
	Usage []TagUsage `json:"usage"`
}

type TypeCount struct {
	Type  LinkType `json:"type"`
	Count int64    `json:"count"`
}

type TypeSummary struct {
	List []TypeCount `json:"list"`
}

type AnalyticsSummary struct {
	TopLinks          []TopLink          `json:"topLinks"`
	NeverClickedLinks []NeverClickedLink `json:"neverClickedLinks"`
	Links             LinkMetrics        `json:"links"`
	Tags              TagSummary         `json:"tags"`
	Type              TypeSummary        `json:"type"`
}

type UserStatistics struct {
	TotalUsers      int64 `json:"total_users"`
	VerifiedUsers   int64 `json:"verified_users"`
	UnverifiedUsers int64 `json:"unverified_users"`
}

type AdminInsight struct {
	TotalLinks       int64            `json:"total_links"`
	TotalClicks      int64            `json:"total_clicks"`
	MostClickedLinks []LinkClickCount `json:"most_clicked_links"`
	UserStatistics   UserStatistics   `json:"user_statistics"`
}
