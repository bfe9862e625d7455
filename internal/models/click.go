package models

import (
	"time"
)

type Click struct {
	ID          int64     `json:"id"`
	LinkID      int64     `json:"link_id"`
	UserAgentID int64     `json:"user_agent_id"`
	IP          string    `json:"ip"`
	City        string    `json:"city"`
	Region      string    `json:"region"`
	Country     string    `json:"country"`
	CountryCode string    `json:"country_code"`
	Loc         string    `json:"loc"`
	Org         string    `json:"org"`
	Postal      string    `json:"postal"`
	Timezone    string    `json:"timezone"`
	Timestamp   time.Time `json:"timestamp"`
}

// UserAgent - отпечаток браузера посетителя, создаётся заново на каждый клик
type UserAgent struct {
	ID             int64  `json:"id"`
	Raw            string `json:"ua"`
	Browser        string `json:"browser"`
	BrowserVersion string `json:"browser_version"`
	OS             string `json:"os"`
	OSVersion      string `json:"os_version"`
	CPUArch        string `json:"cpu_arch"`
	DeviceType     string `json:"device_type"`
	Engine         string `json:"engine"`
}

// IsEmpty: парсер ничего не распознал
func (ua *UserAgent) IsEmpty() bool {
	return ua == nil || (ua.Browser == "" && ua.BrowserVersion == "" && ua.OS == "" &&
		ua.OSVersion == "" && ua.CPUArch == "" && ua.DeviceType == "" && ua.Engine == "")
}

type GeoInfo struct {
	IP          string `json:"ip"`
	City        string `json:"city"`
	Region      string `json:"region"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	Loc         string `json:"loc"`
	Org         string `json:"org"`
	Postal      string `json:"postal"`
	Timezone    string `json:"timezone"`
}

func (g *GeoInfo) IsEmpty() bool {
	return g == nil || (g.City == "" && g.Region == "" && g.Country == "" && g.CountryCode == "" &&
		g.Loc == "" && g.Org == "" && g.Postal == "" && g.Timezone == "")
}

type ClickEvent struct {
	LinkID    int64
	ShortCode string
	IPAddress string
	UserAgent string
}

type ClickQuery struct {
	UserID    int64
	ShortCode string
	From      *time.Time
	To        *time.Time
}

// ClickRow - клик вместе с данными ссылки и отпечатком user-agent
type ClickRow struct {
	ShortCode      string
	OriginalURL    string
	Timestamp      time.Time
	City           string
	Region         string
	Country        string
	Browser        string
	BrowserVersion string
	OS             string
	OSVersion      string
	CPUArch        string
	DeviceType     string
}

type DailyClicks struct {
	Date        string `json:"date"`
	TotalClicks int64  `json:"totalClicks"`
}

type ClickSeries struct {
	Data       []DailyClicks `json:"data"`
	TotalClick int64         `json:"totalClick"`
}

type Interaction struct {
	Location       map[string]int64 `json:"location"`
	Region         map[string]int64 `json:"region"`
	Country        map[string]int64 `json:"country"`
	Browser        map[string]int64 `json:"browser"`
	BrowserVersion map[string]int64 `json:"browserVersion"`
	OS             map[string]int64 `json:"os"`
	OSVersion      map[string]int64 `json:"osVersion"`
	CPUArch        map[string]int64 `json:"cpuArch"`
	DeviceType     map[string]int64 `json:"deviceType"`
}

type ClickInsight struct {
	Click       ClickSeries `json:"click"`
	Interaction Interaction `json:"interaction"`
}
