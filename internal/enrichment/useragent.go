package enrichment

import (
	"strings"

	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/mssola/useragent"
)

const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
	DeviceBot     = "bot"
)

type UserAgentParser interface {
	Parse(raw string) *models.UserAgent
}

type userAgentParser struct{}

func NewUserAgentParser() UserAgentParser {
	return userAgentParser{}
}

// Parse всегда возвращает отпечаток, для пустой строки - пустой
func (userAgentParser) Parse(raw string) *models.UserAgent {
	raw = strings.TrimSpace(raw)
	fp := &models.UserAgent{Raw: raw}
	if raw == "" {
		return fp
	}

	ua := useragent.New(raw)

	fp.Browser, fp.BrowserVersion = ua.Browser()
	fp.Engine, _ = ua.Engine()
	os := ua.OSInfo()
	fp.OS = os.Name
	fp.OSVersion = os.Version
	fp.CPUArch = cpuArch(raw)

	// без распознанного браузера и ОС тип устройства ничего не говорит
	if fp.Browser == "" && fp.OS == "" && !ua.Bot() {
		return fp
	}
	fp.DeviceType = deviceType(ua, raw)
	return fp
}

func deviceType(ua *useragent.UserAgent, raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case ua.Bot():
		return DeviceBot
	case strings.Contains(lower, "ipad") || strings.Contains(lower, "tablet") ||
		(strings.Contains(lower, "android") && !strings.Contains(lower, "mobile")):
		return DeviceTablet
	case ua.Mobile():
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

var archTokens = []struct {
	token string
	arch  string
}{
	{"x86_64", "amd64"},
	{"win64", "amd64"},
	{"x64", "amd64"},
	{"wow64", "amd64"},
	{"amd64", "amd64"},
	{"aarch64", "arm64"},
	{"arm64", "arm64"},
	{"armv7", "arm"},
	{"armv8", "arm64"},
	{"i686", "ia32"},
	{"i386", "ia32"},
}

func cpuArch(raw string) string {
	lower := strings.ToLower(raw)
	for _, t := range archTokens {
		if strings.Contains(lower, t.token) {
			return t.arch
		}
	}
	return ""
}
