package format

import (
	"testing"
	"time"

	"github.com/exploopio/opsboard/pkg/catalog"
	"github.com/exploopio/opsboard/pkg/dashboard"
)

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 6, 12, 13, 0, 0, 0, time.UTC)

	tests := []struct {
		ago  time.Duration
		want string
	}{
		{0, "just now"},
		{29 * time.Second, "just now"},
		{30 * time.Second, "1 min ago"},
		{-5 * time.Minute, "just now"},
		{15 * time.Minute, "15 min ago"},
		{59*time.Minute + 29*time.Second, "59 min ago"},
		{59*time.Minute + 30*time.Second, "1 hr ago"},
		{89 * time.Minute, "1 hr ago"},
		{90 * time.Minute, "2 hr ago"},
		{23 * time.Hour, "23 hr ago"},
		{23*time.Hour + 30*time.Minute, "1 day ago"},
		{36 * time.Hour, "2 days ago"},
		{10 * 24 * time.Hour, "10 days ago"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := RelativeTime(now, now.Add(-tt.ago)); got != tt.want {
				t.Errorf("RelativeTime(-%v) = %q, want %q", tt.ago, got, tt.want)
			}
		})
	}
}

func TestDate(t *testing.T) {
	ts := time.Date(2024, 6, 14, 18, 0, 0, 0, time.UTC)
	if got := Date(ts, nil); got != "Jun 14, 6:00 PM" {
		t.Errorf("Date() = %q", got)
	}

	est := time.FixedZone("EST", -5*60*60)
	if got := Date(ts, est); got != "Jun 14, 1:00 PM" {
		t.Errorf("Date(EST) = %q", got)
	}
}

func TestSLAConsumption(t *testing.T) {
	tests := []struct {
		elapsed, sla int
		want         string
	}{
		{155, 240, "65%"},
		{320, 360, "89%"},
		{90, 1440, "6%"},
		{1, 200, "1%"},
		{300, 240, "125%"},
	}
	for _, tt := range tests {
		tk := catalog.SupportTicket{ElapsedMinutes: tt.elapsed, SLAMinutes: tt.sla}
		if got := SLAConsumption(tk); got != tt.want {
			t.Errorf("SLAConsumption(%d/%d) = %q, want %q", tt.elapsed, tt.sla, got, tt.want)
		}
	}
}

func TestExposureAndCVSS(t *testing.T) {
	if got := ExposureDays(96); got != "4 days" {
		t.Errorf("ExposureDays(96) = %q", got)
	}
	if got := ExposureDays(36); got != "2 days" {
		t.Errorf("ExposureDays(36) = %q", got)
	}
	if got := CVSS(9.8); got != "9.8" {
		t.Errorf("CVSS(9.8) = %q", got)
	}
	if got := CVSS(7); got != "7.0" {
		t.Errorf("CVSS(7) = %q", got)
	}
	if got := Count(1229); got != "1,229" {
		t.Errorf("Count(1229) = %q", got)
	}
	if got := DeviceRisk(dashboard.DeviceRisk{HighRisk: 2, Percentage: 50}); got != "2 (50%)" {
		t.Errorf("DeviceRisk() = %q", got)
	}
}

func TestTones(t *testing.T) {
	tests := []struct {
		name string
		got  Tone
		want Tone
	}{
		{"critical tickets", CriticalTicketsTone(0), ToneRose},
		{"sla at risk 2", SLAAtRiskTone(2), ToneEmerald},
		{"sla at risk 3", SLAAtRiskTone(3), ToneAmber},
		{"assets 250", ImpactedAssetsTone(250), ToneSky},
		{"assets 251", ImpactedAssetsTone(251), ToneRose},
		{"devices 1", HighRiskDevicesTone(dashboard.DeviceRisk{HighRisk: 1}), ToneEmerald},
		{"devices 2", HighRiskDevicesTone(dashboard.DeviceRisk{HighRisk: 2}), ToneRose},
		{"health 69", HealthTone(69), ToneRose},
		{"health 70", HealthTone(70), ToneEmerald},
		{"compliance 74", ComplianceTone(74), ToneAmber},
		{"compliance 75", ComplianceTone(75), ToneSky},
		{"degraded", ConnectionTone(catalog.ConnectionDegraded), ToneAmber},
		{"disconnected", ConnectionTone(catalog.ConnectionDisconnected), ToneRose},
		{"escalated", StatusTone(catalog.StatusEscalated), ToneRose},
		{"activity warning", ActivityTone(catalog.ActivityWarning), ToneAmber},
		{"activity unset", ActivityTone(""), ToneSky},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("tone = %s, want %s", tt.got, tt.want)
			}
		})
	}
}
