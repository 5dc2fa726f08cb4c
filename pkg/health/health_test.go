package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/exploopio/opsboard/pkg/catalog"
	"github.com/exploopio/opsboard/pkg/clock"
)

func integration(state catalog.ConnectionState) *IntegrationCheck {
	return &IntegrationCheck{Integration: catalog.IntegrationStatus{
		Name:     catalog.IntegrationServiceNow,
		Status:   state,
		LastSync: "2 min ago",
	}}
}

// blockingCheck waits for its context, so it always hits the timeout.
type blockingCheck struct{}

func (blockingCheck) Name() string { return "blocking" }
func (blockingCheck) Check(ctx context.Context) CheckResult {
	<-ctx.Done()
	return CheckResult{Status: StatusUnhealthy, Error: ctx.Err().Error()}
}

func get(t *testing.T, handler http.Handler, path string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var response Response
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("%s: body is not JSON: %v", path, err)
	}
	return w, response
}

func TestHandler_Check(t *testing.T) {
	tests := []struct {
		name   string
		states []catalog.ConnectionState
		want   Status
	}{
		{"no checks", nil, StatusHealthy},
		{"all connected", []catalog.ConnectionState{catalog.ConnectionConnected, catalog.ConnectionConnected}, StatusHealthy},
		{"one degraded", []catalog.ConnectionState{catalog.ConnectionConnected, catalog.ConnectionDegraded}, StatusDegraded},
		{"one disconnected", []catalog.ConnectionState{catalog.ConnectionConnected, catalog.ConnectionDisconnected}, StatusUnhealthy},
		{"degraded and disconnected", []catalog.ConnectionState{catalog.ConnectionDegraded, catalog.ConnectionDisconnected}, StatusUnhealthy},
		{"unknown state", []catalog.ConnectionState{"Flapping"}, StatusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(WithVersion("1.0.0"))
			for i, state := range tt.states {
				h.Register(string(rune('a'+i)), integration(state))
			}

			response := h.Check(context.Background())

			if response.Status != tt.want {
				t.Errorf("Status = %v, want %v", response.Status, tt.want)
			}
			if len(response.Checks) != len(tt.states) {
				t.Errorf("Checks = %d, want %d", len(response.Checks), len(tt.states))
			}
			if response.Version != "1.0.0" {
				t.Errorf("Version = %q, want 1.0.0", response.Version)
			}
		})
	}
}

func TestHandler_RegisterReplaces(t *testing.T) {
	h := NewHandler()
	h.Register("servicenow", integration(catalog.ConnectionDisconnected))
	h.Register("servicenow", integration(catalog.ConnectionConnected))

	response := h.Check(context.Background())
	if len(response.Checks) != 1 || response.Status != StatusHealthy {
		t.Errorf("response = %+v, want one healthy check", response)
	}
}

func TestHandler_Timeout(t *testing.T) {
	h := NewHandler(WithTimeout(20 * time.Millisecond))
	h.Register("blocking", blockingCheck{})

	response := h.Check(context.Background())
	if response.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want %v", response.Status, StatusUnhealthy)
	}
	if got := response.Checks["blocking"].Error; got != context.DeadlineExceeded.Error() {
		t.Errorf("Error = %q, want deadline exceeded", got)
	}
}

func TestHandler_HideDetails(t *testing.T) {
	h := NewHandler(WithHideDetails())
	h.Register("servicenow", integration(catalog.ConnectionDegraded))

	response := h.Check(context.Background())
	if response.Checks != nil {
		t.Errorf("Checks should be hidden, got %v", response.Checks)
	}
	if response.Status != StatusDegraded {
		t.Errorf("Status = %v, want %v", response.Status, StatusDegraded)
	}
}

func TestProbeHandlers(t *testing.T) {
	tests := []struct {
		name          string
		state         catalog.ConnectionState
		notReady      bool
		wantLiveness  int
		wantReadiness int
		wantHealth    int
	}{
		{"healthy", catalog.ConnectionConnected, false, http.StatusOK, http.StatusOK, http.StatusOK},
		{"degraded", catalog.ConnectionDegraded, false, http.StatusOK, http.StatusOK, http.StatusOK},
		{"unhealthy", catalog.ConnectionDisconnected, false, http.StatusOK, http.StatusServiceUnavailable, http.StatusServiceUnavailable},
		{"shutting down", catalog.ConnectionConnected, true, http.StatusOK, http.StatusServiceUnavailable, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler()
			h.Register("servicenow", integration(tt.state))
			if tt.notReady {
				h.SetReady(false)
			}

			if w, _ := get(t, h.LivenessHandler(), LivenessPath); w.Code != tt.wantLiveness {
				t.Errorf("liveness = %d, want %d", w.Code, tt.wantLiveness)
			}
			if w, _ := get(t, h.ReadinessHandler(), ReadinessPath); w.Code != tt.wantReadiness {
				t.Errorf("readiness = %d, want %d", w.Code, tt.wantReadiness)
			}
			w, response := get(t, h.HealthHandler(), HealthPath)
			if w.Code != tt.wantHealth {
				t.Errorf("health = %d, want %d", w.Code, tt.wantHealth)
			}
			if _, ok := response.Checks["servicenow"]; !ok {
				t.Error("health response should include the servicenow check")
			}
		})
	}
}

func TestReadiness(t *testing.T) {
	h := NewHandler()
	if !h.IsReady() {
		t.Error("handler should start ready")
	}
	h.SetReady(false)
	if h.IsReady() {
		t.Error("should not be ready after SetReady(false)")
	}
	h.SetReady(true)
	if !h.IsReady() {
		t.Error("should be ready after SetReady(true)")
	}
}

func TestRegisterRoutes(t *testing.T) {
	tests := []struct {
		name   string
		router interface {
			Router
			http.Handler
		}
	}{
		{"servemux", http.NewServeMux()},
		{"chi", chi.NewRouter()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler()
			h.Register("servicenow", integration(catalog.ConnectionConnected))
			RegisterRoutes(tt.router, h)

			for _, path := range []string{LivenessPath, ReadinessPath, HealthPath} {
				w, _ := get(t, tt.router, path)
				if w.Code != http.StatusOK {
					t.Errorf("%s: Status = %d, want %d", path, w.Code, http.StatusOK)
				}
				if ct := w.Header().Get("Content-Type"); ct != "application/json" {
					t.Errorf("%s: Content-Type = %q", path, ct)
				}
			}
		})
	}
}

// =============================================================================
// Resource Checks
// =============================================================================

func TestMemoryCheck(t *testing.T) {
	tests := []struct {
		name    string
		maxHeap uint64
		want    Status
	}{
		{"no limit", 0, StatusHealthy},
		{"tiny limit", 1, StatusUnhealthy},
		{"generous limit", 1 << 30, StatusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := (&MemoryCheck{MaxHeapBytes: tt.maxHeap}).Check(context.Background())
			if result.Status != tt.want {
				t.Errorf("Status = %v, want %v", result.Status, tt.want)
			}
			for _, key := range []string{"heap_alloc_bytes", "goroutines"} {
				if _, ok := result.Metadata[key]; !ok {
					t.Errorf("Metadata should contain %s", key)
				}
			}
		})
	}
}

func TestDiskCheck(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name  string
		check DiskCheck
		want  Status
	}{
		{"audit directory", DiskCheck{Path: dir}, StatusHealthy},
		{"reasonable percent", DiskCheck{Path: dir, MinFreePercent: 0.001}, StatusHealthy},
		{"impossible percent", DiskCheck{Path: dir, MinFreePercent: 100.1}, StatusUnhealthy},
		{"impossible bytes", DiskCheck{Path: dir, MinFreeBytes: 1 << 62}, StatusUnhealthy},
		{"missing path", DiskCheck{Path: "/nonexistent/opsboard/audit"}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.check.Check(context.Background())
			if result.Status != tt.want {
				t.Errorf("Status = %v, want %v (%s)", result.Status, tt.want, result.Error)
			}
		})
	}

	result := (&DiskCheck{}).Check(context.Background())
	if result.Metadata["path"] != "/" {
		t.Errorf("default path = %v, want /", result.Metadata["path"])
	}
}

func TestSystemMemoryCheck(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("system memory thresholds are only enforced on linux")
	}
	tests := []struct {
		name     string
		maxUsage float64
		want     Status
	}{
		{"no limit", 0, StatusHealthy},
		{"impossible limit", 0.001, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := (&SystemMemoryCheck{MaxUsagePercent: tt.maxUsage}).Check(context.Background())
			if result.Status != tt.want {
				t.Errorf("Status = %v, want %v", result.Status, tt.want)
			}
			if _, ok := result.Metadata["total_bytes"]; !ok {
				t.Error("Metadata should contain total_bytes")
			}
		})
	}
}

// =============================================================================
// Integration Checks
// =============================================================================

func TestIntegrationCheck(t *testing.T) {
	tests := []struct {
		state     catalog.ConnectionState
		want      Status
		wantError string
	}{
		{catalog.ConnectionConnected, StatusHealthy, ""},
		{catalog.ConnectionDegraded, StatusDegraded, "webhook retries"},
		{catalog.ConnectionDisconnected, StatusUnhealthy, "webhook retries"},
		{"Flapping", StatusUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			check := &IntegrationCheck{Integration: catalog.IntegrationStatus{
				Name:                catalog.IntegrationJira,
				Status:              tt.state,
				LastSync:            "5 min ago",
				ItemsSyncedLastHour: 8,
				Issues:              "webhook retries",
			}}

			if check.Name() != "integration_jira" {
				t.Errorf("Name = %v, want integration_jira", check.Name())
			}

			result := check.Check(context.Background())

			if result.Status != tt.want {
				t.Errorf("Status = %v, want %v", result.Status, tt.want)
			}
			if result.Error != tt.wantError {
				t.Errorf("Error = %q, want %q", result.Error, tt.wantError)
			}
			if result.Metadata["last_sync"] != "5 min ago" {
				t.Errorf("last_sync = %v", result.Metadata["last_sync"])
			}
			if !strings.HasPrefix(result.Message, "Jira") {
				t.Errorf("Message = %q, want Jira prefix", result.Message)
			}
		})
	}
}

func TestRegisterIntegrations_Seed(t *testing.T) {
	cat, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}

	h := NewHandler()
	h.RegisterIntegrations(cat.Integrations())

	response := h.Check(context.Background())

	if len(response.Checks) != 5 {
		t.Fatalf("Checks = %d, want 5", len(response.Checks))
	}
	// Jira is degraded in the seed.
	if response.Status != StatusDegraded {
		t.Errorf("Status = %v, want %v", response.Status, StatusDegraded)
	}
	if got := response.Checks[CheckName(catalog.IntegrationJira)].Status; got != StatusDegraded {
		t.Errorf("jira = %v, want %v", got, StatusDegraded)
	}
	if got := response.Checks[CheckName(catalog.IntegrationServiceNow)].Status; got != StatusHealthy {
		t.Errorf("servicenow = %v, want %v", got, StatusHealthy)
	}

	// Degraded still serves traffic.
	req := httptest.NewRequest(http.MethodGet, ReadinessPath, nil)
	w := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("readiness Status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestHandler_Clock(t *testing.T) {
	start := time.Date(2024, 6, 12, 13, 0, 0, 0, time.UTC)
	fc := clock.Fake(start)
	h := NewHandler(WithClock(fc))
	h.Register("jira", integration(catalog.ConnectionConnected))

	fc.Advance(90 * time.Second)
	response := h.Check(context.Background())

	if response.Uptime != 90*time.Second {
		t.Errorf("Uptime = %v, want 90s", response.Uptime)
	}
	if !response.Timestamp.Equal(start.Add(90 * time.Second)) {
		t.Errorf("Timestamp = %v", response.Timestamp)
	}
	if !response.Checks["jira"].Timestamp.Equal(start.Add(90 * time.Second)) {
		t.Errorf("check Timestamp = %v", response.Checks["jira"].Timestamp)
	}
}
