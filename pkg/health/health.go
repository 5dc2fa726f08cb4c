// Package health provides the health endpoints of the opsboard server.
// It supports Kubernetes-style readiness and liveness probes and reports
// the state of the mocked integrations alongside process and host checks.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"github.com/exploopio/opsboard/pkg/catalog"
	"github.com/exploopio/opsboard/pkg/clock"
)

// =============================================================================
// Checks and Results
// =============================================================================

// Checker is a single health check.
type Checker interface {
	// Name returns the name the check is registered under by default.
	Name() string

	// Check runs the check. It must return once ctx is done.
	Check(ctx context.Context) CheckResult
}

// Status represents the health status.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// severity orders statuses from best to worst. Unknown counts as healthy
// so a check that cannot classify its target does not fail readiness.
func (s Status) severity() int {
	switch s {
	case StatusDegraded:
		return 1
	case StatusUnhealthy:
		return 2
	}
	return 0
}

// CheckResult holds the result of a health check.
type CheckResult struct {
	Status    Status         `json:"status"`
	Message   string         `json:"message,omitempty"`
	Duration  time.Duration  `json:"duration_ms"`
	Timestamp time.Time      `json:"timestamp"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Response is the aggregated result of every registered check.
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Version   string                 `json:"version,omitempty"`
	Uptime    time.Duration          `json:"uptime_seconds,omitempty"`
}

// =============================================================================
// Health Handler
// =============================================================================

// Handler runs the registered checks and serves the probe endpoints.
type Handler struct {
	mu     sync.RWMutex
	checks map[string]Checker
	ready  bool

	version     string
	clock       clock.Clock
	started     time.Time
	timeout     time.Duration
	hideDetails bool
}

// HandlerOption configures the health handler.
type HandlerOption func(*Handler)

// WithVersion sets the version reported by the full health response.
func WithVersion(version string) HandlerOption {
	return func(h *Handler) { h.version = version }
}

// WithTimeout bounds a full round of checks.
func WithTimeout(timeout time.Duration) HandlerOption {
	return func(h *Handler) { h.timeout = timeout }
}

// WithClock sets the time source used for timestamps and uptime.
func WithClock(c clock.Clock) HandlerOption {
	return func(h *Handler) { h.clock = c }
}

// WithHideDetails reports only the overall status, version and uptime.
func WithHideDetails() HandlerOption {
	return func(h *Handler) { h.hideDetails = true }
}

// NewHandler creates a new health handler. The handler starts ready.
func NewHandler(opts ...HandlerOption) *Handler {
	h := &Handler{
		checks:  make(map[string]Checker),
		clock:   clock.Real(),
		timeout: 5 * time.Second,
		ready:   true,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.started = h.clock.Now()
	return h
}

// Register adds a check under name, replacing any check of that name.
func (h *Handler) Register(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = checker
}

// SetReady sets the readiness state. The server clears it when it starts
// shutting down.
func (h *Handler) SetReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = ready
}

// IsReady returns the readiness state.
func (h *Handler) IsReady() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}

// Check runs all registered checks concurrently. The overall status is the
// worst status of any check.
func (h *Handler) Check(ctx context.Context) Response {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	checkers := make([]Checker, 0, len(h.checks))
	for name, checker := range h.checks {
		names = append(names, name)
		checkers = append(checkers, checker)
	}
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	results := make([]CheckResult, len(checkers))
	var wg sync.WaitGroup
	for i, checker := range checkers {
		i, checker := i, checker
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := h.clock.Now()
			result := checker.Check(ctx)
			result.Timestamp = h.clock.Now()
			result.Duration = result.Timestamp.Sub(start)
			results[i] = result
		}()
	}
	wg.Wait()

	now := h.clock.Now()
	response := Response{
		Status:    StatusHealthy,
		Timestamp: now,
		Version:   h.version,
		Uptime:    now.Sub(h.started),
	}
	if !h.hideDetails {
		response.Checks = make(map[string]CheckResult, len(results))
	}
	for i, result := range results {
		if result.Status.severity() > response.Status.severity() {
			response.Status = result.Status
		}
		if response.Checks != nil {
			response.Checks[names[i]] = result
		}
	}
	return response
}

// =============================================================================
// HTTP Handlers
// =============================================================================

// LivenessHandler answers 200 while the process can serve HTTP at all.
func (h *Handler) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    StatusHealthy,
			"timestamp": h.clock.Now(),
		})
	})
}

// ReadinessHandler answers 503 while the handler is not ready or when any
// check is unhealthy.
func (h *Handler) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.IsReady() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":    StatusUnhealthy,
				"message":   "service not ready",
				"timestamp": h.clock.Now(),
			})
			return
		}
		h.HealthHandler().ServeHTTP(w, r)
	})
}

// HealthHandler serves the full response: 200 when healthy or degraded,
// 503 when unhealthy.
func (h *Handler) HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := h.Check(r.Context())
		status := http.StatusOK
		if response.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, response)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// =============================================================================
// Built-in Health Checks
// =============================================================================

// IntegrationCheck reports the connection state of one integration from
// the catalog. Connected is healthy, Degraded is degraded and Disconnected
// is unhealthy.
type IntegrationCheck struct {
	Integration catalog.IntegrationStatus
}

// CheckName returns the registration name for an integration check.
func CheckName(name catalog.IntegrationName) string {
	return "integration_" + strings.ToLower(string(name))
}

func (c *IntegrationCheck) Name() string { return CheckName(c.Integration.Name) }
func (c *IntegrationCheck) Check(ctx context.Context) CheckResult {
	in := c.Integration
	result := CheckResult{
		Metadata: map[string]any{
			"last_sync":              in.LastSync,
			"items_synced_last_hour": in.ItemsSyncedLastHour,
		},
	}
	if in.URL != "" {
		result.Metadata["url"] = in.URL
	}

	switch in.Status {
	case catalog.ConnectionConnected:
		result.Status = StatusHealthy
		result.Message = fmt.Sprintf("%s connected, %d items synced last hour", in.Name, in.ItemsSyncedLastHour)
	case catalog.ConnectionDegraded:
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("%s degraded", in.Name)
		result.Error = in.Issues
	case catalog.ConnectionDisconnected:
		result.Status = StatusUnhealthy
		result.Message = fmt.Sprintf("%s disconnected", in.Name)
		result.Error = in.Issues
	default:
		result.Status = StatusUnknown
		result.Message = fmt.Sprintf("%s state %q", in.Name, in.Status)
	}
	return result
}

// RegisterIntegrations registers one IntegrationCheck per integration.
func (h *Handler) RegisterIntegrations(integrations []catalog.IntegrationStatus) {
	for _, in := range integrations {
		c := &IntegrationCheck{Integration: in}
		h.Register(c.Name(), c)
	}
}

// DiskCheck checks available disk space.
type DiskCheck struct {
	Path         string
	MinFreeBytes int64
	// MinFreePercent is the minimum percentage of free space required (0-100).
	// If set, this takes precedence over MinFreeBytes.
	MinFreePercent float64
}

func (c *DiskCheck) Name() string { return "disk" }
func (c *DiskCheck) Check(ctx context.Context) CheckResult {
	result := CheckResult{
		Metadata: make(map[string]any),
	}

	path := c.Path
	if path == "" {
		path = "/"
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		result.Status = StatusUnhealthy
		result.Error = fmt.Sprintf("failed to get disk stats: %v", err)
		return result
	}

	totalBytes := stat.Blocks * uint64(stat.Bsize) //nolint:gosec // G115: Bsize is positive
	freeBytes := stat.Bavail * uint64(stat.Bsize)  //nolint:gosec // G115: Bsize is positive
	freePercent := 0.0
	if totalBytes > 0 {
		freePercent = float64(freeBytes) / float64(totalBytes) * 100
	}

	result.Metadata["total_bytes"] = totalBytes
	result.Metadata["free_bytes"] = freeBytes
	result.Metadata["used_bytes"] = totalBytes - freeBytes
	result.Metadata["free_percent"] = fmt.Sprintf("%.2f%%", freePercent)
	result.Metadata["path"] = path

	if c.MinFreePercent > 0 {
		if freePercent < c.MinFreePercent {
			result.Status = StatusUnhealthy
			result.Error = fmt.Sprintf("disk free space %.2f%% is below threshold %.2f%%", freePercent, c.MinFreePercent)
			return result
		}
	} else if c.MinFreeBytes > 0 {
		if freeBytes < uint64(c.MinFreeBytes) { //nolint:gosec // MinFreeBytes is positive here
			result.Status = StatusUnhealthy
			result.Error = fmt.Sprintf("disk free space %s is below threshold %s",
				humanize.Bytes(freeBytes), humanize.Bytes(uint64(c.MinFreeBytes))) //nolint:gosec
			return result
		}
	}

	result.Status = StatusHealthy
	result.Message = fmt.Sprintf("%s free of %s (%.2f%%)", humanize.Bytes(freeBytes), humanize.Bytes(totalBytes), freePercent)
	return result
}

// MemoryCheck checks Go runtime memory usage.
// For system-wide memory, use SystemMemoryCheck.
type MemoryCheck struct {
	// MaxHeapBytes is the maximum heap size in bytes.
	MaxHeapBytes uint64
}

func (c *MemoryCheck) Name() string { return "memory" }
func (c *MemoryCheck) Check(ctx context.Context) CheckResult {
	result := CheckResult{
		Metadata: make(map[string]any),
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	result.Metadata["heap_alloc_bytes"] = m.HeapAlloc
	result.Metadata["heap_sys_bytes"] = m.HeapSys
	result.Metadata["heap_inuse_bytes"] = m.HeapInuse
	result.Metadata["stack_inuse_bytes"] = m.StackInuse
	result.Metadata["num_gc"] = m.NumGC
	result.Metadata["goroutines"] = runtime.NumGoroutine()

	if c.MaxHeapBytes > 0 && m.HeapAlloc > c.MaxHeapBytes {
		result.Status = StatusUnhealthy
		result.Error = fmt.Sprintf("heap usage %s exceeds threshold %s", humanize.Bytes(m.HeapAlloc), humanize.Bytes(c.MaxHeapBytes))
		return result
	}

	result.Status = StatusHealthy
	result.Message = fmt.Sprintf("heap: %s, goroutines: %d", humanize.Bytes(m.HeapAlloc), runtime.NumGoroutine())
	return result
}

// SystemMemoryCheck is defined in sysinfo_linux.go and sysinfo_other.go
// for platform-specific implementations.

// =============================================================================
// Routes
// =============================================================================

// Router is satisfied by *http.ServeMux and chi.Router.
type Router interface {
	Handle(pattern string, h http.Handler)
}

// Paths for the health endpoints.
const (
	LivenessPath  = "/healthz"
	ReadinessPath = "/readyz"
	HealthPath    = "/health"
)

// RegisterRoutes registers the liveness, readiness and full health routes.
func RegisterRoutes(r Router, h *Handler) {
	r.Handle(LivenessPath, h.LivenessHandler())
	r.Handle(ReadinessPath, h.ReadinessHandler())
	r.Handle(HealthPath, h.HealthHandler())
}

var (
	_ Checker = (*IntegrationCheck)(nil)
	_ Checker = (*DiskCheck)(nil)
	_ Checker = (*MemoryCheck)(nil)
	_ Checker = (*SystemMemoryCheck)(nil)
)
