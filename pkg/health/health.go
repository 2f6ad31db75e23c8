// Package health provides integrity checks for a running physics simulation.
// Checks are aggregated by a HealthChecker and can be served over HTTP as
// liveness and readiness probes while a long simulation runs.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// HealthCheck defines the interface for individual health checks.
type HealthCheck interface {
	// Name returns the unique name of this health check
	Name() string
	// Check performs the health check and returns an error if unhealthy
	Check(ctx context.Context) error
}

// HealthStatus represents the overall health status of the simulation.
type HealthStatus struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents the health status of an individual check.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthChecker manages and executes health checks.
type HealthChecker struct {
	checks map[string]HealthCheck
	mu     sync.RWMutex
}

// NewHealthChecker creates a new health checker instance.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks: make(map[string]HealthCheck),
	}
}

// AddCheck registers a health check, replacing any with the same name.
func (hc *HealthChecker) AddCheck(check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[check.Name()] = check
}

// RemoveCheck removes a health check by name.
func (hc *HealthChecker) RemoveCheck(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	delete(hc.checks, name)
}

// CheckHealth executes all registered health checks. The overall status is
// "healthy" only if every check passes.
func (hc *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	status := HealthStatus{
		Status: "healthy",
		Checks: make(map[string]ComponentHealth),
	}

	for name, check := range hc.checks {
		if err := check.Check(ctx); err != nil {
			status.Status = "unhealthy"
			status.Checks[name] = ComponentHealth{
				Status:  "unhealthy",
				Message: err.Error(),
			}
		} else {
			status.Checks[name] = ComponentHealth{
				Status: "healthy",
			}
		}
	}

	return status
}

// LivenessHandler answers 200 while the process is up.
func (hc *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := map[string]string{"status": "alive"}
	json.NewEncoder(w).Encode(response)
}

// ReadinessHandler runs every check and answers 200 when all pass, 503
// otherwise.
func (hc *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := hc.CheckHealth(ctx)

	w.Header().Set("Content-Type", "application/json")

	if health.Status == "healthy" {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(health)
}

// BodyState is the part of a physics object the integrity checks look at.
type BodyState struct {
	ID       uint32
	Position mgl32.Vec3
	Velocity mgl32.Vec3
}

// FiniteStateCheck fails when any object has a NaN or infinite position or
// velocity.
type FiniteStateCheck struct {
	states func() []BodyState
}

// NewFiniteStateCheck creates a check over the states returned by states.
func NewFiniteStateCheck(states func() []BodyState) *FiniteStateCheck {
	return &FiniteStateCheck{states: states}
}

// Name returns the name of this health check.
func (f *FiniteStateCheck) Name() string {
	return "finite_state"
}

// Check reports the first object with a non-finite component.
func (f *FiniteStateCheck) Check(ctx context.Context) error {
	for _, s := range f.states() {
		if !finite(s.Position) {
			return fmt.Errorf("object %d has non-finite position %v", s.ID, s.Position)
		}
		if !finite(s.Velocity) {
			return fmt.Errorf("object %d has non-finite velocity %v", s.ID, s.Velocity)
		}
	}
	return nil
}

func finite(v mgl32.Vec3) bool {
	for _, c := range v {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// WorldBoundsCheck fails when an object has left the square world, where it
// no longer takes part in collisions.
type WorldBoundsCheck struct {
	worldSize float32
	states    func() []BodyState
}

// NewWorldBoundsCheck creates a check for a world of the given edge length
// centered on the origin.
func NewWorldBoundsCheck(worldSize float32, states func() []BodyState) *WorldBoundsCheck {
	return &WorldBoundsCheck{worldSize: worldSize, states: states}
}

// Name returns the name of this health check.
func (b *WorldBoundsCheck) Name() string {
	return "world_bounds"
}

// Check reports the first object outside the world.
func (b *WorldBoundsCheck) Check(ctx context.Context) error {
	half := b.worldSize / 2
	for _, s := range b.states() {
		if math32.Abs(s.Position.X()) > half || math32.Abs(s.Position.Y()) > half {
			return fmt.Errorf("object %d at %v is outside the world", s.ID, s.Position)
		}
	}
	return nil
}

// ProgressCheck fails when the logic frame has not advanced since the
// previous check, which means the simulation loop is stuck.
type ProgressCheck struct {
	frame func() uint32
	last  uint32
	seen  bool
	mu    sync.Mutex
}

// NewProgressCheck creates a check over the frame counter.
func NewProgressCheck(frame func() uint32) *ProgressCheck {
	return &ProgressCheck{frame: frame}
}

// Name returns the name of this health check.
func (p *ProgressCheck) Name() string {
	return "progress"
}

// Check compares the current frame with the one seen last time.
func (p *ProgressCheck) Check(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := p.frame()
	stalled := p.seen && current == p.last
	p.last, p.seen = current, true
	if stalled {
		return fmt.Errorf("simulation stalled at frame %d", current)
	}
	return nil
}

// MemoryHealthCheck implements HealthCheck for memory usage monitoring.
type MemoryHealthCheck struct {
	maxMemoryMB    int64
	getMemoryUsage func() int64
}

// NewMemoryHealthCheck creates a health check for memory usage.
func NewMemoryHealthCheck(maxMemoryMB int64, getMemoryUsage func() int64) *MemoryHealthCheck {
	return &MemoryHealthCheck{
		maxMemoryMB:    maxMemoryMB,
		getMemoryUsage: getMemoryUsage,
	}
}

// Name returns the name of this health check.
func (m *MemoryHealthCheck) Name() string {
	return "memory"
}

// Check verifies that memory usage is within acceptable limits.
func (m *MemoryHealthCheck) Check(ctx context.Context) error {
	currentMB := m.getMemoryUsage()
	if currentMB > m.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", currentMB, m.maxMemoryMB)
	}
	return nil
}
