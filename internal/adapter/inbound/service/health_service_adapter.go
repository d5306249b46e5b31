package service

import (
	"context"
	"sync"
	"time"

	"snippetcorpus/internal/application/dto"
	"snippetcorpus/internal/port/inbound"
	"snippetcorpus/internal/port/outbound"
)

const (
	healthCacheTTL     = 5 * time.Second
	healthCheckTimeout = 1 * time.Second
)

type cacheEntry struct {
	status    dto.DependencyStatus
	timestamp time.Time
}

// HealthServiceAdapter aggregates dependency checks into one health report.
// Results are cached per dependency for a short TTL so probes stay cheap.
type HealthServiceAdapter struct {
	checkers []outbound.HealthChecker
	version  string
	now      func() time.Time

	cacheMutex  sync.Mutex
	healthCache map[string]cacheEntry
}

// NewHealthServiceAdapter creates a health service over the given checkers. Nil checkers are ignored.
func NewHealthServiceAdapter(version string, checkers ...outbound.HealthChecker) inbound.HealthService {
	active := make([]outbound.HealthChecker, 0, len(checkers))
	for _, c := range checkers {
		if c != nil {
			active = append(active, c)
		}
	}
	return &HealthServiceAdapter{
		checkers:    active,
		version:     version,
		now:         time.Now,
		healthCache: make(map[string]cacheEntry),
	}
}

// GetHealth checks every dependency. The service is degraded when some dependencies
// fail and unhealthy when all of them do.
func (h *HealthServiceAdapter) GetHealth(ctx context.Context) (*dto.HealthResponse, error) {
	response := &dto.HealthResponse{
		Status:       string(dto.HealthStatusHealthy),
		Timestamp:    h.now(),
		Version:      h.version,
		Dependencies: make(map[string]dto.DependencyStatus, len(h.checkers)),
	}

	failed := 0
	for _, checker := range h.checkers {
		status := h.dependencyStatus(ctx, checker)
		response.Dependencies[checker.Name()] = status
		if status.Status == string(dto.DependencyStatusUnhealthy) {
			failed++
		}
	}

	switch {
	case failed == 0:
	case failed == len(h.checkers):
		response.Status = string(dto.HealthStatusUnhealthy)
	default:
		response.Status = string(dto.HealthStatusDegraded)
	}
	return response, nil
}

func (h *HealthServiceAdapter) dependencyStatus(ctx context.Context, checker outbound.HealthChecker) dto.DependencyStatus {
	name := checker.Name()

	h.cacheMutex.Lock()
	entry, ok := h.healthCache[name]
	h.cacheMutex.Unlock()
	if ok && h.now().Sub(entry.timestamp) < healthCacheTTL {
		return entry.status
	}

	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	status := dto.DependencyStatus{Status: string(dto.DependencyStatusHealthy)}
	if err := checker.Check(checkCtx); err != nil {
		status = dto.DependencyStatus{
			Status:  string(dto.DependencyStatusUnhealthy),
			Message: err.Error(),
		}
	}

	h.cacheMutex.Lock()
	h.healthCache[name] = cacheEntry{status: status, timestamp: h.now()}
	h.cacheMutex.Unlock()
	return status
}
