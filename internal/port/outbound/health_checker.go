package outbound

import "context"

// HealthChecker reports the availability of one external dependency.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}
