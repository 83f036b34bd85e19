package ports

import "context"

// HealthChecker reports on one backing dependency. Name is the key under
// "dependencies" in the /health response; a non-nil Check error marks that
// dependency unhealthy and the service degraded.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}
