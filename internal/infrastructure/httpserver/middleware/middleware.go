package middleware

import (
	"github.com/sirupsen/logrus"
)

// MiddlewareCollection holds all middleware instances
type MiddlewareCollection struct {
	User    *UserMiddleware
	Logging *LoggingMiddleware
	Metrics *MetricsMiddleware
}

// NewMiddlewareCollection creates a new collection of all middleware
func NewMiddlewareCollection(logger *logrus.Logger) *MiddlewareCollection {
	return &MiddlewareCollection{
		User:    NewUserMiddleware(logger),
		Logging: NewLoggingMiddleware(logger),
		Metrics: NewMetricsMiddleware(),
	}
}
