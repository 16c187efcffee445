package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/infrastructure/telemetry"
)

type ProfilingConfig struct {
	Enabled bool
	// Unlabelled lists path prefixes served without pprof labels. An entry
	// matches its exact path too.
	Unlabelled []string
}

func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:    true,
		Unlabelled: []string{"/health", "/ready", "/swagger"},
	}
}

func (cfg ProfilingConfig) labelled(path string) bool {
	for _, prefix := range cfg.Unlabelled {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

// Profiling tags the serving goroutine with route, method and role so the
// continuous profiler can break CPU time down per endpoint. The role label
// is only present when this runs after JWTAuth.
func Profiling(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passThrough
	}
	return func(c *gin.Context) {
		if !cfg.labelled(c.Request.URL.Path) {
			c.Next()
			return
		}
		telemetry.WithProfilingLabels(c.Request.Context(), requestLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func requestLabels(c *gin.Context) map[string]string {
	labels := map[string]string{
		telemetry.ProfilingLabelMethod: c.Request.Method,
		telemetry.ProfilingLabelRoute:  c.FullPath(),
	}
	if p, ok := GetPrincipal(c); ok {
		labels[telemetry.ProfilingLabelRole] = p.Role.String()
	}
	return labels
}
