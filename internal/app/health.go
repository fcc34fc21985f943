package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// pinger is anything the health check can probe
type pinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	deps map[string]pinger
}

func NewHealthChecker(infra Infrastructure) *HealthChecker {
	return &HealthChecker{
		deps: map[string]pinger{
			"postgres": infra.Postgres(),
			"redis":    infra.Redis(),
		},
	}
}

// check pings every dependency in parallel and reports the failures by name
func (h *HealthChecker) check(ctx context.Context) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	type result struct {
		name string
		err  error
	}
	results := make(chan result, len(h.deps))
	for name, dep := range h.deps {
		go func() {
			results <- result{name: name, err: dep.Ping(ctx)}
		}()
	}

	failed := map[string]error{}
	for range h.deps {
		if r := <-results; r.err != nil {
			failed[r.name] = r.err
		}
	}
	return failed
}

func (h *HealthChecker) Handler(c *gin.Context) {
	failed := h.check(c.Request.Context())
	if len(failed) > 0 {
		errs := make([]error, 0, len(failed))
		checks := gin.H{}
		for name, err := range failed {
			errs = append(errs, err)
			checks[name] = "fail"
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "fail",
			"checks": checks,
			"error":  errors.Join(errs...).Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "pass",
	})
}
