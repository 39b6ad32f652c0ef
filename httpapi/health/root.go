// healthservice reports whether the gateway can reach ClickHouse.
package healthservice

import (
	"context"
	"net/http"

	"github.com/chweb/chweb/httpapi"
	"github.com/gin-gonic/gin"
)

// Checker checks the database is reachable.
type Checker interface {
	Ping(ctx context.Context) error
}

type HealthService struct {
	checker Checker
}

func NewHealthService(checker Checker) *HealthService {
	return &HealthService{checker: checker}
}

func (s *HealthService) Register(router gin.IRouter) {
	router.GET("/healthz", s.Healthz)
}

func (s *HealthService) Healthz(c *gin.Context) {
	if err := s.checker.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
		})

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

var _ httpapi.Service = (*HealthService)(nil)
