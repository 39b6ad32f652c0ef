// queryservice exposes the query gateway over HTTP.
package queryservice

import (
	"context"

	"github.com/chweb/chweb/httpapi"
	"github.com/chweb/chweb/internal/gateway"
	"github.com/gin-gonic/gin"
)

// Executor runs a query request and returns its envelope.
type Executor interface {
	Execute(ctx context.Context, req gateway.Request) gateway.Response
}

type QueryService struct {
	gateway Executor
}

func NewQueryService(gateway Executor) *QueryService {
	return &QueryService{
		gateway: gateway,
	}
}

func (s *QueryService) Register(router gin.IRouter) {
	router.POST("/query", s.Query)
}

var _ httpapi.Service = (*QueryService)(nil)
