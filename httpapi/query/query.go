package queryservice

import (
	"net/http"

	"github.com/chweb/chweb/internal/gateway"
	"github.com/gin-gonic/gin"
)

// Query runs the submitted statement.
//
// Failures of the statement itself are part of the envelope and still
// answered with 200. Only a body that is not a query request is rejected.
func (s *QueryService) Query(c *gin.Context) {
	var req gateway.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "The request body must be a JSON object with a \"sql\" string.",
			"detail": err.Error(),
		})

		return
	}

	c.JSON(http.StatusOK, s.gateway.Execute(c.Request.Context(), req))
}
