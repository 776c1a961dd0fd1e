package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	dbStatus := "using_memory"
	if s.db != nil {
		dbStatus = "unavailable"
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err == nil {
			dbStatus = "ok"
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"health":       "ok",
		"db":           dbStatus,
		"rate_limited": s.limiter.Enabled(),
		"sweeper":      s.sweeper != nil,
		"timestamp":    time.Now().Unix(),
	})
}
