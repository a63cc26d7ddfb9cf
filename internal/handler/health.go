package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/socialpulse/backend/internal/model"
	"github.com/socialpulse/backend/internal/security"
)

func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, model.PingResponse{Message: "pong"})
}

func Root(c *gin.Context) {
	c.JSON(http.StatusOK, model.RootResponse{
		Status:  "ok",
		Message: "socialpulse API server is running",
	})
}

type RevocationModeReporter interface {
	Mode() security.BlacklistMode
}

// Healthz reports which revocation store is active. It never resolves the store itself.
func Healthz(blacklist RevocationModeReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, model.HealthResponse{
			Status:     "ok",
			Revocation: string(blacklist.Mode()),
		})
	}
}
