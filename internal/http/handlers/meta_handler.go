package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version godoc
// @ID          version
// @Summary     Version banner
// @Tags        Meta
// @Produce     plain
// @Success     200  {string}  string  "ykps-sjdb v0.1"
// @Router      /version [get]
func Version(banner string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, banner)
	}
}

// Health godoc
// @ID          health
// @Summary     Liveness probe
// @Tags        Meta
// @Produce     json
// @Success     200  {object}  map[string]string
// @Router      /health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
