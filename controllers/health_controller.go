package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jlin-dev/feedstream/global"
)

// Health provides a liveness endpoint for container orchestrators. It also
// reports whether the item store is reachable, since nothing else works
// without it.
func Health(c *gin.Context) {
	status := "ok"
	if sqlDB, err := global.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
	})
}
