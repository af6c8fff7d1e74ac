package middleware

import (
	"net/http"
	"time"

	"github.com/strataops/strata-triage/global"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func CorsHandle() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     global.Config.Cors,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func OptionsMethod(ctx *gin.Context) {
	if ctx.Request.Method == http.MethodOptions {
		ctx.AbortWithStatus(http.StatusNoContent)
	}
}
