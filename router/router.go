package router

import (
	"net/http"

	"github.com/strataops/strata-triage/controller"
	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/middleware"
	"github.com/strataops/strata-triage/model/common"

	"github.com/gin-gonic/gin"
)

func Start(ginServer *gin.Engine) {
	ginServer.MaxMultipartMemory = 32 << 20

	ginServer.Use(middleware.CorsHandle(), middleware.OptionsMethod)

	if global.Config.StaticDir != "" {
		ginServer.StaticFile("/favicon.ico", global.Config.StaticDir+"/favicon.ico")
		ginServer.StaticFS("/static", http.Dir(global.Config.StaticDir))
	}

	ginServer.NoRoute(func(ctx *gin.Context) {
		common.FailNotFound(ctx)
	})

	v1 := ginServer.Group("api/v1")
	{
		v1.POST("/webhook", controller.Api.UserApiGroup.WebhookApi.HandleWebhook)
	}

	admin := ginServer.Group("api/v1/admin")
	{
		admin.POST("/knowledge", controller.Api.AdminApiGroup.KnowledgeApi.Upsert)
		admin.POST("/knowledge/retire", controller.Api.AdminApiGroup.KnowledgeApi.Retire)
		admin.GET("/knowledge", controller.Api.AdminApiGroup.KnowledgeApi.List)
		admin.POST("/routing/override", controller.Api.AdminApiGroup.RoutingApi.Override)
		admin.GET("/routing/stats", controller.Api.AdminApiGroup.RoutingApi.Stats)
		admin.GET("/learning/status", controller.Api.AdminApiGroup.LearningApi.Status)
		admin.POST("/learning/downgrade", controller.Api.AdminApiGroup.LearningApi.DowngradePhase)
		admin.POST("/corpus/sync", controller.Api.AdminApiGroup.CorpusApi.Sync)
	}
}
