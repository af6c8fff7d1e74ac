package admin

import (
	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/model/common"
	"github.com/strataops/strata-triage/model/dto"
	"github.com/strataops/strata-triage/service"
	"github.com/gin-gonic/gin"
)

type KnowledgeApi struct{}

func (d *KnowledgeApi) Upsert(ctx *gin.Context) {
	var req dto.UpsertKnowledgeEntryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		common.Fail(ctx, "invalid payload")
		return
	}

	entry, err := service.Service.AdminServiceGroup.KnowledgeService.Upsert(ctx.Request.Context(), &req)
	if err != nil {
		global.Log.Errorf("[admin] knowledge upsert failed: %v", err)
		common.Fail(ctx, "saving the entry failed")
		return
	}
	common.Success(ctx, entry)
}

func (d *KnowledgeApi) Retire(ctx *gin.Context) {
	var req dto.RetireKnowledgeEntryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		common.Fail(ctx, "invalid payload")
		return
	}

	if err := service.Service.AdminServiceGroup.KnowledgeService.Retire(ctx.Request.Context(), req.EntryKey); err != nil {
		global.Log.Errorf("[admin] retiring entry '%s' failed: %v", req.EntryKey, err)
		common.Fail(ctx, "retiring the entry failed")
		return
	}
	common.Success(ctx, nil)
}

func (d *KnowledgeApi) List(ctx *gin.Context) {
	entries, err := service.Service.AdminServiceGroup.KnowledgeService.List(ctx.Query("category"))
	if err != nil {
		global.Log.Errorf("[admin] listing entries failed: %v", err)
		common.Fail(ctx, "listing entries failed")
		return
	}
	common.Success(ctx, entries)
}
