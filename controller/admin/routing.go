package admin

import (
	"strconv"
	"time"

	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/model/common"
	"github.com/strataops/strata-triage/model/dto"
	"github.com/strataops/strata-triage/model/enum"
	"github.com/strataops/strata-triage/service"
	"github.com/gin-gonic/gin"
)

type RoutingApi struct{}

// Override redirects a ticket's latest routing decision to an
// operator-chosen path. The computed path stays on the audit record.
func (d *RoutingApi) Override(ctx *gin.Context) {
	var req dto.OverrideRouteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		common.Fail(ctx, "invalid payload")
		return
	}

	group := service.Service.UserServiceGroup
	decision, err := group.RoutingService.LatestDecision(req.ConversationID)
	if err != nil {
		common.FailNotFound(ctx)
		return
	}

	if err := group.RoutingService.Override(decision.Uuid, enum.RoutePath(req.Path), req.Operator); err != nil {
		global.Log.Errorf("[admin] override of decision %s failed: %v", decision.Uuid, err)
		common.Fail(ctx, "override failed")
		return
	}
	common.Success(ctx, nil)
}

// Stats reports how often operators redirect the cascade, per computed path.
// The window defaults to the last 30 days.
func (d *RoutingApi) Stats(ctx *gin.Context) {
	days, err := strconv.Atoi(ctx.DefaultQuery("days", "30"))
	if err != nil || days <= 0 {
		common.Fail(ctx, "invalid days")
		return
	}

	since := time.Now().AddDate(0, 0, -days).Unix()
	stats, err := service.Service.UserServiceGroup.RoutingService.OverrideStats(since)
	if err != nil {
		global.Log.Errorf("[admin] override stats failed: %v", err)
		common.Fail(ctx, "loading override stats failed")
		return
	}
	common.Success(ctx, stats)
}

type LearningApi struct{}

func (d *LearningApi) Status(ctx *gin.Context) {
	statuses, err := service.Service.UserServiceGroup.LearningService.Status()
	if err != nil {
		global.Log.Errorf("[admin] learning status failed: %v", err)
		common.Fail(ctx, "loading learning status failed")
		return
	}
	common.Success(ctx, statuses)
}

// DowngradePhase forces a category back to an earlier operating phase. The
// tracker itself only ever moves phases forward.
func (d *LearningApi) DowngradePhase(ctx *gin.Context) {
	var req dto.PhaseDowngradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		common.Fail(ctx, "invalid payload")
		return
	}

	if err := service.Service.UserServiceGroup.LearningService.DowngradePhase(
		req.Category, enum.Phase(req.Phase), req.Operator); err != nil {
		common.Fail(ctx, err.Error())
		return
	}
	common.Success(ctx, nil)
}
