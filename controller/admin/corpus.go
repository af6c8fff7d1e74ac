package admin

import (
	"time"

	"github.com/strataops/strata-triage/model/common"
	"github.com/strataops/strata-triage/task"
	"github.com/gin-gonic/gin"
)

type CorpusApi struct{}

// Sync forces a corpus re-embedding run. The short debounce coalesces a
// burst of edits into one run.
func (d *CorpusApi) Sync(ctx *gin.Context) {
	manager := task.Default()
	if manager == nil {
		common.Fail(ctx, "background tasks not initialized")
		return
	}
	manager.DebounceCorpusSync(time.Second)
	common.Success(ctx, nil)
}
