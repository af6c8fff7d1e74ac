package initialize

import (
	"fmt"
	"strings"

	"github.com/strataops/strata-triage/dao"
	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/model/enum"
	"github.com/strataops/strata-triage/task"
)

// ensureSchema creates the tables on first start. Statements are idempotent
// so restarts are free; schema evolution beyond this is a deployment concern.
func (i *Initializer) ensureSchema() error {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if global.Config.Database.Type == string(enum.MYSQL) {
		pk = "BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT"
	}

	tableStmts := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS `knowledge_entries` ("+
			"`id` %s,"+
			"`created_at` BIGINT NOT NULL DEFAULT 0,"+
			"`updated_at` BIGINT NOT NULL DEFAULT 0,"+
			"`entry_key` VARCHAR(191) NOT NULL UNIQUE,"+
			"`title` TEXT NOT NULL,"+
			"`body` TEXT NOT NULL,"+
			"`category` VARCHAR(64) NOT NULL DEFAULT '',"+
			"`subcategory` VARCHAR(64) NOT NULL DEFAULT '',"+
			"`status` VARCHAR(16) NOT NULL DEFAULT 'draft',"+
			"`success_rate` DOUBLE NOT NULL DEFAULT 0.5,"+
			"`usage_count` BIGINT NOT NULL DEFAULT 0,"+
			"`version` BIGINT NOT NULL DEFAULT 1,"+
			"`embedded_at` BIGINT NOT NULL DEFAULT 0"+
			")", pk),

		fmt.Sprintf("CREATE TABLE IF NOT EXISTS `training_examples` ("+
			"`id` %s,"+
			"`created_at` BIGINT NOT NULL DEFAULT 0,"+
			"`updated_at` BIGINT NOT NULL DEFAULT 0,"+
			"`uuid` VARCHAR(36) NOT NULL UNIQUE,"+
			"`conversation_id` BIGINT NOT NULL,"+
			"`category` VARCHAR(64) NOT NULL DEFAULT '',"+
			"`path` VARCHAR(32) NOT NULL DEFAULT '',"+
			"`ticket_text` TEXT NOT NULL,"+
			"`outcome` VARCHAR(16) NOT NULL DEFAULT 'unknown',"+
			"`embedded_at` BIGINT NOT NULL DEFAULT 0"+
			")", pk),

		fmt.Sprintf("CREATE TABLE IF NOT EXISTS `routing_decisions` ("+
			"`id` %s,"+
			"`created_at` BIGINT NOT NULL DEFAULT 0,"+
			"`updated_at` BIGINT NOT NULL DEFAULT 0,"+
			"`uuid` VARCHAR(36) NOT NULL UNIQUE,"+
			"`conversation_id` BIGINT NOT NULL,"+
			"`path` VARCHAR(32) NOT NULL,"+
			"`computed_path` VARCHAR(32) NOT NULL DEFAULT '',"+
			"`retrieval_score` DOUBLE NOT NULL DEFAULT 0,"+
			"`phase` VARCHAR(16) NOT NULL DEFAULT '',"+
			"`reason` VARCHAR(32) NOT NULL DEFAULT '',"+
			"`category` VARCHAR(64) NOT NULL DEFAULT '',"+
			"`entry_key` VARCHAR(191) NOT NULL DEFAULT '',"+
			"`experiment` BOOLEAN NOT NULL DEFAULT FALSE"+
			")", pk),

		fmt.Sprintf("CREATE TABLE IF NOT EXISTS `conversations` ("+
			"`id` %s,"+
			"`created_at` BIGINT NOT NULL DEFAULT 0,"+
			"`updated_at` BIGINT NOT NULL DEFAULT 0,"+
			"`conversation_id` BIGINT NOT NULL UNIQUE,"+
			"`account_id` BIGINT NOT NULL DEFAULT 0,"+
			"`category` VARCHAR(64) NOT NULL DEFAULT '',"+
			"`state` VARCHAR(16) NOT NULL DEFAULT 'open',"+
			"`escalation_reason` VARCHAR(32) NOT NULL DEFAULT '',"+
			"`confidence` DOUBLE NOT NULL DEFAULT 0,"+
			"`failed_turns` INT NOT NULL DEFAULT 0,"+
			"`entry_key` VARCHAR(191) NOT NULL DEFAULT '',"+
			"`archived_at` BIGINT NOT NULL DEFAULT 0"+
			")", pk),

		fmt.Sprintf("CREATE TABLE IF NOT EXISTS `turns` ("+
			"`id` %s,"+
			"`created_at` BIGINT NOT NULL DEFAULT 0,"+
			"`updated_at` BIGINT NOT NULL DEFAULT 0,"+
			"`conversation_id` BIGINT NOT NULL,"+
			"`turn_number` INT NOT NULL,"+
			"`customer_text` TEXT NOT NULL,"+
			"`system_response` TEXT NOT NULL,"+
			"`sentiment` VARCHAR(16) NOT NULL DEFAULT 'neutral',"+
			"`confidence` DOUBLE NOT NULL DEFAULT 0,"+
			"`entry_key` VARCHAR(191) NOT NULL DEFAULT '',"+
			"`prev_entry_key` VARCHAR(191) NOT NULL DEFAULT '',"+
			"`prev_entry_score` DOUBLE NOT NULL DEFAULT 0,"+
			"`entry_score` DOUBLE NOT NULL DEFAULT 0,"+
			"`escalated` BOOLEAN NOT NULL DEFAULT FALSE,"+
			"`resolution_successful` BOOLEAN NOT NULL DEFAULT FALSE,"+
			"UNIQUE (`conversation_id`, `turn_number`)"+
			")", pk),
	}

	for _, stmt := range tableStmts {
		if _, err := dao.DB.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema failed: %w\n%s", err, stmt)
		}
	}
	return i.ensureIndexes()
}

// ensureIndexes adds the secondary indexes. MySQL has no IF NOT EXISTS for
// CREATE INDEX, so a duplicate on restart is tolerated.
func (i *Initializer) ensureIndexes() error {
	indexStmts := []string{
		"CREATE INDEX `idx_knowledge_category_status` ON `knowledge_entries` (`category`, `status`)",
		"CREATE INDEX `idx_training_conversation` ON `training_examples` (`conversation_id`)",
		"CREATE INDEX `idx_training_category_outcome` ON `training_examples` (`category`, `outcome`)",
		"CREATE INDEX `idx_decisions_conversation` ON `routing_decisions` (`conversation_id`)",
	}

	ifNotExists := global.Config.Database.Type != string(enum.MYSQL)
	for _, stmt := range indexStmts {
		if ifNotExists {
			stmt = strings.Replace(stmt, "CREATE INDEX", "CREATE INDEX IF NOT EXISTS", 1)
		}
		if _, err := dao.DB.Exec(stmt); err != nil {
			if !ifNotExists && strings.Contains(err.Error(), "Duplicate key name") {
				continue
			}
			return fmt.Errorf("creating index failed: %w\n%s", err, stmt)
		}
	}
	return nil
}

// loadData runs the startup passes that want the full service graph: a
// corpus embedding sync so retrieval starts from a warm vector store.
func (i *Initializer) loadData(taskManager *task.Manager) {
	if err := taskManager.SyncCorpusEmbeddings(); err != nil {
		global.Log.Errorln("startup corpus sync failed, semantic retrieval may be stale:", err)
	}
}
