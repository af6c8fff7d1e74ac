package task

import (
	"github.com/strataops/strata-triage/global"
)

// ProbeMcpServers verifies each configured research server still exposes the
// tool the deep research path calls, so a renamed or withdrawn tool shows up
// in the logs before it shows up as failed research turns.
func (m *Manager) ProbeMcpServers() error {
	if global.McpService == nil || len(global.Config.McpServers) == 0 {
		return nil
	}

	tools := global.McpService.GetAvailableToolsWithClient()
	for name, cfg := range global.Config.McpServers {
		if cfg.ResearchTool == "" {
			continue
		}

		found := false
		for _, tool := range tools[name] {
			if tool.Name == cfg.ResearchTool {
				found = true
				break
			}
		}
		if !found {
			global.Log.Warnf("[mcp] server '%s' no longer offers research tool '%s'", name, cfg.ResearchTool)
		}
	}
	return nil
}
