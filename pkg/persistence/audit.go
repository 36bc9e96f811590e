package persistence

import (
	"context"
	"encoding/json"
)

// RecordToolExecution appends a tool execution to the audit log. Best effort:
// audit failures are logged and swallowed so they never affect the caller.
func (s *Store) RecordToolExecution(ctx context.Context, tenantID, callID, toolName string, params map[string]any, success bool, execErr string) {
	var paramsJSON []byte
	if params != nil {
		var err error
		paramsJSON, err = json.Marshal(params)
		if err != nil {
			s.logger.Warn("failed to marshal audit params for %s: %v", toolName, err)
			paramsJSON = nil
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tool_audit_log (tenant_id, call_id, tool_name, params, success, error)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tenantID, callID, toolName, string(paramsJSON), boolToInt(success), execErr)
	if err != nil {
		s.logger.Warn("failed to record tool audit for %s: %v", toolName, err)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
