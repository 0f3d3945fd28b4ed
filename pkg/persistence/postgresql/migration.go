package postgresql

// migrations returns the numbered schema migrations for the PostgreSQL backend.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS processes (
				revision UUID PRIMARY KEY,
				group_id UUID NOT NULL,
				title VARCHAR(200) NOT NULL DEFAULT '',
				items JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_processes_group_created
				ON processes (group_id, created_at DESC);

			CREATE TABLE IF NOT EXISTS executions (
				id UUID PRIMARY KEY,
				process_group_id UUID NOT NULL,
				process_revision UUID NOT NULL REFERENCES processes (revision),
				initiated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS execution_history (
				id UUID PRIMARY KEY,
				execution_id UUID NOT NULL REFERENCES executions (id) ON DELETE CASCADE,
				type VARCHAR(16) NOT NULL CHECK (type IN ('step_started', 'step_done')),
				step_id UUID NOT NULL,
				at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				seq BIGSERIAL
			);

			CREATE INDEX IF NOT EXISTS idx_execution_history_execution
				ON execution_history (execution_id, seq);
		`,
	}
}
