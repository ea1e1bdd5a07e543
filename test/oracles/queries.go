package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_percentage_bounds",
			SQL: `SELECT user_id, completion_percentage FROM onboarding_progress
                  WHERE completion_percentage < 0 OR completion_percentage > 100`,
		},
		{
			Name: "O2_completion_stamp",
			SQL: `SELECT user_id FROM onboarding_progress
                  WHERE is_complete AND completed_at IS NULL`,
		},
		{
			Name: "O3_completion_consistency",
			SQL: `SELECT user_id, completion_percentage FROM onboarding_progress
                  WHERE is_complete AND completion_percentage <> 100`,
		},
		{
			Name: "O4_session_shape",
			SQL: `SELECT id FROM onboarding_sessions
                  WHERE jsonb_typeof(pending_steps) <> 'array'
                     OR jsonb_typeof(collected_data) <> 'object'
                     OR jsonb_typeof(conversation_history) <> 'array'`,
		},
		{
			Name: "O5_session_activity_order",
			SQL: `SELECT id FROM onboarding_sessions
                  WHERE last_activity < started_at`,
		},
		{
			Name: "O6_orphan_sessions",
			SQL: `SELECT s.id FROM onboarding_sessions s
                  LEFT JOIN users u ON u.id = s.user_id
                  WHERE u.id IS NULL`,
		},
		{
			Name: "O7_orphan_documents",
			SQL: `SELECT d.id FROM documents d
                  LEFT JOIN users u ON u.id = d.user_id
                  WHERE u.id IS NULL`,
		},
		{
			Name: "O8_progress_timestamps",
			SQL: `SELECT user_id FROM onboarding_progress
                  WHERE completed_at IS NOT NULL AND completed_at < started_at`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
