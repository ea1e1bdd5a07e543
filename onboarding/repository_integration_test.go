package onboarding

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestSessionRepository_Integration connects to a real PostgreSQL via
// DATABASE_URL and exercises the session and progress repositories end to
// end, including the jsonb round trip and the sticky completion stamp.
func TestSessionRepository_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is empty; set it to a live PostgreSQL to run integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	defer pool.Close()

	for _, table := range []string{"users", "onboarding_sessions", "onboarding_progress"} {
		if !tableExists(ctx, t, pool, table) {
			t.Skipf("table %s missing; apply migrations first", table)
		}
	}

	var userID string
	err = pool.QueryRow(ctx, `INSERT INTO users (email, full_name) VALUES ($1, $2) RETURNING id`,
		fmt.Sprintf("itest+%d@example.com", time.Now().UnixNano()), "Integration Test").Scan(&userID)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	t.Cleanup(func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel2()
		pool.Exec(ctx2, `DELETE FROM onboarding_sessions WHERE user_id = $1`, userID)
		pool.Exec(ctx2, `DELETE FROM onboarding_progress WHERE user_id = $1`, userID)
		pool.Exec(ctx2, `DELETE FROM users WHERE id = $1`, userID)
	})

	sessions := NewSessionRepository(pool)
	progress := NewProgressRepository(pool)

	now := time.Now().UTC().Truncate(time.Millisecond)
	sess := Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		CurrentStep:  StepFundingTypeSelection,
		PendingSteps: []string{"funding_asset_description", "funding_asset_value"},
		Data:         CollectedData{"first_name": "John", "annual_income": "55000"},
		History: []Message{
			{Type: "bot", Message: "What type of funding are you looking for?", Timestamp: now},
			{Type: "user", Message: "Asset Finance", Timestamp: now},
		},
		Active:       true,
		StartedAt:    now,
		LastActivity: now,
	}

	if err := sessions.Create(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	got, err := sessions.GetByID(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.CurrentStep != StepFundingTypeSelection {
		t.Errorf("CurrentStep = %q", got.CurrentStep)
	}
	if len(got.PendingSteps) != 2 || got.PendingSteps[0] != "funding_asset_description" {
		t.Errorf("PendingSteps = %v", got.PendingSteps)
	}
	if got.Data.GetString("first_name") != "John" {
		t.Errorf("collected data round trip: %v", got.Data)
	}
	if len(got.History) != 2 || got.History[1].Message != "Asset Finance" {
		t.Errorf("history round trip: %v", got.History)
	}

	// The freshly created session is the user's active one.
	active, err := sessions.GetActiveByUser(ctx, userID)
	if err != nil {
		t.Fatalf("get active session: %v", err)
	}
	if active.ID != sess.ID {
		t.Errorf("active session = %s, want %s", active.ID, sess.ID)
	}

	// Deactivating removes it from the active lookup.
	got.Active = false
	got.LastActivity = time.Now().UTC()
	if err := sessions.Update(ctx, got); err != nil {
		t.Fatalf("update session: %v", err)
	}
	if _, err := sessions.GetActiveByUser(ctx, userID); err != ErrSessionNotFound {
		t.Errorf("GetActiveByUser after deactivate: err = %v, want ErrSessionNotFound", err)
	}

	// Updating an unknown session reports not found.
	missing := sess
	missing.ID = uuid.NewString()
	if err := sessions.Update(ctx, missing); err != ErrSessionNotFound {
		t.Errorf("update missing session: err = %v, want ErrSessionNotFound", err)
	}

	// Progress upsert, then completion, then a recompute that would clear the
	// stamp; completed_at must survive.
	prog := Progress{
		UserID:               userID,
		ProfileComplete:      true,
		CompletionPercentage: 17,
		CurrentStep:          StepContactPhone,
		StartedAt:            now,
		LastUpdated:          now,
	}
	if err := progress.Upsert(ctx, prog); err != nil {
		t.Fatalf("upsert progress: %v", err)
	}

	completedAt := now.Add(time.Minute)
	prog.IsComplete = true
	prog.CompletionPercentage = 100
	prog.CompletedAt = &completedAt
	prog.LastUpdated = completedAt
	if err := progress.Upsert(ctx, prog); err != nil {
		t.Fatalf("upsert completed progress: %v", err)
	}

	later := completedAt.Add(time.Hour)
	prog.CompletedAt = &later
	if err := progress.Upsert(ctx, prog); err != nil {
		t.Fatalf("re-upsert progress: %v", err)
	}

	stored, err := progress.GetByUser(ctx, userID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if !stored.IsComplete || stored.CompletionPercentage != 100 {
		t.Errorf("progress = %+v", stored)
	}
	if stored.CompletedAt == nil {
		t.Fatal("CompletedAt is nil after completion")
	}
	if !stored.CompletedAt.Equal(completedAt) {
		t.Errorf("CompletedAt = %v, want first stamp %v", stored.CompletedAt, completedAt)
	}
}

func tableExists(ctx context.Context, t *testing.T, pool *pgxpool.Pool, name string) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)`, name).Scan(&exists)
	if err != nil {
		t.Fatalf("check table %s: %v", name, err)
	}
	return exists
}
