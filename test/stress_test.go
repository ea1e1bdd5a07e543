package test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"buildfund/documents"
	"buildfund/onboarding"
	"buildfund/test/actors"
	"buildfund/test/chaos"
	"buildfund/test/infra"
	"buildfund/test/oracles"
)

var (
	flDuration    = flag.Duration("duration", 90*time.Second, "how long to run stress")
	flConcurrency = flag.Int("concurrency", 8, "number of concurrent actors")
	flSeed        = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flDSN         = flag.String("dsn", "", "existing Postgres DSN to reuse (avoids Docker)")
)

func seedRNG(seed int64) { rand.Seed(seed) }

func TestOnboardingConcurrency(t *testing.T) {
	flag.Parse()
	seed := *flSeed
	seedRNG(seed)

	var (
		pgC        *infra.PGContainer
		dsn        string
		err        error
		usedShared bool
	)
	ctx, cancel := context.WithTimeout(context.Background(), *flDuration+60*time.Second)
	defer cancel()

	switch {
	case *flDSN != "":
		dsn = *flDSN
		usedShared = true
		pgC = &infra.PGContainer{}
	case os.Getenv("STRESS_TEST_PG_DSN") != "":
		dsn = os.Getenv("STRESS_TEST_PG_DSN")
		usedShared = true
		pgC = &infra.PGContainer{}
	default:
		if dockerAvailable(ctx) {
			pgC, dsn, err = infra.StartPostgres16(ctx, "")
			if err != nil {
				t.Fatalf("start postgres: %v", err)
			}
		} else {
			dsn, err = infra.InitLocalDatabase(ctx)
			if err != nil {
				t.Fatalf("init local database: %v", err)
			}
			pgC = &infra.PGContainer{}
		}
	}
	defer pgC.Terminate(context.Background())

	// migrations
	pool, teardown, err := infra.ApplyMigrations(ctx, dsn, usedShared)
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	defer pool.Close()
	defer func() {
		if err := teardown(context.Background()); err != nil {
			t.Logf("teardown warning: %v", err)
		}
	}()

	userIDs := mustSeedUsers(t, ctx, pool, *flConcurrency)
	svc := newConversationService(pool)

	// run actors
	g, ctx2 := errgroup.WithContext(ctx)
	stop := make(chan struct{})

	// one conversation per user, plus two actors racing the first user's
	// session (last-write-wins on concurrent turns)
	for _, userID := range userIDs {
		id := userID
		g.Go(func() error { return actors.Onboarder(ctx2, svc, id, onboarding.RoleBorrower, stop) })
	}
	g.Go(func() error { return actors.Onboarder(ctx2, svc, userIDs[0], onboarding.RoleBorrower, stop) })

	g.Go(func() error { return actors.Uploader(ctx2, pool, userIDs[0], stop) })
	g.Go(func() error { return actors.ProgressReader(ctx2, svc, userIDs[0], stop) })

	// chaos: kill random backend
	go chaos.TerminateRandomBackend(ctx2, pool, stop)

	// schedule oracle checks until duration reached
	deadline := time.Now().Add(*flDuration)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var failed bool
loop:
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			name, row, err := oracles.Run(ctx2, pool)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					break loop
				}
				t.Fatalf("oracle error: %v", err)
			}
			if name != "" {
				failed = true
				dumpRecent(t, ctx2, pool)
				t.Fatalf("Oracle %s failed. First row: %s (seed=%d)", name, row, seed)
			}
		}
	}

	close(stop)
	if err := g.Wait(); err != nil && !failed {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("actors errored: %v", err)
		}
	}
}

func dockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	c := exec.CommandContext(ctx, "docker", "info")
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}

func newConversationService(pool *pgxpool.Pool) *onboarding.ConversationService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog := onboarding.NewCatalog()
	docs := documents.NewService(documents.NewStore(pool))
	engine := onboarding.NewEngine(catalog, nil, docs, logger)
	return onboarding.NewConversationService(
		engine,
		onboarding.NewRenderer(catalog),
		onboarding.NewTracker(),
		onboarding.NewSessionRepository(pool),
		onboarding.NewProgressRepository(pool),
		logger,
	)
}

func mustSeedUsers(t *testing.T, ctx context.Context, pool *pgxpool.Pool, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		var id string
		email := fmt.Sprintf("u%d-%d@example.com", i, rand.Int63())
		if err := pool.QueryRow(ctx, `INSERT INTO users (email, full_name) VALUES ($1,$2) RETURNING id`, email, "Stress User").Scan(&id); err != nil {
			t.Fatalf("seed user: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func dumpRecent(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	type dump struct {
		name string
		sql  string
	}
	dumps := []dump{
		{"onboarding_sessions", `SELECT id, user_id, current_step, is_active, last_activity FROM onboarding_sessions ORDER BY last_activity DESC LIMIT 50`},
		{"onboarding_progress", `SELECT user_id, completion_percentage, current_step, is_complete, last_updated FROM onboarding_progress ORDER BY last_updated DESC LIMIT 50`},
		{"documents", `SELECT id, user_id, file_name, category, uploaded_at FROM documents ORDER BY uploaded_at DESC LIMIT 50`},
	}
	for _, d := range dumps {
		rows, err := pool.Query(ctx, d.sql)
		if err != nil {
			t.Logf("dump %s error: %v", d.name, err)
			continue
		}
		cols := rows.FieldDescriptions()
		t.Logf("-- %s --", d.name)
		for rows.Next() {
			vals, _ := rows.Values()
			buf := make([]any, 0, len(vals))
			for i := range vals {
				buf = append(buf, fmt.Sprintf("%s=%v", string(cols[i].Name), vals[i]))
			}
			t.Logf("%s", buf)
		}
		rows.Close()
	}
}
