package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrSessionNotFound signals that no matching session exists.
	ErrSessionNotFound = errors.New("onboarding: session not found")
	// ErrProgressNotFound signals that the user has no progress record yet.
	ErrProgressNotFound = errors.New("onboarding: progress not found")
)

// SessionRepository handles persistence of dialogue sessions.
type SessionRepository interface {
	GetByID(ctx context.Context, sessionID string) (Session, error)
	GetActiveByUser(ctx context.Context, userID string) (Session, error)
	Create(ctx context.Context, sess Session) error
	Update(ctx context.Context, sess Session) error
}

// ProgressRepository handles persistence of the per-user progress aggregate.
type ProgressRepository interface {
	GetByUser(ctx context.Context, userID string) (Progress, error)
	Upsert(ctx context.Context, prog Progress) error
}

// PGSessionRepository implements SessionRepository backed by PostgreSQL.
// PendingSteps, Data and History travel as jsonb columns.
type PGSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a PostgreSQL-backed session repository.
func NewSessionRepository(pool *pgxpool.Pool) *PGSessionRepository {
	return &PGSessionRepository{pool: pool}
}

const sessionColumns = "id, user_id, current_step, pending_steps, collected_data, conversation_history, is_active, started_at, last_activity"

// GetByID retrieves a session by its id.
func (r *PGSessionRepository) GetByID(ctx context.Context, sessionID string) (Session, error) {
	const selectSQL = `
		SELECT ` + sessionColumns + `
		FROM onboarding_sessions
		WHERE id = $1
	`

	sess, err := scanSession(r.pool.QueryRow(ctx, selectSQL, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("onboarding: get session: %w", err)
	}

	return sess, nil
}

// GetActiveByUser retrieves the user's most recently touched active session.
func (r *PGSessionRepository) GetActiveByUser(ctx context.Context, userID string) (Session, error) {
	const selectSQL = `
		SELECT ` + sessionColumns + `
		FROM onboarding_sessions
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY last_activity DESC
		LIMIT 1
	`

	sess, err := scanSession(r.pool.QueryRow(ctx, selectSQL, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("onboarding: get active session: %w", err)
	}

	return sess, nil
}

// Create inserts a new session.
func (r *PGSessionRepository) Create(ctx context.Context, sess Session) error {
	const insertSQL = `
		INSERT INTO onboarding_sessions (id, user_id, current_step, pending_steps, collected_data, conversation_history, is_active, started_at, last_activity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	pending, data, history, err := marshalSession(sess)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, insertSQL,
		sess.ID, sess.UserID, sess.CurrentStep, pending, data, history,
		sess.Active, sess.StartedAt, sess.LastActivity)
	if err != nil {
		return fmt.Errorf("onboarding: create session: %w", err)
	}
	return nil
}

// Update rewrites the session's mutable state.
func (r *PGSessionRepository) Update(ctx context.Context, sess Session) error {
	const updateSQL = `
		UPDATE onboarding_sessions
		SET current_step = $2,
		    pending_steps = $3,
		    collected_data = $4,
		    conversation_history = $5,
		    is_active = $6,
		    last_activity = $7
		WHERE id = $1
	`

	pending, data, history, err := marshalSession(sess)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, updateSQL,
		sess.ID, sess.CurrentStep, pending, data, history,
		sess.Active, sess.LastActivity)
	if err != nil {
		return fmt.Errorf("onboarding: update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func marshalSession(sess Session) (pending, data, history []byte, err error) {
	if sess.PendingSteps == nil {
		sess.PendingSteps = []string{}
	}
	if sess.Data == nil {
		sess.Data = NewCollectedData()
	}
	if sess.History == nil {
		sess.History = []Message{}
	}

	if pending, err = json.Marshal(sess.PendingSteps); err != nil {
		return nil, nil, nil, fmt.Errorf("onboarding: marshal pending steps: %w", err)
	}
	if data, err = json.Marshal(sess.Data); err != nil {
		return nil, nil, nil, fmt.Errorf("onboarding: marshal collected data: %w", err)
	}
	if history, err = json.Marshal(sess.History); err != nil {
		return nil, nil, nil, fmt.Errorf("onboarding: marshal history: %w", err)
	}
	return pending, data, history, nil
}

func scanSession(row pgx.Row) (Session, error) {
	var (
		sess    Session
		pending []byte
		data    []byte
		history []byte
	)
	err := row.Scan(
		&sess.ID,
		&sess.UserID,
		&sess.CurrentStep,
		&pending,
		&data,
		&history,
		&sess.Active,
		&sess.StartedAt,
		&sess.LastActivity,
	)
	if err != nil {
		return Session{}, err
	}

	if err := json.Unmarshal(pending, &sess.PendingSteps); err != nil {
		return Session{}, fmt.Errorf("onboarding: unmarshal pending steps: %w", err)
	}
	if err := json.Unmarshal(data, &sess.Data); err != nil {
		return Session{}, fmt.Errorf("onboarding: unmarshal collected data: %w", err)
	}
	if err := json.Unmarshal(history, &sess.History); err != nil {
		return Session{}, fmt.Errorf("onboarding: unmarshal history: %w", err)
	}
	return sess, nil
}

// PGProgressRepository implements ProgressRepository backed by PostgreSQL.
type PGProgressRepository struct {
	pool *pgxpool.Pool
}

// NewProgressRepository creates a PostgreSQL-backed progress repository.
func NewProgressRepository(pool *pgxpool.Pool) *PGProgressRepository {
	return &PGProgressRepository{pool: pool}
}

// GetByUser retrieves the user's progress record.
func (r *PGProgressRepository) GetByUser(ctx context.Context, userID string) (Progress, error) {
	const selectSQL = `
		SELECT user_id, profile_complete, contact_complete, address_complete, company_complete,
		       financial_complete, documents_complete, address_verified, company_verified,
		       completion_percentage, current_step, is_complete, started_at, completed_at, last_updated
		FROM onboarding_progress
		WHERE user_id = $1
	`

	var prog Progress
	err := r.pool.QueryRow(ctx, selectSQL, userID).Scan(
		&prog.UserID,
		&prog.ProfileComplete,
		&prog.ContactComplete,
		&prog.AddressComplete,
		&prog.CompanyComplete,
		&prog.FinancialComplete,
		&prog.DocumentsComplete,
		&prog.AddressVerified,
		&prog.CompanyVerified,
		&prog.CompletionPercentage,
		&prog.CurrentStep,
		&prog.IsComplete,
		&prog.StartedAt,
		&prog.CompletedAt,
		&prog.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Progress{}, ErrProgressNotFound
		}
		return Progress{}, fmt.Errorf("onboarding: get progress: %w", err)
	}

	return prog, nil
}

// Upsert writes the progress record, keyed by user. COALESCE keeps an
// already-set completed_at stamp from being cleared by later writes.
func (r *PGProgressRepository) Upsert(ctx context.Context, prog Progress) error {
	const upsertSQL = `
		INSERT INTO onboarding_progress (user_id, profile_complete, contact_complete, address_complete, company_complete,
			financial_complete, documents_complete, address_verified, company_verified,
			completion_percentage, current_step, is_complete, started_at, completed_at, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (user_id) DO UPDATE SET
			profile_complete = EXCLUDED.profile_complete,
			contact_complete = EXCLUDED.contact_complete,
			address_complete = EXCLUDED.address_complete,
			company_complete = EXCLUDED.company_complete,
			financial_complete = EXCLUDED.financial_complete,
			documents_complete = EXCLUDED.documents_complete,
			address_verified = EXCLUDED.address_verified,
			company_verified = EXCLUDED.company_verified,
			completion_percentage = EXCLUDED.completion_percentage,
			current_step = EXCLUDED.current_step,
			is_complete = EXCLUDED.is_complete,
			completed_at = COALESCE(onboarding_progress.completed_at, EXCLUDED.completed_at),
			last_updated = EXCLUDED.last_updated
	`

	_, err := r.pool.Exec(ctx, upsertSQL,
		prog.UserID,
		prog.ProfileComplete,
		prog.ContactComplete,
		prog.AddressComplete,
		prog.CompanyComplete,
		prog.FinancialComplete,
		prog.DocumentsComplete,
		prog.AddressVerified,
		prog.CompanyVerified,
		prog.CompletionPercentage,
		prog.CurrentStep,
		prog.IsComplete,
		prog.StartedAt,
		prog.CompletedAt,
		prog.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("onboarding: upsert progress: %w", err)
	}
	return nil
}
