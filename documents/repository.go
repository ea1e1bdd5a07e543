package documents

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the requested document does not exist.
var ErrNotFound = errors.New("documents: not found")

// Store provides access to uploaded document metadata.
type Store interface {
	ListByUser(ctx context.Context, userID string) ([]Document, error)
	GetByID(ctx context.Context, userID, docID string) (Document, error)
	Add(ctx context.Context, doc Document) (Document, error)
}

// PGStore implements Store backed by PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) ListByUser(ctx context.Context, userID string) ([]Document, error) {
	const query = `
		SELECT id, user_id, file_name, file_type, category, uploaded_at
		FROM documents
		WHERE user_id = $1
		ORDER BY uploaded_at ASC
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("documents: list: %w", err)
	}
	defer rows.Close()

	out := make([]Document, 0, 8)
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.FileName, &doc.FileType, &doc.Category, &doc.UploadedAt); err != nil {
			return nil, fmt.Errorf("documents: scan: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("documents: iterate: %w", err)
	}
	return out, nil
}

func (s *PGStore) Add(ctx context.Context, doc Document) (Document, error) {
	if doc.UserID == "" {
		return Document{}, fmt.Errorf("documents: user id required")
	}
	if doc.FileName == "" {
		return Document{}, fmt.Errorf("documents: file name required")
	}

	const query = `
		INSERT INTO documents (user_id, file_name, file_type, category)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, file_name, file_type, category, uploaded_at
	`

	var out Document
	err := s.pool.QueryRow(ctx, query, doc.UserID, doc.FileName, doc.FileType, doc.Category).
		Scan(&out.ID, &out.UserID, &out.FileName, &out.FileType, &out.Category, &out.UploadedAt)
	if err != nil {
		return Document{}, fmt.Errorf("documents: insert: %w", err)
	}
	return out, nil
}

// GetByID fetches a single document owned by the user.
func (s *PGStore) GetByID(ctx context.Context, userID, docID string) (Document, error) {
	const query = `
		SELECT id, user_id, file_name, file_type, category, uploaded_at
		FROM documents
		WHERE id = $1 AND user_id = $2
	`

	var doc Document
	err := s.pool.QueryRow(ctx, query, docID, userID).
		Scan(&doc.ID, &doc.UserID, &doc.FileName, &doc.FileType, &doc.Category, &doc.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("documents: get by id: %w", err)
	}
	return doc, nil
}
