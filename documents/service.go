package documents

import "context"

// Service combines the upload store with the requirement resolver so callers
// get a single completeness answer per user.
type Service struct {
	store    Store
	resolver Resolver
}

func NewService(store Store) *Service {
	return &Service{store: store, resolver: NewResolver()}
}

// Checklist resolves requirements for the role, filters them against the
// collected data and matches them with whatever the user has uploaded.
func (s *Service) Checklist(ctx context.Context, userID, role string, collected map[string]any) (Checklist, error) {
	uploads, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return Checklist{}, err
	}
	return s.resolver.Check(role, collected, uploads), nil
}

// Register records an uploaded file's metadata.
func (s *Service) Register(ctx context.Context, doc Document) (Document, error) {
	return s.store.Add(ctx, doc)
}

// List returns the user's uploaded documents.
func (s *Service) List(ctx context.Context, userID string) ([]Document, error) {
	return s.store.ListByUser(ctx, userID)
}

// Get returns a single document owned by the user.
func (s *Service) Get(ctx context.Context, userID, docID string) (Document, error) {
	return s.store.GetByID(ctx, userID, docID)
}
