package documents

import (
	"context"
	"errors"
	"testing"
)

type fakeStore struct {
	docs   []Document
	addErr error
}

func (f *fakeStore) ListByUser(_ context.Context, userID string) ([]Document, error) {
	out := make([]Document, 0, len(f.docs))
	for _, d := range f.docs {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) GetByID(_ context.Context, userID, docID string) (Document, error) {
	for _, d := range f.docs {
		if d.UserID == userID && d.ID == docID {
			return d, nil
		}
	}
	return Document{}, ErrNotFound
}

func (f *fakeStore) Add(_ context.Context, doc Document) (Document, error) {
	if f.addErr != nil {
		return Document{}, f.addErr
	}
	doc.ID = "doc-1"
	f.docs = append(f.docs, doc)
	return doc, nil
}

func TestService_Checklist(t *testing.T) {
	store := &fakeStore{docs: []Document{
		{ID: "a", UserID: "user-1", FileName: "my_passport.pdf"},
		{ID: "b", UserID: "user-2", FileName: "someone_elses.pdf"},
	}}
	svc := NewService(store)

	list, err := svc.Checklist(context.Background(), "user-1", "Borrower", map[string]any{})
	if err != nil {
		t.Fatalf("Checklist: %v", err)
	}
	if list.RequiredCount != 3 {
		t.Errorf("RequiredCount = %d, want 3", list.RequiredCount)
	}
	// Only user-1's upload counts; the passport requirement is satisfied.
	if list.UploadedCount != 1 {
		t.Errorf("UploadedCount = %d, want 1", list.UploadedCount)
	}
	if list.AllUploaded {
		t.Error("AllUploaded = true with documents still missing")
	}
}

func TestService_RegisterAndGet(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	doc, err := svc.Register(context.Background(), Document{UserID: "user-1", FileName: "utility-bill.pdf"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if doc.ID == "" {
		t.Fatal("Register returned empty id")
	}

	got, err := svc.Get(context.Background(), "user-1", doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FileName != "utility-bill.pdf" {
		t.Errorf("FileName = %q", got.FileName)
	}

	if _, err := svc.Get(context.Background(), "user-2", doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-user get: err = %v, want ErrNotFound", err)
	}
}
