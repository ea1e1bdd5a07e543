package documents

import "testing"

func TestRequirements_ConditionalCompanyDocs(t *testing.T) {
	r := NewResolver()

	base := r.Requirements("Borrower", map[string]any{})
	for _, req := range base {
		if req.ConditionalOn != "" {
			t.Fatalf("conditional requirement %q leaked without its field", req.Name)
		}
	}
	if len(base) != 3 {
		t.Fatalf("expected 3 unconditional borrower requirements, got %d", len(base))
	}

	withCompany := r.Requirements("Borrower", map[string]any{
		"company_registration_number": "12345678",
	})
	if len(withCompany) != 5 {
		t.Fatalf("expected 5 requirements with a company, got %d", len(withCompany))
	}
}

func TestRequirements_EmptyConditionalValueDropped(t *testing.T) {
	r := NewResolver()

	reqs := r.Requirements("Lender", map[string]any{
		"fca_registration_number": "",
	})
	for _, req := range reqs {
		if req.Name == "FCA Authorisation" {
			t.Fatal("empty conditional value must drop the requirement")
		}
	}
}

func TestRequirements_UnknownRole(t *testing.T) {
	r := NewResolver()
	if reqs := r.Requirements("Admin", nil); reqs != nil {
		t.Fatalf("expected no requirements for unknown role, got %v", reqs)
	}
}

func TestCheck_FilenameMatching(t *testing.T) {
	r := NewResolver()

	uploads := []Document{
		{FileName: "my_passport_scan.pdf"},
		{FileName: "utility-bill-march.pdf"},
	}
	checklist := r.Check("Borrower", map[string]any{}, uploads)

	if checklist.AllUploaded {
		t.Fatalf("bank statements still missing: %+v", checklist)
	}
	if len(checklist.Uploaded) != 2 || len(checklist.Missing) != 1 {
		t.Fatalf("unexpected split: uploaded=%v missing=%v", checklist.Uploaded, checklist.Missing)
	}
	if checklist.Missing[0] != "Bank Statements" {
		t.Fatalf("expected Bank Statements missing, got %v", checklist.Missing)
	}
}

func TestCheck_CategoryMatching(t *testing.T) {
	r := NewResolver()

	uploads := []Document{
		{FileName: "scan001.pdf", Category: "identity"},
		{FileName: "scan002.pdf", Category: "address"},
		{FileName: "scan003.pdf", Category: "financial"},
	}
	checklist := r.Check("Borrower", map[string]any{}, uploads)

	if !checklist.AllUploaded {
		t.Fatalf("expected category matches to satisfy all: %+v", checklist)
	}
}

func TestCheck_PartialMatchDisablesCountFallback(t *testing.T) {
	r := NewResolver()

	// Enough files by count, but they all match the same single requirement:
	// the rest must stay missing.
	uploads := []Document{
		{FileName: "passport-front.pdf"},
		{FileName: "passport-back.pdf"},
		{FileName: "passport-old.pdf"},
	}
	checklist := r.Check("Consultant", map[string]any{}, uploads)

	if checklist.AllUploaded {
		t.Fatalf("expected gate to stay closed, got %+v", checklist)
	}
	if len(checklist.Uploaded) != 1 || checklist.Uploaded[0] != "Passport" {
		t.Fatalf("expected only Passport matched, got %v", checklist.Uploaded)
	}
	if len(checklist.Missing) != 2 {
		t.Fatalf("expected two missing requirements, got %v", checklist.Missing)
	}
}

func TestCheck_CountFallback(t *testing.T) {
	r := NewResolver()

	// opaque filenames, no categories, but enough files
	uploads := []Document{
		{FileName: "a.pdf"},
		{FileName: "b.pdf"},
		{FileName: "c.pdf"},
	}
	checklist := r.Check("Borrower", map[string]any{}, uploads)

	if !checklist.AllUploaded {
		t.Fatalf("expected count fallback to satisfy, got %+v", checklist)
	}
	if len(checklist.Missing) != 0 {
		t.Fatalf("expected no missing entries, got %v", checklist.Missing)
	}
}

func TestCheck_NoUploads(t *testing.T) {
	r := NewResolver()

	checklist := r.Check("Consultant", map[string]any{}, nil)
	if checklist.AllUploaded {
		t.Fatal("expected missing requirements with no uploads")
	}
	if checklist.RequiredCount != 3 {
		t.Fatalf("expected 3 consultant requirements, got %d", checklist.RequiredCount)
	}
}

func TestCheck_NoRequirementsIsComplete(t *testing.T) {
	r := NewResolver()

	checklist := r.Check("Admin", nil, nil)
	if !checklist.AllUploaded {
		t.Fatal("a role with no requirements is trivially complete")
	}
}
