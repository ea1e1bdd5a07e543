package onboarding

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func mustSetDecimal(t *testing.T, d CollectedData, field, value string) {
	t.Helper()
	v, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	d.SetDecimal(field, v)
}

func TestRenderer_UnknownStep(t *testing.T) {
	r := NewRenderer(NewCatalog())
	if _, ok := r.Render("no_such_step", RoleBorrower, NewCollectedData()); ok {
		t.Fatal("expected unknown step to report not found")
	}
}

func TestRenderer_ProgressSuffix(t *testing.T) {
	r := NewRenderer(NewCatalog())

	q, ok := r.Render(StepProfileName, RoleBorrower, NewCollectedData())
	if !ok {
		t.Fatal("expected step to render")
	}
	if !strings.Contains(q.Question, "(Step 2 of 21") {
		t.Fatalf("expected progress suffix, got %q", q.Question)
	}
	if q.StepNumber != 2 || q.TotalSteps != 21 {
		t.Fatalf("unexpected step counters: %d/%d", q.StepNumber, q.TotalSteps)
	}

	for _, step := range []string{StepWelcome, StepReview, StepComplete} {
		q, _ := r.Render(step, RoleBorrower, NewCollectedData())
		if strings.Contains(q.Question, "(Step ") {
			t.Fatalf("step %s must not carry a progress suffix: %q", step, q.Question)
		}
	}
}

func TestRenderer_SubFlowStepUsesFundingSlot(t *testing.T) {
	r := NewRenderer(NewCatalog())
	c := NewCatalog()

	q, ok := r.Render("funding_asset_value", RoleBorrower, NewCollectedData())
	if !ok {
		t.Fatal("expected sub-flow step to render")
	}
	want := c.IndexOf(RoleBorrower, StepFundingTypeSelection) + 1
	if q.StepNumber != want {
		t.Fatalf("expected step number %d, got %d", want, q.StepNumber)
	}
}

func TestRenderer_FormattedAddress(t *testing.T) {
	r := NewRenderer(NewCatalog())

	data := NewCollectedData()
	q, _ := r.Render(StepAddressVerification, RoleBorrower, data)
	if !strings.Contains(q.Question, "the address") {
		t.Fatalf("expected fallback address text, got %q", q.Question)
	}

	data.SetMap(FieldAddressVerification, map[string]any{
		"verified":          true,
		"formatted_address": "10 Downing St, London SW1A 2AA, UK",
	})
	q, _ = r.Render(StepAddressVerification, RoleBorrower, data)
	if !strings.Contains(q.Question, "10 Downing St") {
		t.Fatalf("expected formatted address, got %q", q.Question)
	}
}

func TestRenderer_CompanyNameFallback(t *testing.T) {
	r := NewRenderer(NewCatalog())

	q, _ := r.Render(StepCompanyVerification, RoleBorrower, NewCollectedData())
	if !strings.Contains(q.Question, "the company") {
		t.Fatalf("expected fallback name, got %q", q.Question)
	}

	data := NewCollectedData()
	data.SetMap(FieldCompanyVerification, map[string]any{
		"verified":     true,
		"company_info": map[string]any{"company_name": "ACME BUILDERS LTD"},
	})
	q, _ = r.Render(StepCompanyVerification, RoleBorrower, data)
	if !strings.Contains(q.Question, "ACME BUILDERS LTD") {
		t.Fatalf("expected company name, got %q", q.Question)
	}
}

func TestRenderer_DirectorsList(t *testing.T) {
	r := NewRenderer(NewCatalog())

	q, _ := r.Render(StepDirectorDetails, RoleBorrower, NewCollectedData())
	if !strings.Contains(q.Question, "No directors found for this company.") {
		t.Fatalf("expected fallback list, got %q", q.Question)
	}

	data := NewCollectedData()
	data.SetMap(FieldCompanyVerification, map[string]any{
		"verified":  true,
		"directors": []any{"JANE DOE", "JOHN ROE"},
	})
	q, _ = r.Render(StepDirectorDetails, RoleBorrower, data)
	if !strings.Contains(q.Question, "- JANE DOE") || !strings.Contains(q.Question, "1 of 2") {
		t.Fatalf("expected director list and counter, got %q", q.Question)
	}
}

func TestRenderer_ReviewSummary(t *testing.T) {
	r := NewRenderer(NewCatalog())

	q, _ := r.Render(StepReview, RoleBorrower, NewCollectedData())
	if !strings.Contains(q.Question, "No data collected yet.") {
		t.Fatalf("expected empty summary fallback, got %q", q.Question)
	}

	data := NewCollectedData()
	data.SetString(FieldFirstName, "John")
	data.SetString(FieldLastName, "Smith")
	data.SetString(FieldPhoneNumber, "+44 7700 900123")
	mustSetDecimal(t, data, FieldAnnualIncome, "55000")

	q, _ = r.Render(StepReview, RoleBorrower, data)
	if !strings.Contains(q.Question, "Name: John Smith") {
		t.Fatalf("expected name line, got %q", q.Question)
	}
	if !strings.Contains(q.Question, "Income: £55,000") {
		t.Fatalf("expected formatted income, got %q", q.Question)
	}
}

func TestRenderer_NetWorthTotals(t *testing.T) {
	r := NewRenderer(NewCatalog())

	data := NewCollectedData()
	mustSetDecimal(t, data, "asset_property", "250000")
	mustSetDecimal(t, data, "asset_savings", "15000")
	mustSetDecimal(t, data, "liability_mortgage", "180000")

	q, _ := r.Render(StepFinancialLiabilities, RoleBorrower, data)
	if !strings.Contains(q.Question, "total assets 265,000") {
		t.Fatalf("expected asset total, got %q", q.Question)
	}
	if !strings.Contains(q.Question, "net worth 85,000") {
		t.Fatalf("expected net worth, got %q", q.Question)
	}
}

func TestRenderer_RequiredDocumentsConditional(t *testing.T) {
	r := NewRenderer(NewCatalog())

	q, _ := r.Render(StepDocuments, RoleBorrower, NewCollectedData())
	if strings.Contains(q.Question, "Company Accounts") {
		t.Fatalf("company docs must be conditional, got %q", q.Question)
	}

	data := NewCollectedData()
	data.SetString(FieldCompanyNumber, "12345678")
	q, _ = r.Render(StepDocuments, RoleBorrower, data)
	if !strings.Contains(q.Question, "Company Accounts") {
		t.Fatalf("expected company docs once number present, got %q", q.Question)
	}
}
