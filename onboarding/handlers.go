package onboarding

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"buildfund/verification"
)

// buildHandlers assembles the finite step-id -> handler map. Steps without an
// entry fall back to the default rule in Process (advance one static step).
func (e *Engine) buildHandlers() map[string]handlerFunc {
	handlers := map[string]handlerFunc{
		StepWelcome:              e.handleWelcome,
		StepProfileName:          e.textField(FieldFirstName),
		StepProfileLastName:      e.textField(FieldLastName),
		StepProfileDOB:           e.dateField(FieldDateOfBirth),
		StepProfileNationality:   e.textField(FieldNationality),
		StepContactPhone:         e.textField(FieldPhoneNumber),
		StepAddressCollection:    e.handleAddressCollection,
		StepAddressVerification:  e.handleAddressVerification,
		StepCompanyCollection:    e.handleCompanyCollection,
		StepCompanyVerification:  e.handleCompanyVerification,
		StepDirectorDetails:      e.handleDirectorDetails,
		StepFinancialIncome:      e.amountField(FieldAnnualIncome),
		StepFinancialEmployment:  e.selectField(FieldEmploymentStatus),
		StepFinancialExpenses:    e.amountField(FieldMonthlyExpenses),
		StepFinancialAssets:      e.compositeAmounts(assetFields),
		StepFinancialLiabilities: e.compositeAmounts(liabilityFields),
		StepFundingTypeSelection: e.handleFundingTypeSelection,
		StepExperience:           e.amountField(FieldExperienceYears),
		StepDocuments:            e.handleDocuments,
		StepReview:               e.handleReview,
		StepFCARegistration:      e.textField("fca_registration_number"),
		StepFinancialLicences:    e.textField("financial_licences"),
		StepKeyPersonnel:         e.textField("key_personnel"),
		StepSpecialisms:          e.textField("consultant_specialisms"),
		StepConsultantExperience: e.amountField("consultant_experience_years"),
	}

	// Sub-flow steps get a generic handler driven by their declared type.
	for _, flow := range e.catalog.subFlows {
		for _, stepID := range flow {
			def, ok := e.catalog.Definition(stepID)
			if !ok {
				continue
			}
			if def.Type == InputNumber {
				handlers[stepID] = e.amountField(def.Field)
			} else {
				handlers[stepID] = e.textField(def.Field)
			}
		}
	}

	return handlers
}

var welcomeAffirmations = map[string]bool{
	"yes, let's start": true,
	"yes":              true,
	"ok":               true,
	"sure":             true,
	"let's go":         true,
}

func (e *Engine) handleWelcome(_ context.Context, t *turn) string {
	if welcomeAffirmations[strings.ToLower(t.input)] {
		return e.advanceStatic(t)
	}
	return StepWelcome
}

// textField stores the raw answer and advances. Empty input re-asks.
func (e *Engine) textField(field string) handlerFunc {
	return func(_ context.Context, t *turn) string {
		if t.input == "" {
			return t.sess.CurrentStep
		}
		t.sess.Data.SetString(field, t.input)
		return e.advanceStatic(t)
	}
}

// dateField parses DD/MM/YYYY and stores ISO. Unparseable input leaves the
// field unset and re-issues the same step.
func (e *Engine) dateField(field string) handlerFunc {
	return func(_ context.Context, t *turn) string {
		parsed, err := time.Parse("02/01/2006", t.input)
		if err != nil {
			return t.sess.CurrentStep
		}
		t.sess.Data.SetDate(field, parsed)
		return e.advanceStatic(t)
	}
}

// amountField parses a currency amount, tolerating symbols and separators.
func (e *Engine) amountField(field string) handlerFunc {
	return func(_ context.Context, t *turn) string {
		amount, ok := parseAmount(t.input)
		if !ok {
			return t.sess.CurrentStep
		}
		t.sess.Data.SetDecimal(field, amount)
		return e.advanceStatic(t)
	}
}

// selectField accepts only one of the step's declared options.
func (e *Engine) selectField(field string) handlerFunc {
	return func(_ context.Context, t *turn) string {
		def, ok := e.catalog.Definition(t.sess.CurrentStep)
		if !ok {
			return e.advanceStatic(t)
		}
		option := matchOption(t.input, def.Options)
		if option == "" {
			return t.sess.CurrentStep
		}
		t.sess.Data.SetString(field, option)
		return e.advanceStatic(t)
	}
}

// compositeAmounts splits a comma-separated answer into the fixed sub-fields,
// zero-filling trailing omissions. Any unparseable amount re-asks without
// partial writes.
func (e *Engine) compositeAmounts(fields []string) handlerFunc {
	return func(_ context.Context, t *turn) string {
		parts := strings.Split(t.input, ",")
		if len(parts) > len(fields) {
			return t.sess.CurrentStep
		}

		amounts := make([]decimal.Decimal, len(fields))
		for i, part := range parts {
			amount, ok := parseAmount(part)
			if !ok {
				return t.sess.CurrentStep
			}
			amounts[i] = amount
		}

		for i, field := range fields {
			t.sess.Data.SetDecimal(field, amounts[i])
		}
		return e.advanceStatic(t)
	}
}

func (e *Engine) handleAddressCollection(ctx context.Context, t *turn) string {
	if t.input == "" {
		return StepAddressCollection
	}
	t.sess.Data.SetString(FieldPostcode, t.input)

	result := e.verifyAddress(ctx, "", t.input, "", "United Kingdom")
	t.sess.Data.SetMap(FieldAddressVerification, addressResultMap(result))

	if result.Verified {
		if town := result.Components["town"]; town != "" {
			t.sess.Data.SetString(FieldTown, town)
		}
		if county := result.Components["county"]; county != "" {
			t.sess.Data.SetString(FieldCounty, county)
		}
	}

	// Failed lookups still advance; unverified status resurfaces at review.
	return e.advanceStatic(t)
}

func (e *Engine) handleAddressVerification(_ context.Context, t *turn) string {
	normalized := strings.ToLower(t.input)
	switch {
	case strings.HasPrefix(normalized, "yes"):
		t.sess.Data.SetBool(FieldAddressConfirmed, true)
		return e.advanceStatic(t)
	case strings.HasPrefix(normalized, "no"):
		return StepAddressCollection
	default:
		return StepAddressVerification
	}
}

func (e *Engine) handleCompanyCollection(ctx context.Context, t *turn) string {
	if t.input == "" {
		return StepCompanyCollection
	}
	t.sess.Data.SetString(FieldCompanyNumber, t.input)

	result := e.verifyCompany(ctx, t.input, t.sess.Data.GetString(FieldCompanyName))
	t.sess.Data.SetMap(FieldCompanyVerification, companyResultMap(result))

	return e.advanceStatic(t)
}

func (e *Engine) handleCompanyVerification(_ context.Context, t *turn) string {
	normalized := strings.ToLower(t.input)
	switch {
	case strings.HasPrefix(normalized, "yes"):
		t.sess.Data.SetBool(FieldCompanyConfirmed, true)
		// With no known directors the collection loop has nothing to do.
		if len(t.sess.Data.ExpectedDirectors()) == 0 {
			return e.skipDirectorLoop(t)
		}
		return e.advanceStatic(t)
	case strings.HasPrefix(normalized, "no"):
		// Loop back for re-entry; previously collected data stays intact.
		return StepCompanyCollection
	default:
		return StepCompanyVerification
	}
}

// skipDirectorLoop advances past director_details when the company lookup
// returned no officers.
func (e *Engine) skipDirectorLoop(t *turn) string {
	next := e.advanceStatic(t)
	if next != StepDirectorDetails {
		return next
	}
	idx := e.catalog.IndexOf(t.role, StepDirectorDetails)
	if idx < len(t.seq)-1 {
		return t.seq[idx+1]
	}
	return StepComplete
}

// handleDirectorDetails runs the repeating collection loop: one composite
// "Name, DOB, Nationality" answer per visit until every director returned by
// the company lookup has a record.
func (e *Engine) handleDirectorDetails(ctx context.Context, t *turn) string {
	expected := t.sess.Data.ExpectedDirectors()
	if len(expected) == 0 {
		return e.advanceStatic(t)
	}
	if len(t.sess.Data.Directors()) >= len(expected) {
		return e.advanceStatic(t)
	}

	parts := strings.Split(t.input, ",")
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return StepDirectorDetails
	}

	rec := DirectorRecord{Name: name}
	if len(parts) > 1 {
		if dob, err := time.Parse("02/01/2006", strings.TrimSpace(parts[1])); err == nil {
			rec.DateOfBirth = dob.Format("2006-01-02")
		}
	}
	if len(parts) > 2 {
		rec.Nationality = strings.TrimSpace(parts[2])
	}

	if number := t.sess.Data.GetString(FieldCompanyNumber); number != "" {
		result := e.verifyDirector(ctx, number, rec.Name, rec.DateOfBirth)
		rec.Verified = result.Verified
	}

	t.sess.Data.AppendDirector(rec)

	if len(t.sess.Data.Directors()) < len(expected) {
		return StepDirectorDetails
	}
	return e.advanceStatic(t)
}

func (e *Engine) handleFundingTypeSelection(_ context.Context, t *turn) string {
	def, _ := e.catalog.Definition(StepFundingTypeSelection)
	option := matchOption(t.input, def.Options)
	if option == "" {
		return StepFundingTypeSelection
	}

	t.sess.Data.SetString(FieldFundingType, option)

	flow := e.catalog.SubFlow(option)
	if len(flow) == 0 {
		return e.advanceStatic(t)
	}
	t.sess.PendingSteps = append([]string(nil), flow...)
	return flow[0]
}

// handleDocuments is the completeness gate: affirmations are accepted as a
// trigger but the checklist is always re-validated before advancing.
func (e *Engine) handleDocuments(ctx context.Context, t *turn) string {
	if _, complete := e.documentsComplete(ctx, t.sess, t.role); complete {
		return e.advanceStatic(t)
	}
	return StepDocuments
}

func (e *Engine) handleReview(_ context.Context, t *turn) string {
	normalized := strings.ToLower(t.input)
	switch {
	case strings.HasPrefix(normalized, "yes"):
		t.sess.Data.SetBool(FieldReviewConfirmed, true)
		return e.advanceStatic(t)
	case strings.HasPrefix(normalized, "no"):
		return StepProfileName
	default:
		return StepReview
	}
}

// matchOption resolves input to a declared option, case-insensitively.
func matchOption(input string, options []string) string {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, opt := range options {
		if strings.ToLower(opt) == normalized {
			return opt
		}
	}
	return ""
}

// parseAmount strips currency symbols and separators, keeping digits, dot
// and sign, then parses the remainder as a decimal.
func parseAmount(raw string) (decimal.Decimal, bool) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return decimal.Zero, false
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

func addressResultMap(r verification.AddressResult) map[string]any {
	components := make(map[string]any, len(r.Components))
	for k, v := range r.Components {
		components[k] = v
	}
	return map[string]any{
		"verified":          r.Verified,
		"formatted_address": r.FormattedAddress,
		"components":        components,
		"confidence_score":  r.ConfidenceScore,
		"message":           r.Message,
	}
}

func companyResultMap(r verification.CompanyResult) map[string]any {
	out := map[string]any{
		"verified":   r.Verified,
		"name_match": r.NameMatch,
		"status":     r.Status,
		"message":    r.Message,
	}
	if r.CompanyInfo != nil {
		out["company_info"] = map[string]any{
			"company_name":      r.CompanyInfo.CompanyName,
			"company_number":    r.CompanyInfo.CompanyNumber,
			"company_status":    r.CompanyInfo.CompanyStatus,
			"company_type":      r.CompanyInfo.CompanyType,
			"incorporated_on":   r.CompanyInfo.IncorporatedOn,
			"registered_office": r.CompanyInfo.RegisteredOffice,
		}
	}
	if len(r.Directors) > 0 {
		directors := make([]any, 0, len(r.Directors))
		for _, d := range r.Directors {
			directors = append(directors, d)
		}
		out["directors"] = directors
	}
	return out
}
