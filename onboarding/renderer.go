package onboarding

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"buildfund/documents"
)

// Renderer builds the outgoing question for a step. It is a pure function of
// (step, role, collected data): all session-dependent text comes through the
// data map, so rendering the same state twice yields the same prompt.
type Renderer struct {
	catalog  *Catalog
	resolver documents.Resolver
}

func NewRenderer(catalog *Catalog) *Renderer {
	return &Renderer{catalog: catalog, resolver: documents.NewResolver()}
}

// Render substitutes placeholders and appends the progress suffix. The bool
// reports whether the step id exists in the catalog.
func (r *Renderer) Render(stepID string, role Role, data CollectedData) (QuestionDescriptor, bool) {
	def, ok := r.catalog.Definition(stepID)
	if !ok {
		return QuestionDescriptor{}, false
	}

	prompt := r.substitute(def.Prompt, role, data)

	seq := r.catalog.Sequence(role)
	stepNumber := r.positionOf(role, stepID) + 1
	totalSteps := len(seq)
	percent := roundPercent(stepNumber, totalSteps)

	if stepID != StepWelcome && stepID != StepComplete && stepID != StepReview {
		prompt = fmt.Sprintf("%s (Step %d of %d, %d%%)", prompt, stepNumber, totalSteps, percent)
	}

	// ProgressPercent is the caller's to fill: it carries the milestone
	// completion percentage, not the step position shown in the suffix.
	return QuestionDescriptor{
		Question:   prompt,
		Step:       stepID,
		Field:      def.Field,
		Type:       def.Type,
		Options:    def.Options,
		Required:   def.Required,
		StepNumber: stepNumber,
		TotalSteps: totalSteps,
	}, true
}

// positionOf maps injected sub-flow steps onto the funding selection slot so
// their progress numbers stay monotone.
func (r *Renderer) positionOf(role Role, stepID string) int {
	seq := r.catalog.Sequence(role)
	for i, id := range seq {
		if id == stepID {
			return i
		}
	}
	if strings.HasPrefix(stepID, "funding_") {
		return r.catalog.IndexOf(role, StepFundingTypeSelection)
	}
	return 0
}

func (r *Renderer) substitute(prompt string, role Role, data CollectedData) string {
	if strings.Contains(prompt, "{formatted_address}") {
		formatted := "the address"
		if payload := data.GetMap(FieldAddressVerification); payload != nil {
			if s, ok := payload["formatted_address"].(string); ok && s != "" {
				formatted = s
			}
		}
		prompt = strings.ReplaceAll(prompt, "{formatted_address}", formatted)
	}

	if strings.Contains(prompt, "{company_name}") {
		prompt = strings.ReplaceAll(prompt, "{company_name}", companyNameOrDefault(data))
	}

	if strings.Contains(prompt, "{directors_list}") {
		prompt = strings.ReplaceAll(prompt, "{directors_list}", directorsList(data))
	}

	if strings.Contains(prompt, "{director_index}") {
		collected := len(data.Directors())
		total := len(data.ExpectedDirectors())
		prompt = strings.ReplaceAll(prompt, "{director_index}", fmt.Sprintf("%d of %d", collected+1, total))
	}

	if strings.Contains(prompt, "{summary}") {
		prompt = strings.ReplaceAll(prompt, "{summary}", summarize(data))
	}

	if strings.Contains(prompt, "{total_assets}") {
		prompt = strings.ReplaceAll(prompt, "{total_assets}", formatAmount(data.TotalAssets()))
	}
	if strings.Contains(prompt, "{total_liabilities}") {
		prompt = strings.ReplaceAll(prompt, "{total_liabilities}", formatAmount(data.TotalLiabilities()))
	}
	if strings.Contains(prompt, "{net_worth}") {
		net := data.TotalAssets().Sub(data.TotalLiabilities())
		prompt = strings.ReplaceAll(prompt, "{net_worth}", formatAmount(net))
	}

	if strings.Contains(prompt, "{required_documents}") {
		prompt = strings.ReplaceAll(prompt, "{required_documents}", r.requiredDocuments(role, data))
	}

	return prompt
}

func companyNameOrDefault(data CollectedData) string {
	if payload := data.GetMap(FieldCompanyVerification); payload != nil {
		if info, ok := payload["company_info"].(map[string]any); ok {
			if s, ok := info["company_name"].(string); ok && s != "" {
				return s
			}
		}
	}
	return "the company"
}

const maxDirectorsListed = 10

func directorsList(data CollectedData) string {
	expected := data.ExpectedDirectors()
	if len(expected) == 0 {
		return "No directors found for this company."
	}

	shown := expected
	if len(shown) > maxDirectorsListed {
		shown = shown[:maxDirectorsListed]
	}

	var b strings.Builder
	b.WriteString("Registered directors:")
	for _, name := range shown {
		b.WriteString("\n- ")
		b.WriteString(name)
	}
	return b.String()
}

// summarize produces the review digest in a fixed field order.
func summarize(data CollectedData) string {
	parts := make([]string, 0, 5)

	first := data.GetString(FieldFirstName)
	last := data.GetString(FieldLastName)
	if first != "" && last != "" {
		parts = append(parts, "Name: "+first+" "+last)
	}
	if phone := data.GetString(FieldPhoneNumber); phone != "" {
		parts = append(parts, "Phone: "+phone)
	}
	if postcode := data.GetString(FieldPostcode); postcode != "" {
		parts = append(parts, "Postcode: "+postcode)
	}
	if company := data.GetString(FieldCompanyNumber); company != "" {
		parts = append(parts, "Company: "+company)
	}
	if income, ok := data.GetDecimal(FieldAnnualIncome); ok {
		parts = append(parts, "Income: £"+formatAmount(income))
	}

	if len(parts) == 0 {
		return "No data collected yet."
	}
	return strings.Join(parts, "\n")
}

func (r *Renderer) requiredDocuments(role Role, data CollectedData) string {
	required := r.resolver.Requirements(string(role), data)
	if len(required) == 0 {
		return "none"
	}
	names := make([]string, 0, len(required))
	for _, req := range required {
		names = append(names, req.Name)
	}
	return strings.Join(names, ", ") + "."
}

// formatAmount renders a decimal with thousands separators, keeping a
// fractional part only when one exists.
func formatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if strings.HasSuffix(s, ".00") {
		s = strings.TrimSuffix(s, ".00")
	}

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	out := b.String() + fracPart
	if neg {
		out = "-" + out
	}
	return out
}

func roundPercent(numerator, denominator int) int {
	if denominator <= 0 {
		return 0
	}
	return int(float64(numerator)/float64(denominator)*100 + 0.5)
}
