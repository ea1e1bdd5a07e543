package documents

import "strings"

// Resolver produces the per-role required-document list and matches uploaded
// files against it. Matching is a documented heuristic: requirement name and
// category tokens are substring-matched against filenames, with a count-based
// fallback when nothing matches by name.
type Resolver struct{}

func NewResolver() Resolver {
	return Resolver{}
}

var borrowerRequirements = []Requirement{
	{
		Name:        "Passport",
		Category:    "identity",
		Description: "Valid passport for identity verification",
		Reason:      "KYC identity check",
	},
	{
		Name:        "Utility Bill",
		Category:    "address",
		Description: "Recent utility bill dated within the last 3 months",
		Reason:      "Proof of current address",
	},
	{
		Name:        "Bank Statements",
		Category:    "financial",
		Description: "Last 3 months of bank statements",
		Reason:      "Affordability assessment",
	},
	{
		Name:          "Company Accounts",
		Category:      "financial",
		Description:   "Latest filed company accounts",
		Reason:        "Company financial standing",
		ConditionalOn: "company_registration_number",
	},
	{
		Name:          "Certificate of Incorporation",
		Category:      "company",
		Description:   "Company certificate of incorporation",
		Reason:        "Company ownership verification",
		ConditionalOn: "company_registration_number",
	},
}

var lenderRequirements = []Requirement{
	{
		Name:        "Passport",
		Category:    "identity",
		Description: "Valid passport for identity verification",
		Reason:      "KYC identity check",
	},
	{
		Name:        "Utility Bill",
		Category:    "address",
		Description: "Recent utility bill dated within the last 3 months",
		Reason:      "Proof of current address",
	},
	{
		Name:          "FCA Authorisation",
		Category:      "regulatory",
		Description:   "Evidence of FCA authorisation",
		Reason:        "Regulated lending activity",
		ConditionalOn: "fca_registration_number",
	},
	{
		Name:          "Company Accounts",
		Category:      "financial",
		Description:   "Latest filed company accounts",
		Reason:        "Lender financial standing",
		ConditionalOn: "company_registration_number",
	},
}

var consultantRequirements = []Requirement{
	{
		Name:        "Passport",
		Category:    "identity",
		Description: "Valid passport for identity verification",
		Reason:      "KYC identity check",
	},
	{
		Name:        "Utility Bill",
		Category:    "address",
		Description: "Recent utility bill dated within the last 3 months",
		Reason:      "Proof of current address",
	},
	{
		Name:        "Professional Indemnity Insurance",
		Category:    "regulatory",
		Description: "Current professional indemnity insurance certificate",
		Reason:      "Advisory liability cover",
	},
}

// Requirements returns the ordered requirement list for a role, dropping
// entries whose conditional field is absent from the collected data.
func (Resolver) Requirements(role string, collected map[string]any) []Requirement {
	var base []Requirement
	switch role {
	case "Borrower":
		base = borrowerRequirements
	case "Lender":
		base = lenderRequirements
	case "Consultant":
		base = consultantRequirements
	default:
		return nil
	}

	out := make([]Requirement, 0, len(base))
	for _, req := range base {
		if req.ConditionalOn != "" {
			if v, ok := collected[req.ConditionalOn]; !ok || v == nil || v == "" {
				continue
			}
		}
		out = append(out, req)
	}
	return out
}

// Check matches the uploaded files against the role's filtered requirements.
func (r Resolver) Check(role string, collected map[string]any, uploads []Document) Checklist {
	required := r.Requirements(role, collected)

	checklist := Checklist{
		Required:      required,
		Uploaded:      []string{},
		Missing:       []string{},
		RequiredCount: len(required),
		UploadedCount: len(uploads),
	}

	for _, req := range required {
		if matchesUpload(req, uploads) {
			checklist.Uploaded = append(checklist.Uploaded, req.Name)
		} else {
			checklist.Missing = append(checklist.Missing, req.Name)
		}
	}

	// Heuristic fallback: when filenames give no usable signal at all,
	// enough files uploaded counts as satisfied. Any exact match disables
	// the fallback so partially matching uploads cannot open the gate.
	if len(checklist.Uploaded) == 0 && len(checklist.Missing) > 0 && len(uploads) >= checklist.RequiredCount {
		checklist.Uploaded = make([]string, 0, len(required))
		for _, req := range required {
			checklist.Uploaded = append(checklist.Uploaded, req.Name)
		}
		checklist.Missing = []string{}
	}

	checklist.AllUploaded = checklist.RequiredCount == 0 || len(checklist.Missing) == 0
	return checklist
}

func matchesUpload(req Requirement, uploads []Document) bool {
	tokens := make([]string, 0, 4)
	for _, tok := range strings.Fields(strings.ToLower(req.Name)) {
		if len(tok) > 3 {
			tokens = append(tokens, tok)
		}
	}
	if cat := strings.ToLower(req.Category); len(cat) > 3 {
		tokens = append(tokens, cat)
	}

	for _, doc := range uploads {
		name := strings.ToLower(doc.FileName)
		category := strings.ToLower(doc.Category)
		if category != "" && category == strings.ToLower(req.Category) {
			return true
		}
		for _, tok := range tokens {
			if strings.Contains(name, tok) {
				return true
			}
		}
	}
	return false
}
