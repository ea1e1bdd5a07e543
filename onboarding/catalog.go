package onboarding

// Sentinel and loop step ids. StepPaused is never part of a static sequence;
// it suspends the dialogue until the next resume.
const (
	StepWelcome              = "welcome"
	StepComplete             = "complete"
	StepPaused               = "paused"
	StepProfileName          = "profile_name"
	StepProfileLastName      = "profile_last_name"
	StepProfileDOB           = "profile_dob"
	StepProfileNationality   = "profile_nationality"
	StepContactPhone         = "contact_phone"
	StepAddressCollection    = "address_collection"
	StepAddressVerification  = "address_verification"
	StepCompanyCollection    = "company_collection"
	StepCompanyVerification  = "company_verification"
	StepDirectorDetails      = "director_details"
	StepFinancialIncome      = "financial_income"
	StepFinancialEmployment  = "financial_employment"
	StepFinancialExpenses    = "financial_expenses"
	StepFinancialAssets      = "financial_assets"
	StepFinancialLiabilities = "financial_liabilities"
	StepFundingTypeSelection = "funding_type_selection"
	StepExperience           = "experience_collection"
	StepDocuments            = "documents_collection"
	StepReview               = "review"
	StepFCARegistration      = "fca_registration"
	StepFinancialLicences    = "financial_licences"
	StepKeyPersonnel         = "key_personnel"
	StepSpecialisms          = "consultant_specialisms"
	StepConsultantExperience = "consultant_experience"
)

// Catalog is the static, shared step catalog: definitions, per-role
// sequences and the per-funding-type sub-flows. It is never mutated after
// construction; all per-session branching state lives on the Session.
type Catalog struct {
	defs      map[string]StepDefinition
	sequences map[Role][]string
	subFlows  map[string][]string
}

func NewCatalog() *Catalog {
	c := &Catalog{
		defs:      make(map[string]StepDefinition, 48),
		sequences: make(map[Role][]string, 4),
		subFlows:  make(map[string][]string, 8),
	}

	for _, def := range stepDefinitions {
		c.defs[def.ID] = def
	}

	c.sequences[RoleBorrower] = []string{
		StepWelcome,
		StepProfileName,
		StepProfileLastName,
		StepProfileDOB,
		StepProfileNationality,
		StepContactPhone,
		StepAddressCollection,
		StepAddressVerification,
		StepCompanyCollection,
		StepCompanyVerification,
		StepDirectorDetails,
		StepFinancialIncome,
		StepFinancialEmployment,
		StepFinancialExpenses,
		StepFinancialAssets,
		StepFinancialLiabilities,
		StepFundingTypeSelection,
		StepExperience,
		StepDocuments,
		StepReview,
		StepComplete,
	}

	c.sequences[RoleLender] = []string{
		StepWelcome,
		StepProfileName,
		StepProfileLastName,
		StepContactPhone,
		StepAddressCollection,
		StepAddressVerification,
		StepCompanyCollection,
		StepCompanyVerification,
		StepFCARegistration,
		StepFinancialLicences,
		StepKeyPersonnel,
		StepDocuments,
		StepReview,
		StepComplete,
	}

	c.sequences[RoleConsultant] = []string{
		StepWelcome,
		StepProfileName,
		StepProfileLastName,
		StepContactPhone,
		StepAddressCollection,
		StepAddressVerification,
		StepCompanyCollection,
		StepCompanyVerification,
		StepSpecialisms,
		StepConsultantExperience,
		StepDocuments,
		StepReview,
		StepComplete,
	}

	c.sequences[RoleAdmin] = []string{
		StepWelcome,
		StepProfileName,
		StepContactPhone,
		StepComplete,
	}

	c.subFlows = map[string][]string{
		FundingRevenueBased:       {"funding_monthly_revenue", "funding_trading_months"},
		FundingMerchantCash:       {"funding_card_turnover"},
		FundingAssetFinance:       {"funding_asset_description", "funding_asset_value"},
		FundingInvoiceFactoring:   {"funding_invoice_volume", "funding_debtor_days"},
		FundingTradeFinance:       {"funding_trade_description"},
		FundingDevelopmentFinance: {"funding_project_cost", "funding_expected_gdv"},
	}

	return c
}

// Funding type options shown at funding_type_selection. Each maps to an
// ordered sub-flow spliced ahead of the static sequence.
const (
	FundingRevenueBased       = "Revenue Based Funding"
	FundingMerchantCash       = "Merchant Cash Advance"
	FundingAssetFinance       = "Asset Finance"
	FundingInvoiceFactoring   = "Invoice Factoring"
	FundingTradeFinance       = "Trade Finance"
	FundingDevelopmentFinance = "Development Finance"
)

var fundingTypeOptions = []string{
	FundingRevenueBased,
	FundingMerchantCash,
	FundingAssetFinance,
	FundingInvoiceFactoring,
	FundingTradeFinance,
	FundingDevelopmentFinance,
}

// Definition returns the step definition for an id.
func (c *Catalog) Definition(id string) (StepDefinition, bool) {
	def, ok := c.defs[id]
	return def, ok
}

// Sequence returns the static ordered step ids for a role. Unknown roles
// fall back to the borrower sequence, mirroring the platform default.
func (c *Catalog) Sequence(role Role) []string {
	if seq, ok := c.sequences[role]; ok {
		return seq
	}
	return c.sequences[RoleBorrower]
}

// SubFlow returns the injected steps for a funding type option.
func (c *Catalog) SubFlow(fundingType string) []string {
	return c.subFlows[fundingType]
}

// IndexOf locates a step within the role's sequence, defaulting to the start
// when the step is stale or belongs to an injected sub-flow.
func (c *Catalog) IndexOf(role Role, stepID string) int {
	for i, id := range c.Sequence(role) {
		if id == stepID {
			return i
		}
	}
	return 0
}

var stepDefinitions = []StepDefinition{
	{
		ID:       StepWelcome,
		Prompt:   "Hi! Welcome to BuildFund. I'm here to help you complete your profile. This will only take a few minutes, and you can save your progress at any time. Shall we begin?",
		Field:    "welcome_acknowledged",
		Type:     InputSelect,
		Required: true,
		Options:  []string{"Yes, let's start", "Maybe later"},
	},
	{
		ID:       StepProfileName,
		Prompt:   "Great! Let's start with your name. What's your first name?",
		Field:    FieldFirstName,
		Type:     InputText,
		Required: true,
	},
	{
		ID:       StepProfileLastName,
		Prompt:   "Thanks! And your last name?",
		Field:    FieldLastName,
		Type:     InputText,
		Required: true,
	},
	{
		ID:       StepProfileDOB,
		Prompt:   "What's your date of birth? (Please enter in format: DD/MM/YYYY)",
		Field:    FieldDateOfBirth,
		Type:     InputDate,
		Required: true,
	},
	{
		ID:        StepProfileNationality,
		Prompt:    "What's your nationality?",
		Field:     FieldNationality,
		Type:      InputText,
		Required:  true,
		Skippable: true,
	},
	{
		ID:       StepContactPhone,
		Prompt:   "What's your phone number? (Please include country code, e.g., +44 for UK)",
		Field:    FieldPhoneNumber,
		Type:     InputPhone,
		Required: true,
	},
	{
		ID:       StepAddressCollection,
		Prompt:   "Now let's get your address. What's your postcode?",
		Field:    FieldPostcode,
		Type:     InputText,
		Required: true,
	},
	{
		ID:       StepAddressVerification,
		Prompt:   "I found your address. Is this correct? {formatted_address}",
		Field:    FieldAddressConfirmed,
		Type:     InputSelect,
		Required: true,
		Options:  []string{"Yes, that's correct", "No, let me enter it manually"},
	},
	{
		ID:        StepCompanyCollection,
		Prompt:    "Do you have a company registration number? (If yes, please provide it. If no, type 'skip')",
		Field:     FieldCompanyNumber,
		Type:      InputText,
		Skippable: true,
	},
	{
		ID:       StepCompanyVerification,
		Prompt:   "I've verified your company details. Is {company_name} correct?",
		Field:    FieldCompanyConfirmed,
		Type:     InputSelect,
		Required: true,
		Options:  []string{"Yes, that's correct", "No, that's wrong"},
	},
	{
		ID:       StepDirectorDetails,
		Prompt:   "I need details for each registered director ({director_index}). {directors_list} Please provide the next director as: Name, Date of Birth (DD/MM/YYYY), Nationality.",
		Field:    FieldDirectorsCollected,
		Type:     InputText,
		Required: true,
	},
	{
		ID:       StepFinancialIncome,
		Prompt:   "What's your annual income? (Please enter the amount in GBP, e.g., 50000)",
		Field:    FieldAnnualIncome,
		Type:     InputNumber,
		Required: true,
	},
	{
		ID:       StepFinancialEmployment,
		Prompt:   "What's your employment status?",
		Field:    FieldEmploymentStatus,
		Type:     InputSelect,
		Required: true,
		Options:  []string{"Employed", "Self-employed", "Retired", "Student", "Other"},
	},
	{
		ID:        StepFinancialExpenses,
		Prompt:    "What are your approximate monthly expenses? (Please enter the amount in GBP)",
		Field:     FieldMonthlyExpenses,
		Type:      InputNumber,
		Skippable: true,
	},
	{
		ID:        StepFinancialAssets,
		Prompt:    "Let's capture your assets. Please enter four amounts separated by commas: property, savings, investments, other.",
		Field:     fieldAssetProperty,
		Type:      InputNumber,
		Skippable: true,
	},
	{
		ID:        StepFinancialLiabilities,
		Prompt:    "And your liabilities. Please enter four amounts separated by commas: mortgage, loans, credit cards, other. So far: total assets {total_assets}, total liabilities {total_liabilities}, net worth {net_worth}.",
		Field:     fieldLiabilityMortgage,
		Type:      InputNumber,
		Skippable: true,
	},
	{
		ID:       StepFundingTypeSelection,
		Prompt:   "What type of funding are you looking for?",
		Field:    FieldFundingType,
		Type:     InputSelect,
		Required: true,
		Options:  fundingTypeOptions,
	},
	{
		ID:        StepExperience,
		Prompt:    "How many years of experience do you have in property development?",
		Field:     FieldExperienceYears,
		Type:      InputNumber,
		Skippable: true,
	},
	{
		ID:       StepDocuments,
		Prompt:   "Now I need some documents. Still required: {required_documents} Upload them from your dashboard, then reply 'done'.",
		Field:    "documents",
		Type:     InputFile,
		Required: true,
	},
	{
		ID:       StepReview,
		Prompt:   "Great! Let me review what we've collected. {summary} Does everything look correct?",
		Field:    FieldReviewConfirmed,
		Type:     InputSelect,
		Required: true,
		Options:  []string{"Yes, everything is correct", "No, I need to make changes"},
	},
	{
		ID:     StepComplete,
		Prompt: "Perfect! Your profile is now complete. You can now submit applications and access all features.",
		Field:  "complete",
		Type:   InputText,
	},
	{
		ID:        StepFCARegistration,
		Prompt:    "Do you have an FCA registration number? (If yes, please provide it. If no, type 'skip')",
		Field:     "fca_registration_number",
		Type:      InputText,
		Skippable: true,
	},
	{
		ID:        StepFinancialLicences,
		Prompt:    "What financial licences does your organisation hold? (Please list them, or type 'none')",
		Field:     "financial_licences",
		Type:      InputText,
		Skippable: true,
	},
	{
		ID:        StepKeyPersonnel,
		Prompt:    "Who are the key personnel in your organisation? (Please provide names and positions, or type 'skip')",
		Field:     "key_personnel",
		Type:      InputText,
		Skippable: true,
	},
	{
		ID:       StepSpecialisms,
		Prompt:   "Which areas do you advise on? (e.g., development finance, bridging, commercial mortgages)",
		Field:    "consultant_specialisms",
		Type:     InputText,
		Required: true,
	},
	{
		ID:        StepConsultantExperience,
		Prompt:    "How many years have you been advising clients?",
		Field:     "consultant_experience_years",
		Type:      InputNumber,
		Skippable: true,
	},

	// Funding-type sub-flow steps. These never appear in a static sequence;
	// they are queued on the session when a funding type is selected.
	{
		ID:       "funding_monthly_revenue",
		Prompt:   "What's your average monthly revenue? (GBP)",
		Field:    "funding_monthly_revenue",
		Type:     InputNumber,
		Required: true,
	},
	{
		ID:       "funding_trading_months",
		Prompt:   "How many months have you been trading?",
		Field:    "funding_trading_months",
		Type:     InputNumber,
		Required: true,
	},
	{
		ID:       "funding_card_turnover",
		Prompt:   "What's your average monthly card turnover? (GBP)",
		Field:    "funding_card_turnover",
		Type:     InputNumber,
		Required: true,
	},
	{
		ID:       "funding_asset_description",
		Prompt:   "Describe the asset you want to finance.",
		Field:    "funding_asset_description",
		Type:     InputText,
		Required: true,
	},
	{
		ID:       "funding_asset_value",
		Prompt:   "What's the asset's purchase value? (GBP)",
		Field:    "funding_asset_value",
		Type:     InputNumber,
		Required: true,
	},
	{
		ID:       "funding_invoice_volume",
		Prompt:   "What's your average monthly invoice volume? (GBP)",
		Field:    "funding_invoice_volume",
		Type:     InputNumber,
		Required: true,
	},
	{
		ID:       "funding_debtor_days",
		Prompt:   "What are your average debtor days?",
		Field:    "funding_debtor_days",
		Type:     InputNumber,
		Required: true,
	},
	{
		ID:       "funding_trade_description",
		Prompt:   "Describe the goods you trade and your main markets.",
		Field:    "funding_trade_description",
		Type:     InputText,
		Required: true,
	},
	{
		ID:       "funding_project_cost",
		Prompt:   "What's the total project cost? (GBP)",
		Field:    "funding_project_cost",
		Type:     InputNumber,
		Required: true,
	},
	{
		ID:       "funding_expected_gdv",
		Prompt:   "What's the expected gross development value? (GBP)",
		Field:    "funding_expected_gdv",
		Type:     InputNumber,
		Required: true,
	},
}
