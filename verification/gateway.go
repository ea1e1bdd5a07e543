package verification

import "context"

// AddressResult describes the outcome of an address lookup.
type AddressResult struct {
	Verified         bool              `json:"verified"`
	FormattedAddress string            `json:"formatted_address"`
	Components       map[string]string `json:"components"`
	ConfidenceScore  float64           `json:"confidence_score"`
	Message          string            `json:"message"`
}

// CompanyInfo is the subset of registry data the engine cares about.
type CompanyInfo struct {
	CompanyName      string `json:"company_name"`
	CompanyNumber    string `json:"company_number"`
	CompanyStatus    string `json:"company_status"`
	CompanyType      string `json:"company_type"`
	IncorporatedOn   string `json:"incorporated_on"`
	RegisteredOffice string `json:"registered_office"`
}

// CompanyResult describes the outcome of a company registry lookup.
// Directors carries the officer names returned alongside the company record
// so the conversation engine can drive the director collection loop.
type CompanyResult struct {
	Verified    bool         `json:"verified"`
	CompanyInfo *CompanyInfo `json:"company_info"`
	NameMatch   bool         `json:"name_match"`
	Status      string       `json:"status"`
	Directors   []string     `json:"directors"`
	Message     string       `json:"message"`
}

// DirectorResult describes the outcome of a director identity check.
type DirectorResult struct {
	Verified     bool   `json:"verified"`
	DirectorName string `json:"director_name"`
	NameMatch    bool   `json:"name_match"`
	Message      string `json:"message"`
}

// Gateway is the boundary for external identity checks. Implementations never
// return errors: lookup failures and missing configuration degrade into a
// result with Verified=false so a conversation turn is never aborted by an
// upstream outage.
type Gateway interface {
	VerifyAddress(ctx context.Context, line1, postcode, town, country string) AddressResult
	VerifyCompany(ctx context.Context, companyNumber, companyName string) CompanyResult
	VerifyDirector(ctx context.Context, companyNumber, directorName, dateOfBirth string) DirectorResult
}

const unavailableMessage = "verification service not configured"

// UnavailableAddress is returned when no address provider is configured.
func UnavailableAddress() AddressResult {
	return AddressResult{Verified: false, Components: map[string]string{}, Message: unavailableMessage}
}

// UnavailableCompany is returned when no company registry is configured.
func UnavailableCompany() CompanyResult {
	return CompanyResult{Verified: false, Status: "unavailable", Message: unavailableMessage}
}

// UnavailableDirector is returned when no company registry is configured.
func UnavailableDirector() DirectorResult {
	return DirectorResult{Verified: false, Message: unavailableMessage}
}

// CombinedGateway composes the address and company providers into the single
// Gateway surface consumed by the onboarding engine. Either half may be nil
// when its API key is absent; calls then degrade to an unavailable result.
type CombinedGateway struct {
	addresses *GoogleAddressVerifier
	companies *CompaniesHouseClient
}

// NewGateway wires the concrete providers. Empty keys leave the matching
// provider disabled rather than failing construction.
func NewGateway(googleAPIKey, companiesHouseAPIKey string) *CombinedGateway {
	g := &CombinedGateway{}
	if googleAPIKey != "" {
		g.addresses = NewGoogleAddressVerifier(googleAPIKey)
	}
	if companiesHouseAPIKey != "" {
		g.companies = NewCompaniesHouseClient(companiesHouseAPIKey)
	}
	return g
}

func (g *CombinedGateway) VerifyAddress(ctx context.Context, line1, postcode, town, country string) AddressResult {
	if g == nil || g.addresses == nil {
		return UnavailableAddress()
	}
	return g.addresses.Verify(ctx, line1, postcode, town, country)
}

func (g *CombinedGateway) VerifyCompany(ctx context.Context, companyNumber, companyName string) CompanyResult {
	if g == nil || g.companies == nil {
		return UnavailableCompany()
	}
	return g.companies.VerifyCompany(ctx, companyNumber, companyName)
}

func (g *CombinedGateway) VerifyDirector(ctx context.Context, companyNumber, directorName, dateOfBirth string) DirectorResult {
	if g == nil || g.companies == nil {
		return UnavailableDirector()
	}
	return g.companies.VerifyDirector(ctx, companyNumber, directorName, dateOfBirth)
}
