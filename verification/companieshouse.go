package verification

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const companiesHouseURL = "https://api.company-information.service.gov.uk"

// CompaniesHouseClient verifies companies and their officers against the
// Companies House public API. The API key is sent as the basic-auth username
// with an empty password.
type CompaniesHouseClient struct {
	authHeader string
	baseURL    string
	client     *http.Client
}

func NewCompaniesHouseClient(apiKey string) *CompaniesHouseClient {
	encoded := base64.StdEncoding.EncodeToString([]byte(apiKey + ":"))
	return &CompaniesHouseClient{
		authHeader: "Basic " + encoded,
		baseURL:    companiesHouseURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type companyProfile struct {
	CompanyName      string `json:"company_name"`
	CompanyNumber    string `json:"company_number"`
	CompanyStatus    string `json:"company_status"`
	CompanyType      string `json:"type"`
	DateOfCreation   string `json:"date_of_creation"`
	RegisteredOffice struct {
		AddressLine1 string `json:"address_line_1"`
		PostalCode   string `json:"postal_code"`
		Locality     string `json:"locality"`
	} `json:"registered_office_address"`
}

type officerList struct {
	Items []officerItem `json:"items"`
}

type officerItem struct {
	Name        string `json:"name"`
	OfficerRole string `json:"officer_role"`
	ResignedOn  string `json:"resigned_on"`
	DateOfBirth struct {
		Year  int `json:"year"`
		Month int `json:"month"`
	} `json:"date_of_birth"`
}

func (c *CompaniesHouseClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("registry returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// VerifyCompany checks number and name match plus registration status, and
// collects current director names so the engine can run its collection loop.
func (c *CompaniesHouseClient) VerifyCompany(ctx context.Context, companyNumber, companyName string) CompanyResult {
	var profile companyProfile
	if err := c.get(ctx, "/company/"+companyNumber, &profile); err != nil {
		return CompanyResult{
			Verified: false,
			Status:   "error",
			Message:  fmt.Sprintf("failed to retrieve company information: %v", err),
		}
	}

	registered := strings.ToUpper(strings.TrimSpace(profile.CompanyName))
	provided := strings.ToUpper(strings.TrimSpace(companyName))
	// An empty provided name cannot contradict the registry, treat it as a match.
	nameMatch := provided == "" ||
		registered == provided ||
		strings.Contains(registered, provided) ||
		strings.Contains(provided, registered)

	status := strings.ToLower(profile.CompanyStatus)
	// Dissolved companies stay acceptable for historical checks.
	statusOK := status == "active" || status == "dissolved"

	directors := c.currentDirectors(ctx, companyNumber)

	office := profile.RegisteredOffice
	info := &CompanyInfo{
		CompanyName:      profile.CompanyName,
		CompanyNumber:    profile.CompanyNumber,
		CompanyStatus:    profile.CompanyStatus,
		CompanyType:      profile.CompanyType,
		IncorporatedOn:   profile.DateOfCreation,
		RegisteredOffice: strings.TrimSpace(strings.Join([]string{office.AddressLine1, office.Locality, office.PostalCode}, ", ")),
	}

	verified := nameMatch && statusOK
	message := "Company verified successfully"
	if !verified {
		message = fmt.Sprintf("verification failed: name_match=%t, status=%s", nameMatch, status)
	}

	return CompanyResult{
		Verified:    verified,
		CompanyInfo: info,
		NameMatch:   nameMatch,
		Status:      status,
		Directors:   directors,
		Message:     message,
	}
}

// VerifyDirector checks whether the named person appears among the company's
// officers, optionally tightening the match with a date of birth (ISO form).
func (c *CompaniesHouseClient) VerifyDirector(ctx context.Context, companyNumber, directorName, dateOfBirth string) DirectorResult {
	var officers officerList
	if err := c.get(ctx, "/company/"+companyNumber+"/officers", &officers); err != nil {
		return DirectorResult{
			Verified: false,
			Message:  fmt.Sprintf("failed to retrieve officers: %v", err),
		}
	}

	wanted := strings.ToUpper(strings.TrimSpace(directorName))
	var match *officerItem
	for i := range officers.Items {
		name := strings.ToUpper(strings.TrimSpace(officers.Items[i].Name))
		if name == "" {
			continue
		}
		if strings.Contains(name, wanted) || strings.Contains(wanted, name) {
			match = &officers.Items[i]
			break
		}
	}

	if match == nil {
		return DirectorResult{
			Verified:  false,
			NameMatch: false,
			Message:   "no director found matching name: " + directorName,
		}
	}

	dobMatch := true
	if dateOfBirth != "" && match.DateOfBirth.Year != 0 {
		prefix := fmt.Sprintf("%04d-%02d", match.DateOfBirth.Year, match.DateOfBirth.Month)
		dobMatch = strings.HasPrefix(dateOfBirth, prefix)
	}

	message := "Director verified successfully"
	if !dobMatch {
		message = "director name matches but date of birth does not"
	}

	return DirectorResult{
		Verified:     dobMatch,
		DirectorName: match.Name,
		NameMatch:    true,
		Message:      message,
	}
}

func (c *CompaniesHouseClient) currentDirectors(ctx context.Context, companyNumber string) []string {
	var officers officerList
	if err := c.get(ctx, "/company/"+companyNumber+"/officers", &officers); err != nil {
		return nil
	}

	names := make([]string, 0, len(officers.Items))
	for _, o := range officers.Items {
		if o.ResignedOn != "" {
			continue
		}
		if o.OfficerRole != "" && !strings.Contains(o.OfficerRole, "director") {
			continue
		}
		names = append(names, o.Name)
	}
	return names
}
