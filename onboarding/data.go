package onboarding

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Well-known collected-data keys shared between the engine, the renderer and
// the progress tracker.
const (
	FieldFirstName           = "first_name"
	FieldLastName            = "last_name"
	FieldDateOfBirth         = "date_of_birth"
	FieldNationality         = "nationality"
	FieldPhoneNumber         = "phone_number"
	FieldPostcode            = "postcode"
	FieldTown                = "town"
	FieldCounty              = "county"
	FieldAddressConfirmed    = "address_confirmed"
	FieldCompanyNumber       = "company_registration_number"
	FieldCompanyName         = "company_name"
	FieldCompanyConfirmed    = "company_confirmed"
	FieldAnnualIncome        = "annual_income"
	FieldEmploymentStatus    = "employment_status"
	FieldMonthlyExpenses     = "monthly_expenses"
	FieldExperienceYears     = "experience_years"
	FieldFundingType         = "funding_type"
	FieldReviewConfirmed     = "review_confirmed"
	FieldDirectorsCollected  = "directors_collected"
	FieldAddressVerification = "address_verification_data"
	FieldCompanyVerification = "company_verification_data"

	fieldAssetProperty        = "asset_property"
	fieldAssetSavings         = "asset_savings"
	fieldAssetInvestments     = "asset_investments"
	fieldAssetOther           = "asset_other"
	fieldLiabilityMortgage    = "liability_mortgage"
	fieldLiabilityLoans       = "liability_loans"
	fieldLiabilityCreditCards = "liability_credit_cards"
	fieldLiabilityOther       = "liability_other"
)

var assetFields = []string{fieldAssetProperty, fieldAssetSavings, fieldAssetInvestments, fieldAssetOther}

var liabilityFields = []string{fieldLiabilityMortgage, fieldLiabilityLoans, fieldLiabilityCreditCards, fieldLiabilityOther}

// CollectedData is the accumulated answer map for a session. Values are only
// written through the typed setters so each field keeps its declared type
// even though the map round-trips through JSON storage.
type CollectedData map[string]any

func NewCollectedData() CollectedData {
	return CollectedData{}
}

// Has reports whether the field holds a non-empty value.
func (d CollectedData) Has(field string) bool {
	v, ok := d[field]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr {
		return s != ""
	}
	return true
}

func (d CollectedData) SetString(field, value string) {
	d[field] = value
}

func (d CollectedData) GetString(field string) string {
	if v, ok := d[field].(string); ok {
		return v
	}
	return ""
}

// SetDate stores the value in ISO form (YYYY-MM-DD).
func (d CollectedData) SetDate(field string, value time.Time) {
	d[field] = value.Format("2006-01-02")
}

func (d CollectedData) SetBool(field string, value bool) {
	d[field] = value
}

func (d CollectedData) GetBool(field string) bool {
	v, ok := d[field].(bool)
	return ok && v
}

// SetDecimal stores the amount as its canonical string so it survives JSON
// round trips without floating point drift.
func (d CollectedData) SetDecimal(field string, value decimal.Decimal) {
	d[field] = value.String()
}

// GetDecimal tolerates the shapes a JSON round trip can produce.
func (d CollectedData) GetDecimal(field string) (decimal.Decimal, bool) {
	switch v := d[field].(type) {
	case string:
		dec, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, false
		}
		return dec, true
	case float64:
		return decimal.NewFromFloat(v), true
	case json.Number:
		dec, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, false
		}
		return dec, true
	default:
		return decimal.Zero, false
	}
}

// SetMap stores a verification payload under a well-known key.
func (d CollectedData) SetMap(field string, value map[string]any) {
	d[field] = value
}

// GetMap returns a nested payload, tolerating the map shape produced by
// JSON decoding.
func (d CollectedData) GetMap(field string) map[string]any {
	if m, ok := d[field].(map[string]any); ok {
		return m
	}
	return nil
}

// Directors returns the director records appended so far by the collection
// loop.
func (d CollectedData) Directors() []DirectorRecord {
	raw, ok := d[FieldDirectorsCollected]
	if !ok || raw == nil {
		return nil
	}

	switch v := raw.(type) {
	case []DirectorRecord:
		return v
	case []any:
		out := make([]DirectorRecord, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			rec := DirectorRecord{}
			if s, ok := m["name"].(string); ok {
				rec.Name = s
			}
			if s, ok := m["date_of_birth"].(string); ok {
				rec.DateOfBirth = s
			}
			if s, ok := m["nationality"].(string); ok {
				rec.Nationality = s
			}
			if b, ok := m["verified"].(bool); ok {
				rec.Verified = b
			}
			out = append(out, rec)
		}
		return out
	default:
		return nil
	}
}

// AppendDirector adds one record to the collection loop's accumulator.
func (d CollectedData) AppendDirector(rec DirectorRecord) {
	d[FieldDirectorsCollected] = append(d.Directors(), rec)
}

// ExpectedDirectors reads the officer names captured during company
// verification; the director loop runs until one record per name exists.
func (d CollectedData) ExpectedDirectors() []string {
	payload := d.GetMap(FieldCompanyVerification)
	if payload == nil {
		return nil
	}
	raw, ok := payload["directors"]
	if !ok {
		return nil
	}

	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// AddressVerified reports whether the stored address lookup succeeded.
func (d CollectedData) AddressVerified() bool {
	payload := d.GetMap(FieldAddressVerification)
	if payload == nil {
		return false
	}
	v, ok := payload["verified"].(bool)
	return ok && v
}

// CompanyVerified reports whether the stored company lookup succeeded.
func (d CollectedData) CompanyVerified() bool {
	payload := d.GetMap(FieldCompanyVerification)
	if payload == nil {
		return false
	}
	v, ok := payload["verified"].(bool)
	return ok && v
}

func (d CollectedData) sumFields(fields []string) decimal.Decimal {
	total := decimal.Zero
	for _, f := range fields {
		if v, ok := d.GetDecimal(f); ok {
			total = total.Add(v)
		}
	}
	return total
}

// TotalAssets sums the fixed asset sub-fields.
func (d CollectedData) TotalAssets() decimal.Decimal {
	return d.sumFields(assetFields)
}

// TotalLiabilities sums the fixed liability sub-fields.
func (d CollectedData) TotalLiabilities() decimal.Decimal {
	return d.sumFields(liabilityFields)
}
