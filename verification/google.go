package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleAddressVerifier verifies UK addresses via the Google Geocoding API.
type GoogleAddressVerifier struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewGoogleAddressVerifier builds a verifier with a bounded request timeout.
func NewGoogleAddressVerifier(apiKey string) *GoogleAddressVerifier {
	return &GoogleAddressVerifier{
		apiKey:  apiKey,
		baseURL: googleGeocodeURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress  string `json:"formatted_address"`
		AddressComponents []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
	} `json:"results"`
}

// Verify geocodes the supplied address fragments. A failed lookup is reported
// through the result message, never as an error.
func (v *GoogleAddressVerifier) Verify(ctx context.Context, line1, postcode, town, country string) AddressResult {
	parts := make([]string, 0, 4)
	if line1 != "" {
		parts = append(parts, line1)
	}
	if town != "" {
		parts = append(parts, town)
	}
	parts = append(parts, postcode)
	if country != "" {
		parts = append(parts, country)
	}

	query := url.Values{}
	query.Set("address", strings.Join(parts, ", "))
	query.Set("key", v.apiKey)
	query.Set("region", "gb")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return failedAddress(fmt.Sprintf("failed to verify address: %v", err))
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return failedAddress(fmt.Sprintf("failed to verify address: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return failedAddress(fmt.Sprintf("address verification failed: status %d", resp.StatusCode))
	}

	var payload geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return failedAddress(fmt.Sprintf("failed to verify address: %v", err))
	}

	if payload.Status != "OK" || len(payload.Results) == 0 {
		status := payload.Status
		if status == "" {
			status = "unknown error"
		}
		return failedAddress("address verification failed: " + status)
	}

	result := payload.Results[0]
	components := map[string]string{}
	for _, comp := range result.AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "postal_code":
				components["postcode"] = comp.LongName
			case "locality", "postal_town":
				components["town"] = comp.LongName
			case "administrative_area_level_2":
				components["county"] = comp.LongName
			case "country":
				components["country"] = comp.LongName
			case "street_number":
				components["street_number"] = comp.LongName
			case "route":
				components["route"] = comp.LongName
			}
		}
	}

	// Base confidence plus a bump for each supplied fragment echoed back.
	confidence := 0.8
	if components["postcode"] != "" && strings.Contains(squash(components["postcode"]), squash(postcode)) {
		confidence += 0.1
	}
	if town != "" && components["town"] != "" && strings.Contains(strings.ToLower(components["town"]), strings.ToLower(town)) {
		confidence += 0.1
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	return AddressResult{
		Verified:         true,
		FormattedAddress: result.FormattedAddress,
		Components:       components,
		ConfidenceScore:  confidence,
		Message:          "Address verified successfully",
	}
}

func failedAddress(message string) AddressResult {
	return AddressResult{Verified: false, Components: map[string]string{}, Message: message}
}

func squash(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, " ", ""))
}
