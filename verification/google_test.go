package verification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newGoogleTestVerifier(handler http.HandlerFunc) (*GoogleAddressVerifier, *httptest.Server) {
	srv := httptest.NewServer(handler)
	v := NewGoogleAddressVerifier("test-key")
	v.baseURL = srv.URL
	v.client = srv.Client()
	return v, srv
}

func TestGoogleVerify_Success(t *testing.T) {
	var gotAddress string
	v, srv := newGoogleTestVerifier(func(w http.ResponseWriter, r *http.Request) {
		gotAddress = r.URL.Query().Get("address")
		w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"formatted_address": "10 Downing Street, London SW1A 2AA, UK",
				"address_components": [
					{"long_name": "SW1A 2AA", "types": ["postal_code"]},
					{"long_name": "London", "types": ["postal_town"]},
					{"long_name": "Greater London", "types": ["administrative_area_level_2"]},
					{"long_name": "United Kingdom", "types": ["country"]}
				]
			}]
		}`))
	})
	defer srv.Close()

	res := v.Verify(context.Background(), "10 Downing Street", "SW1A 2AA", "London", "United Kingdom")

	if !res.Verified {
		t.Fatalf("Verified = false, message = %q", res.Message)
	}
	if res.FormattedAddress != "10 Downing Street, London SW1A 2AA, UK" {
		t.Errorf("FormattedAddress = %q", res.FormattedAddress)
	}
	if res.Components["town"] != "London" {
		t.Errorf("town component = %q, want London", res.Components["town"])
	}
	if res.Components["county"] != "Greater London" {
		t.Errorf("county component = %q", res.Components["county"])
	}
	if gotAddress != "10 Downing Street, London, SW1A 2AA, United Kingdom" {
		t.Errorf("query address = %q", gotAddress)
	}
}

func TestGoogleVerify_ConfidenceBumps(t *testing.T) {
	v, srv := newGoogleTestVerifier(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"formatted_address": "Somewhere",
				"address_components": [
					{"long_name": "SW1A 2AA", "types": ["postal_code"]},
					{"long_name": "London", "types": ["locality"]}
				]
			}]
		}`))
	})
	defer srv.Close()

	// Both postcode and town echoed back: 0.8 + 0.1 + 0.1.
	res := v.Verify(context.Background(), "", "sw1a 2aa", "london", "")
	if res.ConfidenceScore != 1.0 {
		t.Errorf("ConfidenceScore = %v, want 1.0", res.ConfidenceScore)
	}

	// No town supplied: one bump only.
	res = v.Verify(context.Background(), "", "SW1A 2AA", "", "")
	if diff := res.ConfidenceScore - 0.9; diff < -0.001 || diff > 0.001 {
		t.Errorf("ConfidenceScore = %v, want 0.9", res.ConfidenceScore)
	}
}

func TestGoogleVerify_ZeroResults(t *testing.T) {
	v, srv := newGoogleTestVerifier(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	})
	defer srv.Close()

	res := v.Verify(context.Background(), "", "XX99 9XX", "", "")
	if res.Verified {
		t.Fatal("Verified = true for ZERO_RESULTS")
	}
	if res.Message != "address verification failed: ZERO_RESULTS" {
		t.Errorf("Message = %q", res.Message)
	}
	if res.Components == nil {
		t.Error("Components should be an empty map, not nil")
	}
}

func TestGoogleVerify_ServerError(t *testing.T) {
	v, srv := newGoogleTestVerifier(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer srv.Close()

	res := v.Verify(context.Background(), "", "SW1A 2AA", "", "")
	if res.Verified {
		t.Fatal("Verified = true on server error")
	}
	if res.Message != "address verification failed: status 500" {
		t.Errorf("Message = %q", res.Message)
	}
}

func TestGoogleVerify_Unreachable(t *testing.T) {
	v, srv := newGoogleTestVerifier(func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	res := v.Verify(context.Background(), "", "SW1A 2AA", "", "")
	if res.Verified {
		t.Fatal("Verified = true when server is unreachable")
	}
}
