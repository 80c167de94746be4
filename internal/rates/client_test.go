package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"kakeibo/internal/core"
)

func TestClient_Latest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/latest" {
			t.Errorf("path = %s, want /latest", r.URL.Path)
		}
		if from := r.URL.Query().Get("from"); from != "JPY" {
			t.Errorf("from = %s, want JPY", from)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"base":"JPY","date":"2024-03-07","rates":{"USD":0.0067,"EUR":0.0061}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	day, err := client.Latest(context.Background(), "JPY", []string{"USD", "EUR"})
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}

	if day.Date.String() != "2024-03-07" {
		t.Errorf("date = %s, want 2024-03-07", day.Date.String())
	}
	if day.Rates["USD"] != 0.0067 || day.Rates["EUR"] != 0.0061 {
		t.Errorf("rates = %v", day.Rates)
	}
}

func TestClient_LatestEmptyRates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"base":"JPY","date":"2024-03-07","rates":{}}`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Latest(context.Background(), "JPY", []string{"USD"}); err == nil {
		t.Error("empty rates payload should be an error")
	}
}

func TestClient_LatestHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Latest(context.Background(), "JPY", []string{"USD"}); err == nil {
		t.Error("non-200 response should be an error")
	}
}

func TestClient_RangePreservesBusinessDays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Weekend days absent, as the real API does.
		w.Write([]byte(`{"base":"JPY","rates":{
			"2024-03-01":{"USD":0.0067},
			"2024-03-04":{"USD":0.0068}
		}}`))
	}))
	defer srv.Close()

	days, err := NewClient(srv.URL).Range(context.Background(), "JPY", []string{"USD"},
		core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 4))
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}

	if len(days) != 2 {
		t.Fatalf("got %d days, want 2 business days", len(days))
	}
	seen := map[string]float64{}
	for _, d := range days {
		seen[d.Date.String()] = d.Rates["USD"]
	}
	if seen["2024-03-01"] != 0.0067 || seen["2024-03-04"] != 0.0068 {
		t.Errorf("days = %v", seen)
	}
}
