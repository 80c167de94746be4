package rates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"kakeibo/internal/core"
)

type fakeStore struct {
	mu    sync.Mutex
	rates []core.ExchangeRate
	err   error
}

func (f *fakeStore) UpsertRate(_ context.Context, rate core.ExchangeRate) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rates = append(f.rates, rate)
	return nil
}

func TestFetcher_FetchLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		to := r.URL.Query().Get("to")
		if to == "" {
			t.Error("targets missing from request")
		}
		w.Write([]byte(`{"base":"JPY","date":"2024-03-07","rates":{"USD":0.0067,"EUR":0.0061}}`))
	}))
	defer srv.Close()

	store := &fakeStore{}
	fetcher := NewFetcher(NewClient(srv.URL), store)

	result, err := fetcher.FetchLatest(context.Background())
	if err != nil {
		t.Fatalf("FetchLatest failed: %v", err)
	}

	if !result.Success || result.Stored != 2 || result.Date != "2024-03-07" {
		t.Errorf("result = %+v", result)
	}
	if len(store.rates) != 2 {
		t.Fatalf("stored %d rates, want 2", len(store.rates))
	}
	for _, r := range store.rates {
		if r.BaseCurrency != "JPY" || r.Source != "frankfurter" || r.RateDate.String() != "2024-03-07" {
			t.Errorf("stored rate = %+v", r)
		}
	}
}

func TestFetcher_FetchLatestStorageFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"base":"JPY","date":"2024-03-07","rates":{"USD":0.0067}}`))
	}))
	defer srv.Close()

	fetcher := NewFetcher(NewClient(srv.URL), &fakeStore{err: errors.New("disk full")})

	result, err := fetcher.FetchLatest(context.Background())
	if err == nil {
		t.Fatal("storage fault should fail the run")
	}
	if result.Success {
		t.Error("result.Success should be false")
	}
}

func TestFetcher_TargetsExcludeBase(t *testing.T) {
	fetcher := NewFetcher(NewClient(""), &fakeStore{})

	for _, target := range fetcher.targets {
		if target == core.BaseCurrency {
			t.Errorf("targets include the base currency: %v", fetcher.targets)
		}
	}
	if len(fetcher.targets) != len(core.Currencies)-1 {
		t.Errorf("targets = %v, want all currencies except base", fetcher.targets)
	}
}

func TestFetcher_Backfill(t *testing.T) {
	var mu sync.Mutex
	requests := []string{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.URL.Path)
		mu.Unlock()
		w.Write([]byte(`{"base":"JPY","rates":{"2024-03-01":{"USD":0.0067}}}`))
	}))
	defer srv.Close()

	store := &fakeStore{}
	fetcher := NewFetcher(NewClient(srv.URL), store)

	err := fetcher.Backfill(context.Background(), core.NewDate(2024, 2, 15), core.NewDate(2024, 4, 10))
	if err != nil {
		t.Fatalf("Backfill failed: %v", err)
	}

	// One ranged call per calendar month in the window.
	if len(requests) != 3 {
		t.Errorf("made %d range calls, want 3", len(requests))
	}
	if len(store.rates) != 3 {
		t.Errorf("stored %d rates, want 3", len(store.rates))
	}
}

func TestMonthChunks(t *testing.T) {
	chunks := monthChunks(core.NewDate(2024, 1, 15), core.NewDate(2024, 3, 10))

	want := []struct{ start, end string }{
		{"2024-01-15", "2024-01-31"},
		{"2024-02-01", "2024-02-29"},
		{"2024-03-01", "2024-03-10"},
	}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(want))
	}
	for i, w := range want {
		if chunks[i].start.String() != w.start || chunks[i].end.String() != w.end {
			t.Errorf("chunk %d = %s..%s, want %s..%s",
				i, chunks[i].start.String(), chunks[i].end.String(), w.start, w.end)
		}
	}

	// Single-day window collapses to one chunk.
	chunks = monthChunks(core.NewDate(2024, 5, 5), core.NewDate(2024, 5, 5))
	if len(chunks) != 1 || chunks[0].start.String() != "2024-05-05" || chunks[0].end.String() != "2024-05-05" {
		t.Errorf("single-day chunks = %v", chunks)
	}
}
