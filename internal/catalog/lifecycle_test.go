package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"limitedtees.shop/storefront/internal/catalog"
)

var fixedNow = func() time.Time { return time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC) }

func TestLoadAcceptsBothLists(t *testing.T) {
	t.Parallel()

	svc := &catalog.StaticService{
		CurrentItems: []catalog.Product{{ID: "1", Title: "X", Price: catalog.NewPrice(10)}},
		ArchiveItems: []catalog.Product{{ID: "old", Title: "Old"}},
	}
	got := catalog.Load(context.Background(), svc, catalog.LoadOptions{Now: fixedNow})
	require.False(t, got.Failed())
	require.False(t, got.Sample)
	require.Len(t, got.Current, 1)
	require.Len(t, got.Archive, 1)
}

func TestLoadShapeFallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		svc         *catalog.StaticService
		wantSample  bool
		wantArchive int
	}{
		{
			name:       "empty current uses sample drop",
			svc:        &catalog.StaticService{},
			wantSample: true,
		},
		{
			name: "malformed current uses sample drop",
			svc: &catalog.StaticService{
				CurrentErr:   fmt.Errorf("decode: %w", catalog.ErrMalformed),
				ArchiveItems: []catalog.Product{{Slug: "a"}},
			},
			wantSample:  true,
			wantArchive: 1,
		},
		{
			name: "malformed archive becomes empty",
			svc: &catalog.StaticService{
				CurrentItems: []catalog.Product{{Slug: "c"}},
				ArchiveErr:   &catalog.StatusError{Op: "archive", Status: 502, Body: `{"detail":"upstream"}`, JSONBody: true},
			},
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := catalog.Load(context.Background(), tc.svc, catalog.LoadOptions{Now: fixedNow})
			require.NoError(t, got.Err)
			require.NotNil(t, got.Current)
			require.NotNil(t, got.Archive)
			require.Equal(t, tc.wantSample, got.Sample)
			require.Len(t, got.Archive, tc.wantArchive)
			if tc.wantSample {
				require.Len(t, got.Current, 2)
				require.Equal(t, "NOIR BASIC TEE", got.Current[0].Title)
				require.Equal(t, 10, got.Current[0].ReleaseMonth)
				require.Equal(t, 2026, got.Current[1].ReleaseYear)
			}
		})
	}
}

func TestLoadNetworkFailureEmptiesBoth(t *testing.T) {
	t.Parallel()

	netErr := errors.New("dial tcp: connection refused")
	svc := &catalog.StaticService{
		CurrentItems: []catalog.Product{{Slug: "c"}},
		ArchiveErr:   netErr,
	}
	got := catalog.Load(context.Background(), svc, catalog.LoadOptions{Now: fixedNow})
	require.True(t, got.Failed())
	require.ErrorIs(t, got.Err, netErr)
	require.NotNil(t, got.Current)
	require.NotNil(t, got.Archive)
	require.Empty(t, got.Current)
	require.Empty(t, got.Archive)
}

func TestLoadHTMLErrorPageIsHardFailure(t *testing.T) {
	t.Parallel()

	svc := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tees/current" {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html><body>Bad Gateway</body></html>`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	got := catalog.Load(context.Background(), svc, catalog.LoadOptions{Now: fixedNow})
	require.True(t, got.Failed())
	require.False(t, got.Sample)
	require.Empty(t, got.Current)
	require.Empty(t, got.Archive)
	require.NotErrorIs(t, got.Err, catalog.ErrMalformed)
	var statusErr *catalog.StatusError
	require.ErrorAs(t, got.Err, &statusErr)
	require.Equal(t, http.StatusBadGateway, statusErr.Status)
}

func TestLoadJSONErrorBodyIsShapeFailure(t *testing.T) {
	t.Parallel()

	svc := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/tees/archive" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Not Found"}`))
			return
		}
		_, _ = w.Write([]byte(`[{"id":7,"title":"X"}]`))
	})

	got := catalog.Load(context.Background(), svc, catalog.LoadOptions{Now: fixedNow})
	require.False(t, got.Failed())
	require.False(t, got.Sample)
	require.Len(t, got.Current, 1)
	require.Equal(t, "7", got.Current[0].Key())
	require.NotNil(t, got.Archive)
	require.Empty(t, got.Archive)
}

func TestLoadCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := catalog.Load(ctx, catalog.NewStaticService(), catalog.LoadOptions{})
	require.ErrorIs(t, got.Err, context.Canceled)
	require.Empty(t, got.Current)
}

type slowSource struct {
	delay time.Duration
}

func (s slowSource) Current(ctx context.Context) ([]catalog.Product, error) {
	time.Sleep(s.delay)
	return []catalog.Product{{Slug: "c"}}, nil
}

func (s slowSource) Archive(ctx context.Context) ([]catalog.Product, error) {
	time.Sleep(s.delay)
	return []catalog.Product{{Slug: "a"}}, nil
}

func TestLoadRunsCallsConcurrently(t *testing.T) {
	t.Parallel()

	start := time.Now()
	got := catalog.Load(context.Background(), slowSource{delay: 150 * time.Millisecond}, catalog.LoadOptions{})
	require.Less(t, time.Since(start), 290*time.Millisecond)
	require.Len(t, got.Current, 1)
	require.Len(t, got.Archive, 1)
}
