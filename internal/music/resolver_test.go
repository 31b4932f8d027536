package music

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeezer_PicksPreviewFromSearch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"preview":""},{"preview":"https://cdn.example/a.mp3"},{"preview":"https://cdn.example/b.mp3"}]}`))
	}))
	defer srv.Close()

	d := NewDeezer(srv.URL+"/", []string{"brazilian funk"}, srv.Client(), nil)
	got, err := d.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "brazilian funk", gotQuery)
	assert.Contains(t, []string{"https://cdn.example/a.mp3", "https://cdn.example/b.mp3"}, got)
}

// lastRand always picks the last option.
type lastRand struct{}

func (lastRand) IntN(n int) int { return n - 1 }

func TestDeezer_InjectedRandPicksQueryAndTrack(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(`{"data":[{"preview":"https://cdn.example/a.mp3"},{"preview":""},{"preview":"https://cdn.example/c.mp3"}]}`))
	}))
	defer srv.Close()

	d := NewDeezer(srv.URL, []string{"samba", "forro", "axe"}, srv.Client(), lastRand{})
	got, err := d.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "axe", gotQuery)
	assert.Equal(t, "https://cdn.example/c.mp3", got)
}

func TestDeezer_Failures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "empty result",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"data":[]}`))
			},
			wantErr: ErrNoTracks,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			url, err := NewDeezer(srv.URL, []string{"x"}, srv.Client(), nil).Resolve(context.Background())
			require.Error(t, err)
			assert.Empty(t, url)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestDeezer_RespectsDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewDeezer(srv.URL, []string{"x"}, srv.Client(), nil).Resolve(ctx)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNop(t *testing.T) {
	_, err := Nop{}.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = NewDeezer("http://unused", nil, nil, nil).Resolve(context.Background())
	assert.ErrorIs(t, err, ErrDisabled)
}
