package music

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/paul0vinicius/chasing-chairs/internal/engine"
)

var ErrDisabled = errors.New("music: resolver disabled")
var ErrNoTracks = errors.New("music: no playable tracks")

// Resolver returns a playable track URL. Callers bound it with a context deadline.
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

type Nop struct{}

func (Nop) Resolve(context.Context) (string, error) { return "", ErrDisabled }

// maxCandidates caps how deep into the search results a track is drawn from.
const maxCandidates = 25

// Deezer picks a random preview clip from the Deezer public search API.
type Deezer struct {
	baseURL string
	queries []string
	client  *http.Client
	rng     engine.Rand
}

// NewDeezer builds a resolver. Resolve runs off the hub goroutine, so rng must
// be safe for concurrent use; nil means engine.DefaultRand.
func NewDeezer(baseURL string, queries []string, client *http.Client, rng engine.Rand) *Deezer {
	if client == nil {
		client = http.DefaultClient
	}
	if rng == nil {
		rng = engine.DefaultRand
	}
	return &Deezer{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		queries: queries,
		client:  client,
		rng:     rng,
	}
}

type searchResponse struct {
	Data []struct {
		Preview string `json:"preview"`
	} `json:"data"`
}

func (d *Deezer) Resolve(ctx context.Context) (string, error) {
	if len(d.queries) == 0 {
		return "", ErrDisabled
	}
	q := d.queries[d.rng.IntN(len(d.queries))]

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/search?q="+url.QueryEscape(q), nil)
	if err != nil {
		return "", fmt.Errorf("music: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("music: search %q: %w", q, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("music: search %q: status %d", q, resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("music: decode search: %w", err)
	}

	tracks := body.Data
	if len(tracks) > maxCandidates {
		tracks = tracks[:maxCandidates]
	}
	var previews []string
	for _, t := range tracks {
		if t.Preview != "" {
			previews = append(previews, t.Preview)
		}
	}
	if len(previews) == 0 {
		return "", ErrNoTracks
	}
	return previews[d.rng.IntN(len(previews))], nil
}
