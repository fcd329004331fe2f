package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ryecroft/amsync/internal/shared"
)

const defaultBaseURL = "https://api.music.apple.com"

// remoteErrorBodyLimit caps how much of an error response is retained.
const remoteErrorBodyLimit = 2048

// Client performs catalog search, point lookups, and library mutations against
// the Apple Music API. It is stateless: no caching, no retries. Retry and
// pacing policy belong to the caller.
type Client struct {
	baseURL        string
	storefront     string
	developerToken string
	userToken      string
	httpClient     *http.Client
}

// ClientOpts contains configuration for creating a Client.
type ClientOpts struct {
	BaseURL        string // defaults to the public API host
	Storefront     string // defaults to "us"
	DeveloperToken string // required for every operation
	UserToken      string // required for library mutations only
	HTTPClient     *http.Client
}

// NewClient creates an Apple Music API client.
func NewClient(opts ClientOpts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Storefront == "" {
		opts.Storefront = "us"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Client{
		baseURL:        opts.BaseURL,
		storefront:     opts.Storefront,
		developerToken: opts.DeveloperToken,
		userToken:      opts.UserToken,
		httpClient:     opts.HTTPClient,
	}
}

// Storefront returns the storefront the client queries.
func (c *Client) Storefront() string {
	return c.storefront
}

// HasUserToken reports whether the client can perform library mutations.
func (c *Client) HasUserToken() bool {
	return c.userToken != ""
}

// doRequest performs an authenticated HTTP request against the API.
//
// Credentials are checked before any network call: a missing developer token
// fails every request, a missing user token fails mutation requests.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body, result any, requireUser bool) error {
	if c.developerToken == "" {
		return fmt.Errorf("%w: developer token required for catalog access", shared.ErrNotConfigured)
	}
	if requireUser && c.userToken == "" {
		return fmt.Errorf("%w: user token required for library changes", shared.ErrNotConfigured)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.developerToken)
	req.Header.Set("Content-Type", "application/json")
	if c.userToken != "" {
		req.Header.Set("Music-User-Token", c.userToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, remoteErrorBodyLimit))
		return &RemoteError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Search queries the catalog for songs matching term, preserving remote
// relevance order.
func (c *Client) Search(ctx context.Context, term string, limit int) ([]Song, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 25 {
		limit = 25
	}

	endpoint := fmt.Sprintf("/v1/catalog/%s/search?term=%s&types=songs&limit=%d",
		c.storefront, url.QueryEscape(term), limit)

	var response searchResponse
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &response, false); err != nil {
		return nil, err
	}

	if response.Results.Songs == nil {
		return []Song{}, nil
	}

	return collectSongs(response.Results.Songs.Data), nil
}

// Song retrieves a single catalog song by ID.
//
// A 404 is mapped to [ErrSongNotFound] rather than a [RemoteError].
func (c *Client) Song(ctx context.Context, id string) (*Song, error) {
	endpoint := fmt.Sprintf("/v1/catalog/%s/songs/%s", c.storefront, url.PathEscape(id))

	var response songsResponse
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &response, false); err != nil {
		var remote *RemoteError
		if errors.As(err, &remote) && remote.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrSongNotFound, id)
		}
		return nil, err
	}

	songs := collectSongs(response.Data)
	if len(songs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSongNotFound, id)
	}

	return &songs[0], nil
}

// AddToLibrary adds catalog songs to the user's library in a single bulk call.
func (c *Client) AddToLibrary(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("no song IDs provided")
	}

	endpoint := "/v1/me/library?ids[songs]=" + url.QueryEscape(strings.Join(ids, ","))
	return c.doRequest(ctx, http.MethodPost, endpoint, nil, nil, true)
}

// playlistCreateRequest mirrors the body of POST /v1/me/library/playlists.
type playlistCreateRequest struct {
	Attributes struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	} `json:"attributes"`
	Relationships *struct {
		Tracks struct {
			Data []playlistTrackRef `json:"data"`
		} `json:"tracks"`
	} `json:"relationships,omitempty"`
}

type playlistTrackRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// playlistCreateResponse mirrors the created library playlist resource.
type playlistCreateResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// CreatePlaylist creates a library playlist containing the given catalog songs
// and returns its library playlist ID.
func (c *Client) CreatePlaylist(ctx context.Context, name, description string, ids []string) (string, error) {
	var body playlistCreateRequest
	body.Attributes.Name = name
	body.Attributes.Description = description

	if len(ids) > 0 {
		refs := make([]playlistTrackRef, len(ids))
		for i, id := range ids {
			refs[i] = playlistTrackRef{ID: id, Type: "songs"}
		}
		body.Relationships = &struct {
			Tracks struct {
				Data []playlistTrackRef `json:"data"`
			} `json:"tracks"`
		}{}
		body.Relationships.Tracks.Data = refs
	}

	var response playlistCreateResponse
	if err := c.doRequest(ctx, http.MethodPost, "/v1/me/library/playlists", body, &response, true); err != nil {
		return "", err
	}

	if len(response.Data) == 0 {
		return "", fmt.Errorf("%w: empty create playlist response", shared.ErrAPIRequest)
	}

	return response.Data[0].ID, nil
}
