// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package apiclient provides a typed HTTP client for the estimation
// server's /api endpoints. The client mirrors the server's wire format
// through the model package's validated decoders, so malformed
// payloads surface as errors at the call site instead of zero values
// deeper in the view code.
//
// State-changing requests carry the CSRF token pair supplied by the
// injected TokenSource; everything else about authentication (session
// cookies) rides on the underlying http.Client's jar and is not this
// package's concern.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/pointdeck/pointdeck/lib/model"
)

// Client is a typed HTTP client for the estimation server API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
}

// New creates a Client for the server at baseURL (scheme and host,
// no trailing slash required). Mutating calls fetch their CSRF pair
// from tokens.
func New(baseURL string, tokens TokenSource) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		tokens:     tokens,
	}
}

// NewWithPageTokens creates a Client whose CSRF pair is scraped from
// the server's landing page. The page fetch and the API calls share
// one cookie jar so the session established by the page carries over.
func NewWithPageTokens(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	httpClient := &http.Client{Jar: jar}
	trimmed := strings.TrimSuffix(baseURL, "/")
	return &Client{
		httpClient: httpClient,
		baseURL:    trimmed,
		tokens:     PageTokens(httpClient, trimmed),
	}, nil
}

// NewForTesting creates a Client with a custom transport. Used by
// tests that redirect requests to an httptest.Server.
func NewForTesting(transport http.RoundTripper, baseURL string, tokens TokenSource) *Client {
	client := New(baseURL, tokens)
	client.httpClient = &http.Client{Transport: transport}
	return client
}

// BaseURL returns the server URL this client was configured with.
func (client *Client) BaseURL() string {
	return client.baseURL
}

// HTTPClient exposes the underlying HTTP client for collaborators
// that need raw access (the CSRF page-metadata fetch).
func (client *Client) HTTPClient() *http.Client {
	return client.httpClient
}

// Identity returns the local participant's identity.
func (client *Client) Identity(ctx context.Context) (model.User, error) {
	body, err := client.get(ctx, "/api/identity")
	if err != nil {
		return model.User{}, fmt.Errorf("identity: %w", err)
	}
	user, err := model.DecodeUser(body)
	if err != nil {
		return model.User{}, fmt.Errorf("identity: %w", err)
	}
	return user, nil
}

// EnabledExtensionKeys returns the extension keys the deployment has
// globally enabled.
func (client *Client) EnabledExtensionKeys(ctx context.Context) ([]string, error) {
	body, err := client.get(ctx, "/api/extensions")
	if err != nil {
		return nil, fmt.Errorf("extensions: %w", err)
	}
	var keys []string
	if err := json.Unmarshal(body, &keys); err != nil {
		return nil, fmt.Errorf("extensions: decoding response: %w", err)
	}
	return keys, nil
}

// CardSets returns the card set catalog. Loaded once at startup;
// card sets are immutable reference data.
func (client *Client) CardSets(ctx context.Context) ([]model.CardSet, error) {
	body, err := client.get(ctx, "/api/card-sets")
	if err != nil {
		return nil, fmt.Errorf("card sets: %w", err)
	}
	sets, err := model.DecodeCardSets(body)
	if err != nil {
		return nil, fmt.Errorf("card sets: %w", err)
	}
	return sets, nil
}

// Rooms returns all rooms visible on the server.
func (client *Client) Rooms(ctx context.Context) ([]*model.Room, error) {
	body, err := client.get(ctx, "/api/rooms")
	if err != nil {
		return nil, fmt.Errorf("rooms: %w", err)
	}
	rooms, err := model.DecodeRooms(body)
	if err != nil {
		return nil, fmt.Errorf("rooms: %w", err)
	}
	return rooms, nil
}

// Room returns the current snapshot of a single room.
func (client *Client) Room(ctx context.Context, name string) (*model.Room, error) {
	body, err := client.get(ctx, "/api/rooms/"+url.PathEscape(name)+"/")
	if err != nil {
		return nil, fmt.Errorf("room %q: %w", name, err)
	}
	room, err := model.DecodeRoom(body)
	if err != nil {
		return nil, fmt.Errorf("room %q: %w", name, err)
	}
	return room, nil
}

// Summary returns the server-computed vote summary for a closed round.
func (client *Client) Summary(ctx context.Context, room string) (*model.SummaryResult, error) {
	body, err := client.get(ctx, "/api/rooms/"+url.PathEscape(room)+"/votes/summary")
	if err != nil {
		return nil, fmt.Errorf("summary for %q: %w", room, err)
	}
	result, err := model.DecodeSummaryResult(body)
	if err != nil {
		return nil, fmt.Errorf("summary for %q: %w", room, err)
	}
	return result, nil
}

// ExtensionConfig returns the deployment-global configuration blob for
// an extension. The shape is extension-defined; the core passes it
// through opaquely.
func (client *Client) ExtensionConfig(ctx context.Context, key string) (json.RawMessage, error) {
	body, err := client.get(ctx, "/api/extensions/"+url.PathEscape(key))
	if err != nil {
		return nil, fmt.Errorf("extension %q config: %w", key, err)
	}
	return json.RawMessage(body), nil
}

// RoomExtensionConfig returns the per-room configuration blob for an
// extension.
func (client *Client) RoomExtensionConfig(ctx context.Context, room, key string) (json.RawMessage, error) {
	body, err := client.get(ctx, "/api/rooms/"+url.PathEscape(room)+"/extensions/"+url.PathEscape(key))
	if err != nil {
		return nil, fmt.Errorf("extension %q config for %q: %w", key, room, err)
	}
	return json.RawMessage(body), nil
}

// get performs a GET and returns the response body, mapping non-2xx
// statuses through errorFromResponse.
func (client *Client) get(ctx context.Context, path string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, client.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, errorFromResponse(response.StatusCode, body)
	}
	return body, nil
}

// send performs a state-changing request (POST, PATCH, DELETE) with
// the CSRF pair attached. body may be nil. The response body is
// drained and discarded on success.
func (client *Client) send(ctx context.Context, method, path string, payload any) error {
	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	request, err := http.NewRequestWithContext(ctx, method, client.baseURL+path, reader)
	if err != nil {
		return err
	}
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	pair, err := client.tokens.Tokens(ctx)
	if err != nil {
		return fmt.Errorf("fetching CSRF tokens: %w", err)
	}
	request.Header.Set(pair.HeaderName, pair.Token)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	body, _ := io.ReadAll(response.Body)
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return errorFromResponse(response.StatusCode, body)
	}
	return nil
}
