// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sync"
)

// TokenPair is the CSRF header name and token value attached to every
// state-changing request.
type TokenPair struct {
	HeaderName string
	Token      string
}

// TokenSource supplies the CSRF pair for mutating requests. The
// source is consulted per request so implementations may refresh.
type TokenSource interface {
	Tokens(ctx context.Context) (TokenPair, error)
}

// StaticTokens returns a TokenSource that always yields the same pair.
// Used in tests and against servers with CSRF disabled.
func StaticTokens(headerName, token string) TokenSource {
	return staticTokens{pair: TokenPair{HeaderName: headerName, Token: token}}
}

type staticTokens struct {
	pair TokenPair
}

func (s staticTokens) Tokens(context.Context) (TokenPair, error) {
	return s.pair, nil
}

// The server embeds the CSRF pair in the landing page's head metadata.
var (
	csrfTokenPattern  = regexp.MustCompile(`<meta\s+name="_csrf"\s+content="([^"]*)"`)
	csrfHeaderPattern = regexp.MustCompile(`<meta\s+name="_csrf_header"\s+content="([^"]*)"`)
)

// PageTokens fetches the landing page once and extracts the CSRF pair
// from its meta tags, caching the result for the session. The fetch is
// lazy: it happens on the first mutation, not at construction.
func PageTokens(httpClient *http.Client, baseURL string) TokenSource {
	return &pageTokens{httpClient: httpClient, baseURL: baseURL}
}

type pageTokens struct {
	httpClient *http.Client
	baseURL    string

	mu     sync.Mutex
	cached *TokenPair
}

func (p *pageTokens) Tokens(ctx context.Context) (TokenPair, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != nil {
		return *p.cached, nil
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/", nil)
	if err != nil {
		return TokenPair{}, err
	}
	response, err := p.httpClient.Do(request)
	if err != nil {
		return TokenPair{}, fmt.Errorf("fetching page metadata: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return TokenPair{}, fmt.Errorf("reading page metadata: %w", err)
	}

	tokenMatch := csrfTokenPattern.FindSubmatch(body)
	headerMatch := csrfHeaderPattern.FindSubmatch(body)
	if tokenMatch == nil || headerMatch == nil {
		return TokenPair{}, fmt.Errorf("page at %s has no CSRF metadata", p.baseURL)
	}

	pair := TokenPair{HeaderName: string(headerMatch[1]), Token: string(tokenMatch[1])}
	p.cached = &pair
	return pair, nil
}
