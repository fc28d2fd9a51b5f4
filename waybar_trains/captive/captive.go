// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package captive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/MKuranowski/WaybarTrains/waybar_trains/util/http2"
)

// Result is the outcome of a login attempt.
type Result uint8

const (
	NotImplemented Result = iota
	AlreadyLoggedIn
	Success
	Failed
)

func (r Result) String() string {
	switch r {
	case NotImplemented:
		return "not_implemented"
	case AlreadyLoggedIn:
		return "already_logged_in"
	case Success:
		return "success"
	case Failed:
		return "error"
	default:
		return fmt.Sprintf("Result(%d)", uint8(r))
	}
}

// ErrMissingToken is returned when the portal did not set its CSRF cookie.
// This is not a transient failure - most likely the portal has changed.
var ErrMissingToken = errors.New("captive portal did not provide a CSRF token")

// Portal describes a captive portal with a CSRF-protected login form.
//
// Login works in three steps:
//  1. PageURL is fetched. If its body doesn't contain Marker, the device is already logged in.
//  2. The CSRF token is taken from the TokenCookie set for LoginURL, and a form
//     with TokenField and ExtraFields is posted to LoginURL.
//  3. If HealthURL is set, it must respond with {"result": {"healthy": true}}.
//     Otherwise, the login response must not contain Marker anymore.
type Portal struct {
	Client *http.Client

	PageURL string
	Marker  string

	TokenCookie string
	TokenField  string
	LoginURL    string
	ExtraFields url.Values

	HealthURL string
}

// Login attempts to log in, if necessary.
// A Failed result is always accompanied by an error explaining the failure.
func (p *Portal) Login(ctx context.Context) (Result, error) {
	page, err := p.get(ctx, p.PageURL)
	if err != nil {
		return Failed, fmt.Errorf("fetching portal page: %w", err)
	}

	if !bytes.Contains(page, []byte(p.Marker)) {
		return AlreadyLoggedIn, nil
	}

	token, err := p.token()
	if err != nil {
		return Failed, err
	}

	slog.Debug("Submitting captive portal login form", "url", p.LoginURL)
	response, err := p.submit(ctx, token)
	if err != nil {
		return Failed, fmt.Errorf("submitting login form: %w", err)
	}

	if p.HealthURL != "" {
		return p.checkHealth(ctx)
	} else if bytes.Contains(response, []byte(p.Marker)) {
		return Failed, errors.New("portal still requests a login")
	}
	return Success, nil
}

func (p *Portal) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return http2.ReadBody(p.Client, req)
}

func (p *Portal) token() (string, error) {
	if p.Client == nil || p.Client.Jar == nil {
		return "", fmt.Errorf("%w: client has no cookie jar", ErrMissingToken)
	}

	u, err := url.Parse(p.LoginURL)
	if err != nil {
		return "", err
	}

	for _, cookie := range p.Client.Jar.Cookies(u) {
		if cookie.Name == p.TokenCookie && cookie.Value != "" {
			return cookie.Value, nil
		}
	}
	return "", fmt.Errorf("%w (cookie %q)", ErrMissingToken, p.TokenCookie)
}

func (p *Portal) submit(ctx context.Context, token string) ([]byte, error) {
	form := url.Values{}
	for key, values := range p.ExtraFields {
		form[key] = values
	}
	form.Set(p.TokenField, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.LoginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return http2.ReadBody(p.Client, req)
}

type healthResponse struct {
	Result struct {
		Healthy bool `json:"healthy"`
	} `json:"result"`
}

func (p *Portal) checkHealth(ctx context.Context) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.HealthURL, nil)
	if err != nil {
		return Failed, err
	}

	health, err := http2.GetJSON[healthResponse](p.Client, req)
	if err != nil {
		return Failed, fmt.Errorf("checking login health: %w", err)
	} else if !health.Result.Healthy {
		return Failed, errors.New("portal reports an unhealthy connection after login")
	}
	return Success, nil
}
