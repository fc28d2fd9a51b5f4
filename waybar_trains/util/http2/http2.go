// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package http2

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"

	"golang.org/x/net/publicsuffix"
)

type Error struct {
	URL, Status string
	StatusCode  int
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.URL, e.Status)
}

func Check(r *http.Response) error {
	if r.StatusCode >= 400 && r.StatusCode < 600 {
		io.Copy(io.Discard, r.Body)
		r.Body.Close()
		return &Error{
			URL:        r.Request.URL.Redacted(),
			Status:     r.Status,
			StatusCode: r.StatusCode,
		}
	}
	return nil
}

// NewSession returns a client with its own cookie jar. Sessions must not be
// shared between providers.
func NewSession() *http.Client {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		// cookiejar.New never fails
		panic(err)
	}
	return &http.Client{Jar: jar}
}

// ReadBody executes the request and returns the whole response body.
func ReadBody(client *http.Client, req *http.Request) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	} else if err = Check(resp); err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// GetRaw executes the request and returns the response body,
// after checking that it contains valid JSON.
func GetRaw(client *http.Client, req *http.Request) (json.RawMessage, error) {
	body, err := ReadBody(client, req)
	if err != nil {
		return nil, err
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("%s: response is not valid JSON", req.URL.Redacted())
	}
	return body, nil
}

func GetJSON[T any](client *http.Client, req *http.Request) (content *T, err error) {
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return
	} else if err = Check(resp); err != nil {
		return
	}
	defer resp.Body.Close()

	content = new(T)
	dec := json.NewDecoder(resp.Body)
	err = dec.Decode(content)
	if err != nil {
		content = nil
	}
	return
}
