// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package provider

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

// Capture is a recording of a provider's raw data, together with the moment it was fetched.
type Capture struct {
	Provider   string    `json:"provider"`
	CapturedAt time.Time `json:"captured_at"`
	Documents  Documents `json:"documents"`
}

// LoadCapture reads a capture from a JSON file. Files ending with ".gz" are decompressed.
func LoadCapture(path string) (*Capture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if isCompressed(path) {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	c := new(Capture)
	if err := json.NewDecoder(r).Decode(c); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if c.Provider == "" {
		return nil, fmt.Errorf("%s: capture does not name its provider", path)
	}
	return c, nil
}

// Save writes the capture to a JSON file. Paths ending with ".gz" are compressed.
func (c *Capture) Save(path string) error {
	tempPath := getTempOutputPath(path)

	err := c.write(tempPath, isCompressed(path))
	if err != nil {
		os.Remove(tempPath)
		return err
	}

	return os.Rename(tempPath, path)
}

func (c *Capture) write(path string, compress bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	b := bufio.NewWriter(f)
	var w io.Writer = b
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(b)
		w = gz
	}

	e := json.NewEncoder(w)
	e.SetIndent("", "\t")
	if err = e.Encode(c); err != nil {
		return err
	}

	if gz != nil {
		if err = gz.Close(); err != nil {
			return err
		}
	}

	return b.Flush()
}

func isCompressed(path string) bool {
	return strings.HasSuffix(path, ".gz")
}

func getTempOutputPath(path string) string {
	dir, name := filepath.Split(path)
	return fmt.Sprintf("%s.%s.tmp", dir, name)
}
