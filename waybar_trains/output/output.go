// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MKuranowski/WaybarTrains/waybar_trains/journey"
)

const (
	Binary        = false
	HumanReadable = true
)

var ErrUnknownFormat = errors.New("unknown output format")

// Format selects how statuses are written. Implements flag.Value.
type Format string

const (
	FormatWaybar Format = "waybar"
	FormatText   Format = "text"
	FormatGTFS   Format = "gtfs-rt"
)

func (f Format) String() string {
	return string(f)
}

func (f *Format) Set(s string) error {
	switch Format(s) {
	case FormatWaybar, FormatText, FormatGTFS:
		*f = Format(s)
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Envelope is the JSON object read by Waybar's custom modules.
type Envelope struct {
	Text    string `json:"text"`
	Tooltip string `json:"tooltip"`
	Class   string `json:"class"`
}

func NewEnvelope(s journey.Status) Envelope {
	return Envelope{
		Text:    s.Text(),
		Tooltip: s.Tooltip(),
		Class:   "provider-" + s.Provider,
	}
}

func (e Envelope) DumpJSON(w io.Writer, humanReadable bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if humanReadable {
		enc.SetIndent("", "\t")
	}
	return enc.Encode(e)
}

// Write writes the status in the given format. A nil status is written
// as an empty line (or an empty feed), which hides the Waybar module.
func Write(w io.Writer, f Format, s *journey.Status, now time.Time, humanReadable bool) error {
	switch f {
	case FormatGTFS:
		return DumpGTFS(w, Feed(s, now), humanReadable)

	case FormatText:
		if s == nil {
			_, err := io.WriteString(w, "\n")
			return err
		}
		return writeText(w, *s)

	case FormatWaybar, "":
		if s == nil {
			_, err := io.WriteString(w, "\n")
			return err
		}
		return NewEnvelope(*s).DumpJSON(w, humanReadable)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

func writeText(w io.Writer, s journey.Status) error {
	var b strings.Builder
	b.WriteString(s.Text())
	b.WriteByte('\n')
	if tooltip := s.Tooltip(); tooltip != "" {
		b.WriteString(tooltip)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
