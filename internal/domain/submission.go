// Package domain defines the submission model and the error taxonomy shared
// by the storage, service, and HTTP layers.
package domain

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// AnonymityMode is the caller's chosen disclosure level.
type AnonymityMode string

const (
	// Revealed publishes the caller's display name with the submission.
	Revealed AnonymityMode = "revealed"
	// Hidden stores no name at all.
	Hidden AnonymityMode = "hidden"
	// Pseudonymous stores a fixed placeholder label instead of a name.
	Pseudonymous AnonymityMode = "pseudonymous"
)

// Wire values of the anon form field.
const (
	AnonYes      = "yes"
	AnonNo       = "no"
	AnonAxolotl  = "axolotl"
	DefaultLabel = "an axolotl"
)

// AcceptedAnonValues lists the anon form values in the order shown to callers.
var AcceptedAnonValues = []string{AnonYes, AnonNo, AnonAxolotl}

// Identity is the caller identity resolved by the fronting login layer.
type Identity struct {
	DisplayName   string
	Authenticated bool
}

// Attachment is an uploaded file as handed over by the transport layer. The
// original filename only seeds the stored name; it is never used as a path.
type Attachment struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// Submission is one persisted report. It is immutable once stored.
//
// Fields:
//   - Type / Origin: caller-supplied category and context label.
//   - Mode: resolved anonymity mode.
//   - DisplayName: nil when Mode is Hidden.
//   - Text: report body, may be empty when an attachment exists.
//   - Timestamp: UTC epoch seconds assigned at persistence time.
//   - AttachmentRef: basename in the upload area, nil when no file was sent.
//   - RecordRef: basename of the record's own file in the submission area.
type Submission struct {
	Type          string
	Origin        string
	Mode          AnonymityMode
	DisplayName   *string
	Text          string
	Timestamp     int64
	AttachmentRef *string
	RecordRef     *string
}

// submissionJSON is the persisted layout. Key names are part of the on-disk
// format and must not change.
type submissionJSON struct {
	Type     string        `json:"type"`
	Origin   string        `json:"origin"`
	AnonMode AnonymityMode `json:"anon_mode,omitempty"`
	Uname    *string       `json:"uname"`
	TS       string        `json:"ts"`
	Text     string        `json:"text"`
	File     *string       `json:"file"`
	Sub      *string       `json:"sub"`
}

// Time returns the submission timestamp as a time.Time in UTC.
func (s *Submission) Time() time.Time { return time.Unix(s.Timestamp, 0).UTC() }

// MarshalJSON encodes the submission in its persisted layout.
func (s Submission) MarshalJSON() ([]byte, error) {
	uname := s.DisplayName
	if s.Mode == Hidden {
		uname = nil
	}
	return json.Marshal(submissionJSON{
		Type:     s.Type,
		Origin:   s.Origin,
		AnonMode: s.Mode,
		Uname:    uname,
		TS:       strconv.FormatInt(s.Timestamp, 10),
		Text:     s.Text,
		File:     s.AttachmentRef,
		Sub:      s.RecordRef,
	})
}

// UnmarshalJSON decodes the persisted layout. Records written without an
// anon_mode key get their mode inferred from uname.
func (s *Submission) UnmarshalJSON(b []byte) error {
	var raw submissionJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	ts, err := strconv.ParseInt(raw.TS, 10, 64)
	if err != nil {
		return fmt.Errorf("parse ts %q: %w", raw.TS, err)
	}
	mode := raw.AnonMode
	if mode == "" {
		switch {
		case raw.Uname == nil:
			mode = Hidden
		case *raw.Uname == DefaultLabel:
			mode = Pseudonymous
		default:
			mode = Revealed
		}
	}
	*s = Submission{
		Type:          raw.Type,
		Origin:        raw.Origin,
		Mode:          mode,
		DisplayName:   raw.Uname,
		Text:          raw.Text,
		Timestamp:     ts,
		AttachmentRef: raw.File,
		RecordRef:     raw.Sub,
	}
	if mode == Hidden {
		s.DisplayName = nil
	}
	return nil
}
