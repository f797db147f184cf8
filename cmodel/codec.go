package cmodel

import (
	"encoding/json"
	"io"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/cbindgen/errors"
)

// FormatVersion is the version written into every bundle
const FormatVersion = "1.0.0"

// formatConstraint accepts every bundle this build can read
const formatConstraint = "^1"

// Bundle carries the per-platform models extracted from one header
type Bundle struct {
	FormatVersion string   `json:"format_version"`
	Header        string   `json:"header"`
	Models        []*Model `json:"models"`
}

// NewBundle creates a bundle stamped with the current format version
func NewBundle(header string, models ...*Model) *Bundle {
	return &Bundle{FormatVersion: FormatVersion, Header: header, Models: models}
}

// Model returns the model for platform
func (b *Bundle) Model(platform string) (*Model, bool) {
	for _, m := range b.Models {
		if m.Platform == platform {
			return m, true
		}
	}
	return nil, false
}

// Encode writes b as indented JSON
func Encode(w io.Writer, b *Bundle) error {
	if b.FormatVersion == "" {
		b.FormatVersion = FormatVersion
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return errors.Wrap(err, "failed to encode model bundle")
	}
	return nil
}

// Decode reads a bundle and rejects incompatible format versions
func Decode(r io.Reader) (*Bundle, error) {
	var b Bundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, errors.Wrap(err, "failed to decode model bundle")
	}
	if err := checkFormat(b.FormatVersion); err != nil {
		return nil, err
	}
	return &b, nil
}

func checkFormat(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return errors.Wrapf(err, "invalid bundle format version %q", version)
	}
	c, err := semver.NewConstraint(formatConstraint)
	if err != nil {
		return errors.Wrap(err, "invalid format constraint")
	}
	if !c.Check(v) {
		return errors.WithHintf(
			errors.Newf("bundle format %s is not compatible with %s", v, FormatVersion),
			"re-run extraction with this version of cbindgen",
		)
	}
	return nil
}
