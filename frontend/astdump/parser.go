// Package astdump is a front-end that reads a declarative YAML description
// of a C header instead of parsing C. Sizes, alignments and field offsets are
// computed from a C data model (ILP32, LP64, LLP64) chosen from the target
// triple, so one description yields platform-specific layouts.
package astdump

import (
	"bytes"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/teranos/cbindgen/errors"
	"github.com/teranos/cbindgen/frontend"
	"github.com/teranos/cbindgen/logger"
)

// Parser reads header descriptions from disk
type Parser struct {
	logger *zap.SugaredLogger
}

// New creates a Parser
func New(log *zap.SugaredLogger) *Parser {
	return &Parser{logger: logger.OrNop(log)}
}

// Parse implements frontend.Parser
func (p *Parser) Parse(header string, target frontend.Target) (frontend.TranslationUnit, error) {
	data, err := os.ReadFile(header)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to read %s", header), errors.ErrParse)
	}
	tu, err := Load(header, data, target)
	if err != nil {
		return nil, err
	}
	p.logger.Debugw("loaded header description",
		logger.FieldHeader, header,
		"triple", target.Triple,
		"data_model", tu.(*unit).dm.Name,
	)
	return tu, nil
}

// Load decodes a header description held in memory
func Load(name string, data []byte, target frontend.Target) (frontend.TranslationUnit, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to decode %s", name), errors.ErrParse)
	}
	if doc.File == "" {
		doc.File = name
	}

	dm := DataModelForTriple(target.Triple)
	if doc.DataModel != "" {
		named, ok := DataModelByName(doc.DataModel)
		if !ok {
			return nil, errors.Wrapf(errors.ErrParse, "%s: unknown data model %q", name, doc.DataModel)
		}
		named.CharSigned = dm.CharSigned
		dm = named
	}

	u, err := build(&doc, dm)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", name)
	}
	return u, nil
}
