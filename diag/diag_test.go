package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkStampsPlatform(t *testing.T) {
	s := NewSink("linux-amd64")
	s.Reportf(CodeVariadic, "printf", "stdio.h", 12, "variadic function %s skipped", "printf")
	s.Report(Diagnostic{Severity: SeverityInfo, Code: CodeExcluded, Platform: "other"})

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "linux-amd64", items[0].Platform)
	assert.Equal(t, SeverityWarning, items[0].Severity)
	assert.Equal(t, "other", items[1].Platform)
	assert.Equal(t, 1, s.Count(CodeVariadic))
	assert.Equal(t, 2, s.Len())
}

func TestHasErrors(t *testing.T) {
	s := NewSink("p")
	s.Reportf(CodeMacroEval, "X", "", 0, "bad")
	assert.False(t, s.HasErrors())

	s.Reportf(CodeIgnoredType, "struct hidden", "hidden.h", 3, "required type declared in ignored file")
	assert.True(t, s.HasErrors())
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Severity: SeverityWarning, Code: CodeBitField, Message: "record flags has bit-fields", File: "a.h", Line: 4}
	assert.Equal(t, "a.h:4: warning [bitfield] record flags has bit-fields", d.String())

	d.File = ""
	assert.Equal(t, "warning [bitfield] record flags has bit-fields", d.String())
}

func TestSorted(t *testing.T) {
	in := []Diagnostic{
		{Platform: "b", File: "x.h", Line: 1},
		{Platform: "a", File: "y.h", Line: 9},
		{Platform: "a", File: "y.h", Line: 2},
	}
	out := Sorted(in)
	assert.Equal(t, 2, out[0].Line)
	assert.Equal(t, 9, out[1].Line)
	assert.Equal(t, "b", out[2].Platform)
	assert.Equal(t, "b", in[0].Platform, "input must not be reordered")
}
