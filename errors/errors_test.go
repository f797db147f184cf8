package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrapf(ErrUnknownKind, "type %q has kind %s", "_Complex float", "Complex")

	assert.True(t, Is(err, ErrUnknownKind))
	assert.False(t, Is(err, ErrTypeNotFound))
	assert.Contains(t, err.Error(), "_Complex float")
	assert.Contains(t, err.Error(), "unknown C kind")
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "unknown kind", err: Wrap(ErrUnknownKind, "classify"), want: true},
		{name: "registry miss", err: Wrap(ErrTypeNotFound, "lookup"), want: true},
		{name: "calling convention", err: Wrap(ErrCallingConvention, "func"), want: true},
		{name: "parse", err: Wrap(ErrParse, "header.h"), want: true},
		{name: "assertion", err: AssertionFailedf("frontier corrupted"), want: true},
		{name: "config", err: NewInvalidConfigError("workers must be >= 1"), want: false},
		{name: "plain", err: New("io"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFatal(tt.err))
		})
	}
}

func TestNewInvalidConfigError(t *testing.T) {
	err := NewInvalidConfigError("platform %q missing goarch", "linux")

	require.Error(t, err)
	assert.True(t, Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), `platform "linux" missing goarch`)
}

func TestAssertionWrapsSentinel(t *testing.T) {
	err := NewAssertionErrorWithWrappedErrf(ErrTypeNotFound, "lookup %q", "struct S")

	assert.True(t, HasAssertionFailure(err))
	assert.True(t, Is(err, ErrTypeNotFound))
}

func TestWithHint(t *testing.T) {
	err := WithHint(Wrap(ErrParse, "foo.h"), "check the include paths passed with -I")

	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Equal(t, "check the include paths passed with -I", hints[0])
}

func TestStackTrace(t *testing.T) {
	err := New("with stack")

	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "errors_test.go")
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
	assert.Nil(t, WithStack(nil))
	assert.Nil(t, WithHint(nil, "hint"))
	assert.Nil(t, WithDetail(nil, "detail"))
}

func ExampleWrap() {
	err := Wrap(ErrParse, "include/foo.h")
	fmt.Println(err)
	// Output: include/foo.h: parse failed
}
