// Package emit renders a target.Model as one Go source file that loads the
// C library at run time through purego.
package emit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/tools/imports"

	"github.com/teranos/cbindgen/errors"
	"github.com/teranos/cbindgen/logger"
	"github.com/teranos/cbindgen/target"
)

// Options describes the file being generated
type Options struct {
	Package string
	GOOS    string
	GOARCH  string
}

// Emitter renders Go bindings
type Emitter struct {
	opts   Options
	logger *zap.SugaredLogger
}

// New creates an Emitter
func New(opts Options, log *zap.SugaredLogger) *Emitter {
	if opts.Package == "" {
		opts.Package = "bindings"
	}
	return &Emitter{opts: opts, logger: logger.OrNop(log)}
}

// BuildConstraint returns the //go:build expression for the platform, or ""
func (e *Emitter) BuildConstraint() string {
	var parts []string
	if e.opts.GOOS != "" {
		parts = append(parts, e.opts.GOOS)
	}
	if e.opts.GOARCH != "" {
		parts = append(parts, e.opts.GOARCH)
	}
	return strings.Join(parts, " && ")
}

func (e *Emitter) windows() bool {
	return e.opts.GOOS == "windows"
}

// Render produces gofmt'ed source for m. Identical input yields identical bytes.
func (e *Emitter) Render(m *target.Model) ([]byte, error) {
	var sb strings.Builder

	sb.WriteString("// Code generated by cbindgen. DO NOT EDIT.\n")
	if m.Header != "" {
		sb.WriteString(fmt.Sprintf("// Source: %s (%s)\n", m.Header, m.Platform))
	}
	sb.WriteString("\n")
	if c := e.BuildConstraint(); c != "" {
		sb.WriteString("//go:build " + c + "\n\n")
	}
	sb.WriteString("package " + e.opts.Package + "\n\n")

	sb.WriteString("import (\n")
	if e.windows() {
		sb.WriteString("\t\"syscall\"\n")
	}
	sb.WriteString("\t\"unsafe\"\n")
	// Windows loads through syscall; purego is only needed to register functions
	if !e.windows() || len(m.Functions) > 0 {
		sb.WriteString("\n\t\"github.com/ebitengine/purego\"\n")
	}
	sb.WriteString(")\n\n")

	writeHelpers(&sb)
	writeConstants(&sb, m)
	writeEnums(&sb, m)
	writeAliases(&sb, m)
	writeOpaques(&sb, m)
	writeFunctionPointers(&sb, m)
	writeArrays(&sb, m)
	writeStructs(&sb, m)
	writeVariables(&sb, m)
	writeFunctions(&sb, m)
	e.writeLoad(&sb, m)

	src := []byte(sb.String())
	out, err := imports.Process(e.opts.Package+".go", src, &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, errors.WithDetail(errors.Wrap(err, "formatting generated source"), string(src))
	}
	return out, nil
}

// WriteFile renders m into path, creating parent directories
func (e *Emitter) WriteFile(path string, m *target.Model) error {
	src, err := e.Render(m)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	e.logger.Infow("wrote bindings", logger.FieldOutput, path, logger.FieldPlatform, m.Platform, logger.FieldCount, len(src))
	return nil
}

func writeHelpers(sb *strings.Builder) {
	sb.WriteString("// CString is a pointer to a NUL-terminated C string\n")
	sb.WriteString("type CString *byte\n\n")
	sb.WriteString("// WString is a pointer to a NUL-terminated wide C string\n")
	sb.WriteString("type WString unsafe.Pointer\n\n")
}

func (e *Emitter) writeLoad(sb *strings.Builder, m *target.Model) {
	sb.WriteString("// Load opens the shared library at path and binds every symbol.\n")
	sb.WriteString("// It returns the library handle.\n")
	sb.WriteString("func Load(path string) (uintptr, error) {\n")
	if e.windows() {
		sb.WriteString("\th, err := syscall.LoadLibrary(path)\n")
		sb.WriteString("\tif err != nil {\n\t\treturn 0, err\n\t}\n")
		sb.WriteString("\tlib := uintptr(h)\n")
	} else {
		sb.WriteString("\tlib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)\n")
		sb.WriteString("\tif err != nil {\n\t\treturn 0, err\n\t}\n")
	}
	for _, f := range m.Functions {
		sb.WriteString(fmt.Sprintf("\tpurego.RegisterLibFunc(&%s, lib, %q)\n", f.Name, f.CName))
	}
	for _, v := range m.Variables {
		if e.windows() {
			sb.WriteString(fmt.Sprintf("\tif sym, err := syscall.GetProcAddress(syscall.Handle(lib), %q); err == nil {\n", v.CName))
		} else {
			sb.WriteString(fmt.Sprintf("\tif sym, err := purego.Dlsym(lib, %q); err == nil {\n", v.CName))
		}
		sb.WriteString(fmt.Sprintf("\t\t%s = (*%s)(unsafe.Pointer(sym))\n\t}\n", v.Name, v.Type))
	}
	sb.WriteString("\treturn lib, nil\n}\n")
}
