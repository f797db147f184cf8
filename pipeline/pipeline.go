// Package pipeline drives extraction, mapping and emission for every target
// platform of a header. Platforms run in parallel and never share state: each
// gets its own translation unit, registry, diagnostic sink and mapper memo.
package pipeline

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/cbindgen/cmodel"
	"github.com/teranos/cbindgen/diag"
	"github.com/teranos/cbindgen/emit"
	"github.com/teranos/cbindgen/errors"
	"github.com/teranos/cbindgen/explorer"
	"github.com/teranos/cbindgen/frontend"
	"github.com/teranos/cbindgen/logger"
	"github.com/teranos/cbindgen/mapper"
	"github.com/teranos/cbindgen/target"
)

// Platform is one compilation target
type Platform struct {
	Name   string
	Triple string
	GOOS   string
	GOARCH string
	// Args are extra front-end arguments for this platform only
	Args []string
	// SystemAliases extend the mapper's system type aliases
	SystemAliases map[string]string
}

// Stage selects how far a platform run goes
type Stage int

const (
	StageExtract Stage = iota // C model only
	StageMap                  // + Go code model
	StageEmit                 // + rendered source
)

// Request describes one run over all platforms
type Request struct {
	Header    string
	Platforms []Platform
	Explorer  explorer.Options
	Mapper    mapper.Options
	Package   string
	// OutputDir receives one file per platform when Stage is StageEmit. Empty
	// keeps the sources in memory.
	OutputDir string
	Stage     Stage
	// Workers bounds parallel platforms; zero means GOMAXPROCS
	Workers int
}

// PlatformResult is the outcome of one platform. Err is set when the
// platform failed; the other fields hold whatever was produced before that.
type PlatformResult struct {
	Platform    Platform
	CModel      *cmodel.Model
	Target      *target.Model
	Source      []byte
	Output      string
	Diagnostics []diag.Diagnostic
	Duration    time.Duration
	Err         error
}

// Runner executes requests against a front-end
type Runner struct {
	parser frontend.Parser
	logger *zap.SugaredLogger
}

// New creates a Runner
func New(parser frontend.Parser, log *zap.SugaredLogger) *Runner {
	return &Runner{parser: parser, logger: logger.OrNop(log)}
}

// Validate checks a request before any platform runs
func (req Request) Validate() error {
	if req.Header == "" {
		return errors.NewInvalidConfigError("header is required")
	}
	if len(req.Platforms) == 0 {
		return errors.NewInvalidConfigError("at least one platform is required")
	}
	seen := make(map[string]bool, len(req.Platforms))
	for _, p := range req.Platforms {
		if p.Name == "" {
			return errors.NewInvalidConfigError("platform name is empty")
		}
		if seen[p.Name] {
			return errors.NewInvalidConfigError("duplicate platform %q", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// Run executes every platform of req. Results come back in the order of
// req.Platforms. The returned error is only set for an invalid request;
// per-platform failures land in PlatformResult.Err.
func (r *Runner) Run(ctx context.Context, req Request) ([]PlatformResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	workers := req.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]PlatformResult, len(req.Platforms))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range req.Platforms {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = PlatformResult{Platform: p, Err: err}
				return nil
			}
			results[i] = r.runPlatform(req, p)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	r.logger.Infow("run complete",
		logger.FieldHeader, req.Header,
		"platforms", len(results),
		"failed", failed,
	)
	return results, nil
}

func (r *Runner) runPlatform(req Request, p Platform) (res PlatformResult) {
	res.Platform = p
	start := time.Now()
	log := logger.ChildLogger(r.logger, logger.FieldPlatform, p.Name)
	sink := diag.NewSink(p.Name)
	defer func() {
		res.Diagnostics = diag.Sorted(sink.Items())
		res.Duration = time.Since(start)
		if res.Err != nil {
			log.Warnw("platform failed", logger.FieldError, res.Err)
			return
		}
		log.Infow("platform done",
			logger.FieldDuration, res.Duration,
			logger.FieldCount, len(res.Diagnostics),
		)
	}()

	tu, err := r.parser.Parse(req.Header, frontend.Target{Triple: p.Triple, Args: p.Args})
	if err != nil {
		res.Err = errors.Wrapf(err, "platform %s", p.Name)
		return res
	}
	defer tu.Close()

	ex := explorer.New(tu, req.Explorer, sink, log.Named("explorer"))
	res.CModel, err = ex.Explore(p.Name, req.Header)
	if err != nil {
		res.Err = errors.Wrapf(err, "platform %s", p.Name)
		return res
	}
	if req.Stage < StageMap {
		return res
	}

	opts := req.Mapper.WithSystemAliases(p.SystemAliases)
	res.Target, err = mapper.New(opts, log.Named("mapper")).Map(res.CModel)
	if err != nil {
		res.Err = errors.Wrapf(err, "platform %s", p.Name)
		return res
	}
	if req.Stage < StageEmit {
		return res
	}

	em := emit.New(emit.Options{Package: req.Package, GOOS: p.GOOS, GOARCH: p.GOARCH}, log.Named("emit"))
	if req.OutputDir == "" {
		res.Source, err = em.Render(res.Target)
		if err != nil {
			res.Err = errors.Wrapf(err, "platform %s", p.Name)
		}
		return res
	}
	res.Output = OutputPath(req.OutputDir, req.Package, p)
	if err := em.WriteFile(res.Output, res.Target); err != nil {
		res.Err = errors.Wrapf(err, "platform %s", p.Name)
	}
	return res
}

// OutputPath names the generated file of platform p:
// <dir>/<package>_<goos>_<goarch>.go, or the platform name when GOOS is unset.
func OutputPath(dir, pkg string, p Platform) string {
	if pkg == "" {
		pkg = "bindings"
	}
	suffix := p.Name
	if p.GOOS != "" {
		suffix = p.GOOS
		if p.GOARCH != "" {
			suffix += "_" + p.GOARCH
		}
	}
	suffix = strings.NewReplacer("-", "_", "/", "_", " ", "_").Replace(suffix)
	return filepath.Join(dir, pkg+"_"+suffix+".go")
}

// Bundle collects the C models of successful results
func Bundle(header string, results []PlatformResult) *cmodel.Bundle {
	var models []*cmodel.Model
	for _, res := range results {
		if res.Err == nil && res.CModel != nil {
			models = append(models, res.CModel)
		}
	}
	return cmodel.NewBundle(header, models...)
}

// Diagnostics merges the diagnostics of all results, sorted
func Diagnostics(results []PlatformResult) []diag.Diagnostic {
	var all []diag.Diagnostic
	for _, res := range results {
		all = append(all, res.Diagnostics...)
	}
	return diag.Sorted(all)
}

// FirstError returns the first platform error in input order, or nil
func FirstError(results []PlatformResult) error {
	for _, res := range results {
		if res.Err != nil {
			return res.Err
		}
	}
	return nil
}
