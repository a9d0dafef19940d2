// Package extract turns debuggee expressions into geometry values. It
// resolves loaders through a registry, bounds every load with a timeout and
// reports traits conflicts between values drawn together.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coral-mesh/geoinspect/pkg/debugger"
	"github.com/coral-mesh/geoinspect/pkg/geometry"
	"github.com/coral-mesh/geoinspect/pkg/loader"
	"github.com/coral-mesh/geoinspect/pkg/loader/container"
	"github.com/coral-mesh/geoinspect/pkg/loader/shapes"
)

var (
	// ErrInvalidExpression means a sub-expression did not evaluate.
	ErrInvalidExpression = errors.New("invalid expression")

	// ErrUnsupportedCoordinateSystem means the value was loaded but its
	// coordinate system cannot be drawn.
	ErrUnsupportedCoordinateSystem = errors.New("unsupported coordinate system")

	// ErrTraitsMismatch means values drawn together disagree on dimension,
	// coordinate system or unit.
	ErrTraitsMismatch = errors.New("traits mismatch")

	// ErrUnsupportedDimension means coordinates were zipped into points
	// that are neither 2-D nor 3-D.
	ErrUnsupportedDimension = errors.New("unsupported dimension")
)

// Options configure an Extractor.
type Options struct {
	// Timeout bounds one load. Zero disables the bound.
	Timeout time.Duration
	// Separator splits a name into coordinate sub-expressions.
	Separator string
	Loader    loader.Options
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Timeout:   5 * time.Second,
		Separator: ";",
		Loader:    loader.DefaultOptions(),
	}
}

// Result is one extracted value.
type Result struct {
	Name   string
	Kind   geometry.Kind
	Traits geometry.Traits
	Value  geometry.Drawable
	// Generation identifies the debuggee stop the value was read in.
	Generation uuid.UUID
	Duration   time.Duration
}

// NewRegistry returns a registry holding every built-in creator.
func NewRegistry(logger zerolog.Logger, capacity int) *loader.Registry {
	r := loader.NewRegistry(logger, capacity)
	container.Register(r)
	shapes.Register(r)
	return r
}

// Extractor loads values from one debugger.
type Extractor struct {
	registry *loader.Registry
	opts     Options
	env      *loader.Env
	logger   zerolog.Logger
}

// New returns an Extractor reading d through the loaders of r.
func New(d debugger.Debugger, r *loader.Registry, opts Options, logger zerolog.Logger) *Extractor {
	if opts.Separator == "" {
		opts.Separator = DefaultOptions().Separator
	}
	logger = logger.With().Str("component", "extractor").Logger()
	return &Extractor{
		registry: r,
		opts:     opts,
		env:      loader.NewEnv(d, r, opts.Loader, logger),
		logger:   logger,
	}
}

// Registry returns the registry loaders are resolved from.
func (e *Extractor) Registry() *loader.Registry {
	return e.registry
}

// Invalidate drops every cached loader. Call it each time the debuggee
// stops.
func (e *Extractor) Invalidate() {
	e.registry.Invalidate()
}

// Load extracts the value named by name among the allowed kinds. A name
// holding several sub-expressions joined by the separator loads each as a
// sequence of numbers and zips them into a multi-point.
func (e *Extractor) Load(ctx context.Context, name string, kinds loader.KindSet) (*Result, error) {
	start := time.Now()
	gen := e.registry.Generation()
	log := e.logger.With().Str("name", name).Str("generation", gen.String()).Logger()

	res, err := e.load(ctx, name, kinds)
	if err != nil {
		log.Warn().Err(err).Dur("duration", time.Since(start)).Msg("Load failed")
		return nil, err
	}
	res.Generation = gen
	res.Duration = time.Since(start)
	log.Debug().
		Stringer("kind", res.Kind).
		Bool("memory", e.env.MemoryEnabled()).
		Dur("duration", res.Duration).
		Msg("Value loaded")
	return res, nil
}

func (e *Extractor) load(ctx context.Context, name string, kinds loader.KindSet) (*Result, error) {
	parts, err := e.split(name)
	if err != nil {
		return nil, err
	}
	for _, p := range parts {
		if v := e.env.Debugger.Evaluate(p); !v.Valid {
			return nil, fmt.Errorf("%w: %q", ErrInvalidExpression, p)
		}
	}

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	env := e.env.WithToken(loader.NewToken(ctx, nil))

	if len(parts) > 1 {
		if !kinds.Has(geometry.KindMultiPoint) {
			return nil, fmt.Errorf("%w: coordinates of %q (kinds %s)", loader.ErrNotFound, name, kinds)
		}
		return zipCoordinates(env, parts, e.opts.Separator)
	}
	return loadOne(env, parts[0], kinds)
}

// split returns the sub-expressions of name, each made safe to extend with
// member accesses.
func (e *Extractor) split(name string) ([]string, error) {
	var parts []string
	for _, p := range strings.Split(name, e.opts.Separator) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, wrap(p))
		}
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidExpression)
	}
	return parts, nil
}

// wrap parenthesizes expressions that are not a chain of postfix accesses.
func wrap(expr string) string {
	plain := strings.ReplaceAll(expr, "->", ".")
	for _, c := range plain {
		switch {
		case c == '_' || c == '.' || c == '[' || c == ']':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		default:
			return "(" + expr + ")"
		}
	}
	return expr
}

func loadOne(env *loader.Env, name string, kinds loader.KindSet) (*Result, error) {
	typ, err := env.TypeOf(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}
	l, err := env.Find(kinds, name, typ)
	if err != nil {
		return nil, err
	}
	vl, ok := l.(loader.ValueLoader)
	if !ok {
		return nil, fmt.Errorf("%w: %s holds no value", loader.ErrNotFound, typ)
	}

	res := &Result{Name: name, Kind: l.Kind()}
	if gl, ok := vl.(loader.GeometryLoader); ok {
		if res.Traits, err = gl.Traits(env, name); err != nil {
			return nil, err
		}
		if res.Traits.System == geometry.SphericalPolar {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedCoordinateSystem, res.Traits)
		}
	}
	if res.Value, err = vl.Load(env, name); err != nil {
		return nil, err
	}
	return res, nil
}

// CheckTraits returns the traits shared by results drawn together. Results
// without traits are ignored.
func CheckTraits(results ...*Result) (geometry.Traits, error) {
	var common geometry.Traits
	for _, r := range results {
		if r == nil || r.Traits.IsZero() {
			continue
		}
		if common.IsZero() {
			common = r.Traits
			continue
		}
		if r.Traits != common {
			return geometry.Traits{}, fmt.Errorf("%w: %s is %s, expected %s", ErrTraitsMismatch, r.Name, r.Traits, common)
		}
	}
	return common, nil
}

// LoadAll loads every name and checks their traits agree.
func (e *Extractor) LoadAll(ctx context.Context, names []string, kinds loader.KindSet) ([]*Result, geometry.Traits, error) {
	results := make([]*Result, 0, len(names))
	for _, n := range names {
		r, err := e.Load(ctx, n, kinds)
		if err != nil {
			return nil, geometry.Traits{}, fmt.Errorf("%s: %w", n, err)
		}
		results = append(results, r)
	}
	traits, err := CheckTraits(results...)
	if err != nil {
		return nil, geometry.Traits{}, err
	}
	return results, traits, nil
}
