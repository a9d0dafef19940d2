package loader

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/geoinspect/pkg/debugger/sim"
	"github.com/coral-mesh/geoinspect/pkg/geometry"
)

type stubLoader struct {
	kind geometry.Kind
	tag  string
}

func (l *stubLoader) Kind() geometry.Kind { return l.kind }

// countingCreator accepts types with the given qualified name.
func countingCreator(name string, kind geometry.Kind, match string, calls *int) Creator {
	return NewCreator(name, kind, func(env *Env, t Target) (Loader, error) {
		*calls++
		if !t.ID.Is(match) {
			return nil, nil
		}
		return &stubLoader{kind: kind, tag: name}, nil
	})
}

func newTestEnv(t *testing.T) (*Env, *Registry) {
	t.Helper()
	r := NewRegistry(zerolog.Nop(), 0)
	return NewEnv(sim.New(), r, DefaultOptions(), zerolog.Nop()), r
}

func TestRegistryFirstMatchWins(t *testing.T) {
	env, r := newTestEnv(t)
	var a, b int
	r.Register(countingCreator("first", geometry.KindBox, "my::box", &a))
	r.Register(countingCreator("second", geometry.KindBox, "my::box", &b))

	l, err := r.Find(env, AllKinds, "b", "my::box<double>")
	require.NoError(t, err)
	assert.Equal(t, "first", l.(*stubLoader).tag)
	assert.Equal(t, 1, a)
	assert.Equal(t, 0, b)
}

func TestRegistryPrependShadows(t *testing.T) {
	env, r := newTestEnv(t)
	var lib, user int
	r.Register(countingCreator("library", geometry.KindPoint, "my::point", &lib))
	r.Prepend(countingCreator("user", geometry.KindPoint, "my::point", &user))

	assert.Equal(t, []string{"user", "library"}, r.Creators(geometry.KindPoint))
	l, err := r.Find(env, AllKinds, "p", "my::point")
	require.NoError(t, err)
	assert.Equal(t, "user", l.(*stubLoader).tag)
	assert.Equal(t, 0, lib)
}

func TestRegistryKindOrderAndConstraint(t *testing.T) {
	env, r := newTestEnv(t)
	var values, container int
	r.Register(countingCreator("container", geometry.KindContainer, "std::vector", &container))
	r.Register(countingCreator("values", geometry.KindValuesContainer, "std::vector", &values))

	l, err := r.Find(env, AllKinds, "v", "std::vector<double>")
	require.NoError(t, err)
	assert.Equal(t, geometry.KindValuesContainer, l.Kind())

	l, err = r.Find(env, ContainerKinds, "v", "std::vector<double>")
	require.NoError(t, err)
	assert.Equal(t, geometry.KindContainer, l.Kind())

	_, err = r.Find(env, GeometryKinds, "v", "std::vector<double>")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistryCacheIdempotence(t *testing.T) {
	env, r := newTestEnv(t)
	var calls int
	r.Register(countingCreator("box", geometry.KindBox, "my::box", &calls))

	first, err := r.Find(env, AllKinds, "b", "my::box")
	require.NoError(t, err)
	second, err := r.Find(env, AllKinds, "other", "my::box")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, r.Cached())

	gen := r.Generation()
	r.Invalidate()
	assert.NotEqual(t, gen, r.Generation())
	assert.Equal(t, 0, r.Cached())

	third, err := r.Find(env, AllKinds, "b", "my::box")
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, calls)
}

func TestRegistryCachedKindMustBeAllowed(t *testing.T) {
	env, r := newTestEnv(t)
	var calls int
	r.Register(countingCreator("box", geometry.KindBox, "my::box", &calls))

	_, err := r.Find(env, AllKinds, "b", "my::box")
	require.NoError(t, err)
	_, err = r.Find(env, KindsOf(geometry.KindPoint), "b", "my::box")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistryCreatorErrorIsNotFound(t *testing.T) {
	env, r := newTestEnv(t)
	r.Register(NewCreator("broken", geometry.KindPoint, func(env *Env, t Target) (Loader, error) {
		return nil, errors.New("sub-loader missing")
	}))
	var calls int
	r.Register(countingCreator("fallback", geometry.KindPoint, "p", &calls))

	l, err := r.Find(env, AllKinds, "x", "p")
	require.NoError(t, err)
	assert.Equal(t, "fallback", l.(*stubLoader).tag)

	_, err = r.Find(env, AllKinds, "x", "q")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKindSet(t *testing.T) {
	s := KindsOf(geometry.KindBox, geometry.KindPoint)
	assert.True(t, s.Has(geometry.KindPoint))
	assert.False(t, s.Has(geometry.KindRing))
	assert.False(t, s.Has(geometry.Kind(-1)))
	assert.Equal(t, []geometry.Kind{geometry.KindPoint, geometry.KindBox}, s.Kinds())
	assert.Equal(t, "{Point,Box}", s.String())

	assert.True(t, GeometryKinds.Has(geometry.KindMultiPolygon))
	assert.False(t, GeometryKinds.Has(geometry.KindGeometriesContainer))
	assert.False(t, ElementKinds.Has(geometry.KindValuesContainer))
	assert.False(t, ElementKinds.Has(geometry.KindGeometriesContainer))
	assert.True(t, ElementKinds.Has(geometry.KindVariant))
	assert.False(t, DrawableKinds.Has(geometry.KindContainer))
	assert.Len(t, AllKinds.Kinds(), geometry.KindCount)
}

func TestLoaderCacheEviction(t *testing.T) {
	c := newLoaderCache(2)
	for i := 0; i < 3; i++ {
		c.put(fmt.Sprintf("t%d", i), &stubLoader{kind: geometry.KindPoint})
	}
	assert.Equal(t, 2, c.len())
	_, ok := c.get("t0", AllKinds)
	assert.False(t, ok)
	_, ok = c.get("t2", AllKinds)
	assert.True(t, ok)

	c.put("t2", &stubLoader{kind: geometry.KindBox})
	l, ok := c.get("t2", KindsOf(geometry.KindBox, geometry.KindPoint))
	require.True(t, ok)
	assert.Equal(t, geometry.KindPoint, l.Kind())
	l, ok = c.get("t2", KindsOf(geometry.KindBox))
	require.True(t, ok)
	assert.Equal(t, geometry.KindBox, l.Kind())

	c.clear()
	assert.Equal(t, 0, c.len())
}
