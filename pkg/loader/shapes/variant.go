package shapes

import (
	"fmt"

	"github.com/coral-mesh/geoinspect/pkg/geometry"
	"github.com/coral-mesh/geoinspect/pkg/loader"
)

// Variant loads a boost::variant by dispatching on its discriminant to the
// loader of the active alternative.
type Variant struct {
	types []string
	// alts[i] is nil when alternative i has no loader.
	alts []loader.ValueLoader
}

var _ loader.GeometryLoader = (*Variant)(nil)

func createVariant(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("boost::variant") {
		return nil, nil
	}
	v := &Variant{types: t.ID.Args, alts: make([]loader.ValueLoader, len(t.ID.Args))}
	resolved := 0
	for i, typ := range v.types {
		l, err := env.Find(loader.ElementKinds, alternative(typ, t.Name), typ)
		if err != nil {
			env.Log.Debug().Err(err).Str("alternative", typ).Msg("Variant alternative not loadable")
			continue
		}
		if vl, ok := l.(loader.ValueLoader); ok {
			v.alts[i] = vl
			resolved++
		}
	}
	if resolved == 0 {
		return nil, nil
	}
	return v, nil
}

// alternative views the storage of a variant as its alternative typ.
func alternative(typ, name string) string {
	return fmt.Sprintf("(*((%s*)(&%s.storage_)))", typ, name)
}

// backup views the storage of a variant as a backup_holder of typ, which
// owns a heap copy of the value through a single pointer.
func backup(typ, name string) string {
	return fmt.Sprintf("(**((%s**)(&%s.storage_)))", typ, name)
}

func (v *Variant) Kind() geometry.Kind { return geometry.KindVariant }

// active returns the loader and expression of the alternative held by name.
func (v *Variant) active(env *loader.Env, name string) (loader.ValueLoader, string, error) {
	which, err := env.EvalInt(name + ".which_")
	if err != nil {
		return nil, "", err
	}
	view := alternative
	// A negative discriminant marks a heap backup of alternative ^which.
	if which < 0 {
		which = ^which
		view = backup
	}
	if which >= int64(len(v.alts)) {
		return nil, "", loader.Failf("%s holds alternative %d of %d", name, which, len(v.alts))
	}
	l := v.alts[which]
	if l == nil {
		return nil, "", loader.Failf("%s holds %s which cannot be loaded", name, v.types[which])
	}
	return l, view(v.types[which], name), nil
}

func (v *Variant) Traits(env *loader.Env, name string) (geometry.Traits, error) {
	l, expr, err := v.active(env, name)
	if err != nil {
		return geometry.Traits{}, err
	}
	if gl, ok := l.(loader.GeometryLoader); ok {
		return gl.Traits(env, expr)
	}
	return geometry.Traits{}, nil
}

func (v *Variant) Load(env *loader.Env, name string) (geometry.Drawable, error) {
	l, expr, err := v.active(env, name)
	if err != nil {
		return nil, err
	}
	return l.Load(env, expr)
}
