package shapes

import (
	"github.com/coral-mesh/geoinspect/pkg/converter"
	"github.com/coral-mesh/geoinspect/pkg/geometry"
	"github.com/coral-mesh/geoinspect/pkg/loader"
	"github.com/coral-mesh/geoinspect/pkg/typeid"
)

// Values loads a container of arithmetic values.
type Values struct {
	cont loader.Container
	conv converter.Converter[float64]
}

var _ loader.ValueLoader = (*Values)(nil)

// NewValues returns the loader of a container of arithmetic elements of
// type elemType.
func NewValues(env *loader.Env, cont loader.Container, elemType string) *Values {
	return &Values{cont: cont, conv: scalar(env, elemType)}
}

func createValues(env *loader.Env, t loader.Target) (loader.Loader, error) {
	cont, err := findContainer(env, t.Name, "")
	if err != nil {
		return notFound(err)
	}
	_, elemType, err := cont.ElementInfo(env, t.Name)
	if err != nil {
		return nil, err
	}
	if !converter.IsArithmetic(typeid.Normalize(elemType)) {
		return nil, nil
	}
	return NewValues(env, cont, elemType), nil
}

func (v *Values) Kind() geometry.Kind { return geometry.KindValuesContainer }

func (v *Values) Load(env *loader.Env, name string) (geometry.Drawable, error) {
	values, err := loader.LoadValues(env, v.cont, name, v.conv)
	if err != nil {
		return nil, err
	}
	return geometry.Values(values), nil
}

const turnInfo = "boost::geometry::detail::overlay::turn_info"

// Turn method and operation codes rendered as characters, indexed by the
// enumerator values of Boost.Geometry overlay.
var (
	turnMethods    = []byte{'-', 'd', 'i', 't', 'm', 'c', 'e', '!'}
	turnOperations = []byte{'-', 'u', 'i', 'x', 'c', 'o'}
)

func turnCode(codes []byte, v int64) byte {
	if v < 0 || v >= int64(len(codes)) {
		return '?'
	}
	return codes[v]
}

var turnMembers = []string{".method", ".operations.elems[0].operation", ".operations.elems[1].operation"}

// Turns loads a container of overlay turn_info values.
type Turns struct {
	cont  loader.Container
	point loader.GeometryLoader
	conv  converter.Converter[float64]
}

var _ loader.GeometryLoader = (*Turns)(nil)

func createTurns(env *loader.Env, t loader.Target) (loader.Loader, error) {
	cont, err := findContainer(env, t.Name, "")
	if err != nil {
		return notFound(err)
	}
	elemName, elemType, err := cont.ElementInfo(env, t.Name)
	if err != nil {
		return nil, err
	}
	if typeid.Name(elemType) != turnInfo {
		return nil, nil
	}
	point, err := findGeometry(env, loader.KindsOf(geometry.KindPoint), elemName, ".point")
	if err != nil {
		return nil, err
	}
	parts := []part{{".point", memoryConv(point)}}
	for _, m := range turnMembers {
		typ, err := env.TypeOf(elemName + m)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part{m, scalar(env, typ)})
	}
	return &Turns{cont: cont, point: point, conv: structConv(env, elemName, elemType, parts...)}, nil
}

func (ts *Turns) Kind() geometry.Kind { return geometry.KindTurnsContainer }

func (ts *Turns) Traits(env *loader.Env, name string) (geometry.Traits, error) {
	elemName, _, err := ts.cont.ElementInfo(env, name)
	if err != nil {
		return geometry.Traits{}, err
	}
	return ts.point.Traits(env, elemName+".point")
}

func newTurn(pt geometry.Point, method, op0, op1 int64) geometry.Turn {
	return geometry.Turn{
		Point:      pt,
		Method:     turnCode(turnMethods, method),
		Operations: [2]byte{turnCode(turnOperations, op0), turnCode(turnOperations, op1)},
	}
}

func (ts *Turns) Load(env *loader.Env, name string) (geometry.Drawable, error) {
	var memory func() (geometry.Turns, error)
	if ts.conv != nil {
		memory = func() (geometry.Turns, error) {
			n := ts.conv.ValueCount()
			dim := n - len(turnMembers)
			var out geometry.Turns
			err := loader.ForEachMemoryBlock(env, ts.cont, name, ts.conv, func(values []float64) error {
				for i := 0; i+n <= len(values); i += n {
					if err := env.Check(); err != nil {
						return err
					}
					v := values[i : i+n]
					pt := geometry.Point(append([]float64(nil), v[:dim]...))
					out = append(out, newTurn(pt, int64(v[dim]), int64(v[dim+1]), int64(v[dim+2])))
				}
				return nil
			})
			return out, err
		}
	}
	turns, err := loader.WithFallback(env, memory, func() (geometry.Turns, error) {
		var out geometry.Turns
		err := ts.cont.ForEachElement(env, name, func(elem string) error {
			if err := env.Check(); err != nil {
				return err
			}
			pt, err := loadPoint(env, ts.point, elem+".point")
			if err != nil {
				return err
			}
			var codes [3]int64
			for i, m := range turnMembers {
				if codes[i], err = env.EvalInt(elem + m); err != nil {
					return err
				}
			}
			out = append(out, newTurn(pt, codes[0], codes[1], codes[2]))
			return nil
		})
		return out, err
	})
	if err != nil {
		return nil, err
	}
	return turns, nil
}
