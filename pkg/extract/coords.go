package extract

import (
	"fmt"
	"strings"

	"github.com/coral-mesh/geoinspect/pkg/geometry"
	"github.com/coral-mesh/geoinspect/pkg/loader"
)

// zipCoordinates loads each part as a container of numbers and combines
// element i of every part into point i. Shorter parts are padded with zeros.
func zipCoordinates(env *loader.Env, parts []string, sep string) (*Result, error) {
	name := strings.Join(parts, sep)
	traits, err := geometry.NewTraits(len(parts), geometry.Cartesian, geometry.UnitNone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q has %d coordinates", ErrUnsupportedDimension, name, len(parts))
	}

	columns := make([][]float64, len(parts))
	rows := 0
	for i, p := range parts {
		values, err := loadValues(env, p)
		if err != nil {
			return nil, err
		}
		columns[i] = values
		rows = max(rows, len(values))
	}

	points := make(geometry.MultiPoint, rows)
	for r := range points {
		if err := env.Check(); err != nil {
			return nil, err
		}
		pt := make(geometry.Point, len(columns))
		for c, col := range columns {
			if r < len(col) {
				pt[c] = col[r]
			}
		}
		points[r] = pt
	}
	return &Result{
		Name:   name,
		Kind:   geometry.KindMultiPoint,
		Traits: traits,
		Value:  points,
	}, nil
}

func loadValues(env *loader.Env, name string) ([]float64, error) {
	typ, err := env.TypeOf(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}
	l, err := env.Find(loader.KindsOf(geometry.KindValuesContainer), name, typ)
	if err != nil {
		return nil, err
	}
	vl, ok := l.(loader.ValueLoader)
	if !ok {
		return nil, fmt.Errorf("%w: %s holds no values", loader.ErrNotFound, typ)
	}
	d, err := vl.Load(env, name)
	if err != nil {
		return nil, err
	}
	values, ok := d.(geometry.Values)
	if !ok {
		return nil, loader.Failf("%s is a %s, not a sequence of numbers", name, d.Kind())
	}
	return values, nil
}
