package sim

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Snapshot describes a debuggee as a list of variables.
//
//	variables:
//	  - name: poly
//	    shape: polygon
//	    points: [[0, 0], [4, 0], [4, 4], [0, 0]]
//	    inners: [[[1, 1], [2, 1], [2, 2], [1, 1]]]
//	  - name: xs
//	    shape: values
//	    container: deque
//	    values: [1, 2, 3]
type Snapshot struct {
	Variables []Variable `yaml:"variables"`
}

// Variable is one named object of a snapshot.
type Variable struct {
	Name string `yaml:"name"`
	// Shape is one of point, point_xy, complex, box, segment, nsphere,
	// linestring, ring, polygon, multi_point, multi_linestring,
	// multi_polygon, values or rtree.
	Shape string `yaml:"shape"`
	// Coord is the coordinate type, double by default.
	Coord string `yaml:"coord,omitempty"`
	// CS is cartesian, spherical_equatorial, spherical_polar or geographic.
	CS  string `yaml:"cs,omitempty"`
	Dim int    `yaml:"dim,omitempty"`
	// Container holds values: vector, deque, list, set, circular_buffer or
	// array.
	Container string        `yaml:"container,omitempty"`
	Points    [][]float64   `yaml:"points,omitempty"`
	Inners    [][][]float64 `yaml:"inners,omitempty"`
	Lines     [][][]float64 `yaml:"lines,omitempty"`
	Polygons  []Polygon     `yaml:"polygons,omitempty"`
	Values    []float64     `yaml:"values,omitempty"`
	Radius    float64       `yaml:"radius,omitempty"`
}

// Polygon is a polygon of a multi_polygon variable.
type Polygon struct {
	Outer  [][]float64   `yaml:"outer"`
	Inners [][][]float64 `yaml:"inners,omitempty"`
}

// LoadSnapshotFile builds a process from a YAML snapshot file.
func LoadSnapshotFile(path string) (*Process, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()
	return LoadSnapshot(f)
}

// LoadSnapshot builds a process from a YAML snapshot.
func LoadSnapshot(r io.Reader) (*Process, error) {
	var s Snapshot
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	p := New()
	for i, v := range s.Variables {
		if err := p.declare(v); err != nil {
			return nil, fmt.Errorf("variable %d (%s): %w", i, v.Name, err)
		}
	}
	return p, nil
}

var csNames = map[string]string{
	"":                     CSCartesian,
	"cartesian":            CSCartesian,
	"spherical_equatorial": CSSphericalEquatorial,
	"spherical_polar":      CSSphericalPolar,
	"geographic":           CSGeographic,
}

func (p *Process) declare(v Variable) error {
	if v.Name == "" {
		return fmt.Errorf("missing name")
	}
	coord := v.Coord
	if coord == "" {
		coord = "double"
	}
	if _, ok := p.Type(coord); !ok {
		return fmt.Errorf("unknown coordinate type %q", coord)
	}
	cs, ok := csNames[v.CS]
	if !ok {
		return fmt.Errorf("unknown coordinate system %q", v.CS)
	}
	dim := v.Dim
	if dim == 0 {
		dim = 2
		if len(v.Points) > 0 {
			dim = len(v.Points[0])
		}
	}
	pt := p.BGPointType(coord, dim, cs)

	switch v.Shape {
	case "point":
		if len(v.Points) != 1 {
			return fmt.Errorf("point needs exactly one entry in points")
		}
		SetPoint(p.Declare(v.Name, pt), v.Points[0]...)
	case "point_xy":
		if len(v.Points) != 1 {
			return fmt.Errorf("point_xy needs exactly one entry in points")
		}
		SetPoint(p.Declare(v.Name, p.BGPointXYType(coord, cs)), v.Points[0]...)
	case "complex":
		if len(v.Points) != 1 {
			return fmt.Errorf("complex needs exactly one entry in points")
		}
		p.Declare(v.Name, p.ComplexType(coord)).Field("_Val").SetValues(v.Points[0]...)
	case "box", "segment":
		if len(v.Points) != 2 {
			return fmt.Errorf("%s needs exactly two entries in points", v.Shape)
		}
		if v.Shape == "box" {
			o := p.Declare(v.Name, p.BGBoxType(pt))
			SetPoint(o.Field("m_min_corner"), v.Points[0]...)
			SetPoint(o.Field("m_max_corner"), v.Points[1]...)
		} else {
			o := p.Declare(v.Name, p.BGSegmentType(pt))
			SetPoint(o.Field("first"), v.Points[0]...)
			SetPoint(o.Field("second"), v.Points[1]...)
		}
	case "nsphere":
		if len(v.Points) != 1 {
			return fmt.Errorf("nsphere needs exactly one entry in points")
		}
		o := p.Declare(v.Name, p.BGNSphereType(pt, coord))
		SetPoint(o.Field("m_center"), v.Points[0]...)
		o.Field("m_radius").SetFloat(v.Radius)
	case "linestring":
		FillPoints(p.Declare(v.Name, p.BGLinestringType(pt)), v.Points)
	case "ring":
		FillPoints(p.Declare(v.Name, p.BGRingType(pt)), v.Points)
	case "multi_point":
		FillPoints(p.Declare(v.Name, p.BGMultiPointType(pt)), v.Points)
	case "polygon":
		FillPolygon(p.Declare(v.Name, p.BGPolygonType(pt)), v.Points, v.Inners...)
	case "multi_linestring":
		o := p.Declare(v.Name, p.BGMultiLinestringType(p.BGLinestringType(pt)))
		FillVector(o, len(v.Lines), func(e Object, i int) { FillPoints(e, v.Lines[i]) })
	case "multi_polygon":
		o := p.Declare(v.Name, p.BGMultiPolygonType(p.BGPolygonType(pt)))
		FillVector(o, len(v.Polygons), func(e Object, i int) {
			FillPolygon(e, v.Polygons[i].Outer, v.Polygons[i].Inners...)
		})
	case "values":
		return p.declareValues(v, p.MustType(coord))
	case "rtree":
		rt := p.RtreeType(pt, p.BGBoxType(pt), 4)
		rt.FillRtree(p.Declare(v.Name, rt.Tree), len(v.Points),
			func(o Object, i int) { SetPoint(o, v.Points[i]...) },
			func(i int) ([]float64, []float64) { return v.Points[i], v.Points[i] })
	default:
		return fmt.Errorf("unknown shape %q", v.Shape)
	}
	return nil
}

func (p *Process) declareValues(v Variable, elem *Type) error {
	n := len(v.Values)
	fill := func(o Object, i int) { o.SetFloat(v.Values[i]) }
	switch v.Container {
	case "", "vector":
		FillVector(p.Declare(v.Name, p.VectorType(elem)), n, fill)
	case "deque":
		bs := dequeBlockSize(elem.Size)
		FillDeque(p.Declare(v.Name, p.DequeType(elem)), n, bs, n/bs+2, bs-1, fill)
	case "list":
		FillList(p.Declare(v.Name, p.ListType(elem)), n, fill)
	case "set":
		FillSet(p.Declare(v.Name, p.SetType("std::multiset", elem)), n, fill)
	case "circular_buffer":
		capacity := n + 2
		FillCircularBuffer(p.Declare(v.Name, p.CircularBufferType(elem)), capacity, capacity-1, n, fill)
	case "array":
		p.Declare(v.Name, p.ArrayOf(elem, n)).SetValues(v.Values...)
	default:
		return fmt.Errorf("unknown container %q", v.Container)
	}
	return nil
}

// dequeBlockSize mirrors the MSVC block sizing of std::deque.
func dequeBlockSize(elemSize int) int {
	switch {
	case elemSize <= 1:
		return 16
	case elemSize <= 2:
		return 8
	case elemSize <= 4:
		return 4
	case elemSize <= 8:
		return 2
	}
	return 1
}
