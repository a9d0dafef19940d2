package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/coral-mesh/geoinspect/pkg/geometry"
	"github.com/coral-mesh/geoinspect/pkg/loader"
	"github.com/coral-mesh/geoinspect/pkg/loader/container"
	"github.com/coral-mesh/geoinspect/pkg/loader/shapes"
)

// UserTypes is a file of user type definitions. Member expressions use
// $this for the value being loaded.
//
//	shapes:
//	  - kind: Point
//	    id: MyPoint
//	    coords: [$this.x, $this.y]
//	  - kind: Box
//	    id: MyRect
//	    left: $this.l
//	    bottom: $this.b
//	    width: $this.w
//	    height: $this.h
//	containers:
//	  - kind: linked_list
//	    id: MyList
//	    head: $this.head
//	    next: next
//	    value: value
type UserTypes struct {
	Shapes     []ShapeDef     `yaml:"shapes"`
	Containers []ContainerDef `yaml:"containers"`
}

// ShapeDef maps a user type to a shape kind.
type ShapeDef struct {
	Kind   string   `yaml:"kind"`
	ID     string   `yaml:"id"`
	Coords []string `yaml:"coords,omitempty"`
	// CS is cartesian, spherical_polar, spherical_equatorial or geographic.
	CS   string `yaml:"cs,omitempty"`
	Unit string `yaml:"unit,omitempty"`

	Points []string `yaml:"points,omitempty"`

	Left   string `yaml:"left,omitempty"`
	Bottom string `yaml:"bottom,omitempty"`
	Right  string `yaml:"right,omitempty"`
	Top    string `yaml:"top,omitempty"`
	Width  string `yaml:"width,omitempty"`
	Height string `yaml:"height,omitempty"`

	Container string `yaml:"container,omitempty"`
	Outer     string `yaml:"outer,omitempty"`
	Inners    string `yaml:"inners,omitempty"`
}

// ContainerDef describes a user container, either an array (pointer and
// size) or a singly linked list (head, next, value and optional size).
type ContainerDef struct {
	Kind    string `yaml:"kind"`
	ID      string `yaml:"id"`
	Pointer string `yaml:"pointer,omitempty"`
	Size    string `yaml:"size,omitempty"`
	Head    string `yaml:"head,omitempty"`
	Next    string `yaml:"next,omitempty"`
	Value   string `yaml:"value,omitempty"`
}

// ParseKind accepts the names of geometry kinds plus MultiGeometry for a
// container of geometries.
func ParseKind(name string) (geometry.Kind, error) {
	if name == "MultiGeometry" {
		return geometry.KindGeometriesContainer, nil
	}
	if k, ok := geometry.ParseKind(name); ok {
		return k, nil
	}
	return 0, fmt.Errorf("unknown kind %q", name)
}

func parseSystem(cs, unit string) (geometry.CoordinateSystem, geometry.AngleUnit, error) {
	var s geometry.CoordinateSystem
	switch strings.ToLower(cs) {
	case "", "cartesian":
		s = geometry.Cartesian
	case "spherical", "spherical_polar":
		s = geometry.SphericalPolar
	case "spherical_equatorial":
		s = geometry.SphericalEquatorial
	case "geographic":
		s = geometry.Geographic
	default:
		return 0, 0, fmt.Errorf("unknown coordinate system %q", cs)
	}

	switch strings.ToLower(unit) {
	case "":
		if s == geometry.Cartesian {
			return s, geometry.UnitNone, nil
		}
		return s, geometry.Degree, nil
	case "degree":
		return s, geometry.Degree, nil
	case "radian":
		return s, geometry.Radian, nil
	}
	return 0, 0, fmt.Errorf("unknown angle unit %q", unit)
}

// Shape converts the definition to a user shape.
func (d ShapeDef) Shape() (shapes.UserShape, error) {
	kind, err := ParseKind(d.Kind)
	if err != nil {
		return shapes.UserShape{}, err
	}
	cs, unit, err := parseSystem(d.CS, d.Unit)
	if err != nil {
		return shapes.UserShape{}, err
	}
	u := shapes.UserShape{
		Kind:      kind,
		ID:        d.ID,
		Coords:    d.Coords,
		System:    cs,
		Unit:      unit,
		Left:      d.Left,
		Bottom:    d.Bottom,
		Right:     d.Right,
		Top:       d.Top,
		Width:     d.Width,
		Height:    d.Height,
		Container: d.Container,
		Outer:     d.Outer,
		Inners:    d.Inners,
	}
	switch len(d.Points) {
	case 0:
	case 2:
		u.Points = [2]string{d.Points[0], d.Points[1]}
	default:
		return shapes.UserShape{}, fmt.Errorf("%s: expected 2 points, got %d", d.ID, len(d.Points))
	}
	return u, u.Validate()
}

// Creator returns the creator of the container.
func (d ContainerDef) Creator() (loader.Creator, error) {
	if d.ID == "" {
		return nil, fmt.Errorf("%s container without id", d.Kind)
	}
	switch d.Kind {
	case "array":
		if d.Pointer == "" || d.Size == "" {
			return nil, fmt.Errorf("array %s needs pointer and size", d.ID)
		}
		return container.NewUserArrayCreator(d.ID, d.Pointer, d.Size), nil
	case "linked_list":
		if d.Head == "" || d.Next == "" || d.Value == "" {
			return nil, fmt.Errorf("linked list %s needs head, next and value", d.ID)
		}
		return container.NewUserLinkedListCreator(d.ID, d.Head, d.Next, d.Value, d.Size), nil
	}
	return nil, fmt.Errorf("unknown container kind %q", d.Kind)
}

// Creators returns the creators of every definition, shapes first.
func (u *UserTypes) Creators() ([]loader.Creator, error) {
	creators := make([]loader.Creator, 0, len(u.Shapes)+len(u.Containers))
	for _, d := range u.Shapes {
		s, err := d.Shape()
		if err != nil {
			return nil, err
		}
		c, err := shapes.NewUserCreator(s)
		if err != nil {
			return nil, err
		}
		creators = append(creators, c)
	}
	for _, d := range u.Containers {
		c, err := d.Creator()
		if err != nil {
			return nil, err
		}
		creators = append(creators, c)
	}
	return creators, nil
}

// ParseUserTypes decodes user type definitions.
func ParseUserTypes(data []byte) (*UserTypes, error) {
	var u UserTypes
	if err := yaml.Unmarshal(data, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// LoadUserTypes reads the user type definitions of a file and returns
// their creators.
func LoadUserTypes(path string) ([]loader.Creator, error) {
	//nolint:gosec // G304: Path is chosen by the user.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read user types: %w", err)
	}
	u, err := ParseUserTypes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user types %s: %w", path, err)
	}
	creators, err := u.Creators()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return creators, nil
}

// RegisterUserTypes prepends the creators of every file to r, so user
// definitions take precedence over built-in ones. It returns the number
// of creators registered.
func RegisterUserTypes(r *loader.Registry, paths []string) (int, error) {
	n := 0
	for _, p := range paths {
		creators, err := LoadUserTypes(p)
		if err != nil {
			return n, err
		}
		for _, c := range creators {
			r.Prepend(c)
		}
		n += len(creators)
	}
	return n, nil
}
