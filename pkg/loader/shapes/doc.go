// Package shapes holds the loaders of geometries and of the value containers
// built on top of them.
//
// Built-in creators recognize Boost.Geometry models, Boost.Polygon data
// types, std::complex, boost::variant, Boost.Geometry rtrees, overlay turn
// containers and any container of geometries or arithmetic values. User
// defined shapes describe where the coordinates of other types live through
// expressions in which $this names the value.
//
// Composite loaders resolve their parts through the registry once, when they
// are created, together with the sizes and offsets needed to decode a whole
// value from one memory block. When any of those is unknown the loader still
// works through expression evaluation.
package shapes
