package geometry

import (
	"fmt"
	"strconv"
	"strings"
)

// WKT renders a drawable as well-known text. Shapes without a WKT form use
// the Boost.Geometry spelling (BOX, SEGMENT) or a descriptive keyword.
func WKT(d Drawable) string {
	var b strings.Builder
	writeWKT(&b, d)
	return b.String()
}

func writeWKT(b *strings.Builder, d Drawable) {
	switch v := d.(type) {
	case Point:
		b.WriteString("POINT(")
		writeCoords(b, v)
		b.WriteByte(')')
	case Box:
		b.WriteString("BOX(")
		writePoints(b, []Point{v.Min, v.Max})
		b.WriteByte(')')
	case Segment:
		b.WriteString("SEGMENT(")
		writePoints(b, []Point{v.First, v.Second})
		b.WriteByte(')')
	case Ray:
		b.WriteString("RAY(")
		writePoints(b, []Point{v.Origin, v.Through})
		b.WriteByte(')')
	case Line:
		b.WriteString("LINE(")
		writePoints(b, []Point{v.First, v.Second})
		b.WriteByte(')')
	case NSphere:
		b.WriteString("NSPHERE(")
		writeCoords(b, v.Center)
		b.WriteByte(',')
		b.WriteString(formatFloat(v.Radius))
		b.WriteByte(')')
	case Linestring:
		b.WriteString("LINESTRING")
		writeList(b, v)
	case Ring:
		b.WriteString("POLYGON(")
		writeList(b, v)
		b.WriteByte(')')
	case Polygon:
		b.WriteString("POLYGON")
		writePolygonBody(b, v)
	case MultiPoint:
		b.WriteString("MULTIPOINT(")
		for i, p := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('(')
			writeCoords(b, p)
			b.WriteByte(')')
		}
		b.WriteByte(')')
	case MultiLinestring:
		b.WriteString("MULTILINESTRING(")
		for i, l := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			writeList(b, l)
		}
		b.WriteByte(')')
	case MultiPolygon:
		b.WriteString("MULTIPOLYGON(")
		for i, p := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			writePolygonBody(b, p)
		}
		b.WriteByte(')')
	case Geometries:
		b.WriteString("GEOMETRYCOLLECTION(")
		for i, g := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			writeWKT(b, g)
		}
		b.WriteByte(')')
	case Values:
		b.WriteString("VALUES(")
		for i, x := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(formatFloat(x))
		}
		b.WriteByte(')')
	case Turns:
		b.WriteString("TURNS(")
		for i, t := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(b, "%c%c%c ", printable(t.Method), printable(t.Operations[0]), printable(t.Operations[1]))
			writeCoords(b, t.Point)
		}
		b.WriteByte(')')
	case nil:
		b.WriteString("EMPTY")
	default:
		fmt.Fprintf(b, "%s()", d.Kind())
	}
}

func writePolygonBody(b *strings.Builder, p Polygon) {
	b.WriteByte('(')
	writeList(b, p.Outer)
	for _, inner := range p.Inners {
		b.WriteByte(',')
		writeList(b, inner)
	}
	b.WriteByte(')')
}

func writeList[P ~[]Point](b *strings.Builder, pts P) {
	b.WriteByte('(')
	writePoints(b, pts)
	b.WriteByte(')')
}

func writePoints(b *strings.Builder, pts []Point) {
	for i, p := range pts {
		if i > 0 {
			b.WriteByte(',')
		}
		writeCoords(b, p)
	}
}

func writeCoords(b *strings.Builder, p Point) {
	for i, c := range p {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(formatFloat(c))
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func printable(c byte) byte {
	if c < 0x20 || c > 0x7e {
		return '-'
	}
	return c
}
