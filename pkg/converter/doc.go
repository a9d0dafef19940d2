// Package converter decodes flat blocks of debuggee memory into sequences of
// numbers.
//
// A Converter describes how many bytes it consumes and how many values it
// produces. Converters compose: a Struct groups member converters at fixed
// byte offsets inside one outer size, an Array repeats one converter, and a
// Transform rewrites the values another converter produced. Converters hold
// no per-call state and may be shared across any number of decodes.
//
// Example, a box made of two 2-D double points at offsets 0 and 16:
//
//	coord := converter.NewValue[float64](converter.Float64)
//	point, _ := converter.NewArray[float64](coord, 2)
//	box, _ := converter.NewStruct[float64](32,
//	    converter.Member[float64]{Converter: point, Offset: 0},
//	    converter.Member[float64]{Converter: point, Offset: 16},
//	)
//	values := box.Decode(buf, 0) // [minX minY maxX maxY]
package converter
