package scene

import "github.com/Faultbox/gravity-convert/pkg/math"

// appendPrimitive adds p to prims, joining it with an existing primitive of
// the same material. Vertex attributes missing on one side are zero-filled.
func appendPrimitive(prims []Primitive, p Primitive) []Primitive {
	for i := range prims {
		if prims[i].Material == p.Material {
			prims[i] = joinPrimitives(prims[i], p)
			return prims
		}
	}
	return append(prims, joinPrimitives(Primitive{Material: p.Material}, p))
}

func joinPrimitives(a, b Primitive) Primitive {
	base := uint32(len(a.Positions))
	out := Primitive{
		Material:  a.Material,
		Positions: make([][3]float32, 0, len(a.Positions)+len(b.Positions)),
		Indices:   make([]uint32, 0, len(a.Indices)+len(b.Indices)),
	}

	out.Positions = append(out.Positions, a.Positions...)
	out.Positions = append(out.Positions, b.Positions...)

	if len(a.Normals) > 0 || len(b.Normals) > 0 {
		out.Normals = append(padVec3(a.Normals, len(a.Positions)), padVec3(b.Normals, len(b.Positions))...)
	}
	if len(a.TexCoords) > 0 || len(b.TexCoords) > 0 {
		out.TexCoords = append(padVec2(a.TexCoords, len(a.Positions)), padVec2(b.TexCoords, len(b.Positions))...)
	}

	out.Indices = append(out.Indices, a.Indices...)
	for _, idx := range b.Indices {
		out.Indices = append(out.Indices, idx+base)
	}
	return out
}

func padVec3(v [][3]float32, n int) [][3]float32 {
	out := make([][3]float32, n)
	copy(out, v)
	return out
}

func padVec2(v [][2]float32, n int) [][2]float32 {
	out := make([][2]float32, n)
	copy(out, v)
	return out
}

// bakePrimitive applies world to positions and normals.
func bakePrimitive(p Primitive, world math.Mat4) Primitive {
	if world.IsIdentity() {
		return p
	}

	out := Primitive{
		Material:  p.Material,
		Positions: make([][3]float32, len(p.Positions)),
		TexCoords: p.TexCoords,
		Indices:   p.Indices,
	}
	for i, v := range p.Positions {
		out.Positions[i] = world.TransformPoint(v)
	}
	if len(p.Normals) > 0 {
		out.Normals = make([][3]float32, len(p.Normals))
		for i, n := range p.Normals {
			out.Normals[i] = math.V3(world.TransformDirection(n)).Normalize().Array()
		}
	}
	return out
}

// branchFaces makes one triangle from every vertex triple.
func branchFaces(p Primitive) Primitive {
	p.Indices = make([]uint32, 0, len(p.Positions))
	for i := 0; i+2 < len(p.Positions); i += 3 {
		p.Indices = append(p.Indices, uint32(i), uint32(i+1), uint32(i+2))
	}
	return p
}

// grassFaces makes one quad from every (position, offset, position, offset)
// quadruple. Offset vertices become absolute: l = p + l.
func grassFaces(p Primitive) Primitive {
	positions := append([][3]float32(nil), p.Positions...)
	p.Indices = make([]uint32, 0, len(positions)/4*6)

	for i := 0; i+3 < len(positions); i += 4 {
		p0, l0, p1, l1 := i, i+1, i+2, i+3
		positions[l0] = math.V3(positions[p0]).Add(math.V3(positions[l0])).Array()
		positions[l1] = math.V3(positions[p1]).Add(math.V3(positions[l1])).Array()

		// quad p0, p1, l1, l0
		p.Indices = append(p.Indices,
			uint32(p0), uint32(p1), uint32(l1),
			uint32(p0), uint32(l1), uint32(l0),
		)
	}
	p.Positions = positions
	return p
}
