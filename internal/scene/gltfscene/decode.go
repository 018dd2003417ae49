// Package gltfscene reads and writes scene documents as glTF 2.0 (.gltf and
// .glb) files.
package gltfscene

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/gravity-convert/internal/scene"
	"github.com/Faultbox/gravity-convert/pkg/math"
)

// Codec implements scene.Codec for glTF files.
type Codec struct {
	// Binary forces .glb output regardless of the file extension.
	Binary bool
}

// New creates a glTF codec.
func New() *Codec {
	return &Codec{}
}

// Decode opens a .gltf or .glb file.
func (c *Codec) Decode(path string) (*scene.Document, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", filepath.Base(path))
	}
	return FromGLTF(doc)
}

// FromGLTF maps a glTF document onto scene objects. Nodes keep their array
// order. Skin joints become bones, non-joint parents of joints become
// armatures, nodes with a mesh become meshes and everything else is an
// empty.
func FromGLTF(doc *gltf.Document) (*scene.Document, error) {
	parents := make(map[uint32]uint32, len(doc.Nodes))
	for i, n := range doc.Nodes {
		for _, child := range n.Children {
			if int(child) >= len(doc.Nodes) {
				return nil, fmt.Errorf("node %d: child %d out of range", i, child)
			}
			parents[child] = uint32(i)
		}
	}

	joints := make(map[uint32]bool)
	skeletons := make(map[uint32]bool)
	for _, skin := range doc.Skins {
		for _, j := range skin.Joints {
			joints[j] = true
		}
		if skin.Skeleton != nil {
			skeletons[*skin.Skeleton] = true
		}
	}

	armatures := make(map[uint32]bool)
	for j := range joints {
		if p, ok := parents[j]; ok && !joints[p] {
			armatures[p] = true
		}
	}
	for s := range skeletons {
		if !joints[s] {
			armatures[s] = true
		}
	}

	worlds := make(map[uint32]mgl32.Mat4, len(doc.Nodes))
	var world func(i uint32) mgl32.Mat4
	world = func(i uint32) mgl32.Mat4 {
		if w, ok := worlds[i]; ok {
			return w
		}
		w := localMatrix(doc.Nodes[i])
		if p, ok := parents[i]; ok {
			w = world(p).Mul4(w)
		}
		worlds[i] = w
		return w
	}

	out := &scene.Document{}
	for i, n := range doc.Nodes {
		idx := uint32(i)
		obj := scene.Object{
			ID:    scene.ID(i + 1),
			Name:  nodeName(doc, idx),
			World: math.Mat4(world(idx)),
		}
		if p, ok := parents[idx]; ok {
			obj.Parent = scene.ID(p + 1)
		}

		switch {
		case joints[idx]:
			obj.Kind = scene.KindBone
		case armatures[idx]:
			obj.Kind = scene.KindArmature
		case n.Mesh != nil:
			obj.Kind = scene.KindMesh
			prims, err := readMesh(doc, *n.Mesh)
			if err != nil {
				return nil, errors.Wrapf(err, "node %q", obj.Name)
			}
			obj.Primitives = prims
		default:
			obj.Kind = scene.KindEmpty
		}

		out.Objects = append(out.Objects, obj)
	}

	for i, m := range doc.Materials {
		out.Materials = append(out.Materials, scene.Material{
			Name:   materialName(doc, uint32(i)),
			Images: materialImages(doc, m),
		})
	}
	return out, nil
}

// localMatrix returns the node transform. Unset TRS components default to
// identity.
func localMatrix(n *gltf.Node) mgl32.Mat4 {
	if n.Matrix != [16]float32{} && n.Matrix != mgl32.Ident4() {
		return mgl32.Mat4(n.Matrix)
	}

	t := n.Translation
	r := n.Rotation
	s := n.Scale
	if r == [4]float32{} {
		r = [4]float32{0, 0, 0, 1}
	}
	if s == [3]float32{} {
		s = [3]float32{1, 1, 1}
	}

	rot := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}
	return mgl32.Translate3D(t[0], t[1], t[2]).
		Mul4(rot.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

func nodeName(doc *gltf.Document, i uint32) string {
	n := doc.Nodes[i]
	if n.Name != "" {
		return n.Name
	}
	if n.Mesh != nil && doc.Meshes[*n.Mesh].Name != "" {
		return doc.Meshes[*n.Mesh].Name
	}
	return fmt.Sprintf("node_%d", i)
}

func materialName(doc *gltf.Document, i uint32) string {
	if name := doc.Materials[i].Name; name != "" {
		return name
	}
	return fmt.Sprintf("material_%d", i)
}

func materialImages(doc *gltf.Document, m *gltf.Material) []string {
	var textures []uint32
	if pbr := m.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorTexture != nil {
			textures = append(textures, pbr.BaseColorTexture.Index)
		}
		if pbr.MetallicRoughnessTexture != nil {
			textures = append(textures, pbr.MetallicRoughnessTexture.Index)
		}
	}
	if m.EmissiveTexture != nil {
		textures = append(textures, m.EmissiveTexture.Index)
	}

	var images []string
	for _, t := range textures {
		if int(t) >= len(doc.Textures) || doc.Textures[t].Source == nil {
			continue
		}
		src := *doc.Textures[t].Source
		if int(src) >= len(doc.Images) {
			continue
		}
		img := doc.Images[src]
		switch {
		case img.URI != "" && !strings.HasPrefix(img.URI, "data:"):
			images = append(images, img.URI)
		case img.Name != "":
			images = append(images, img.Name)
		default:
			images = append(images, fmt.Sprintf("image_%d", src))
		}
	}
	return images
}

func readMesh(doc *gltf.Document, meshIndex uint32) ([]scene.Primitive, error) {
	if int(meshIndex) >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh %d out of range", meshIndex)
	}

	var prims []scene.Primitive
	for pi, p := range doc.Meshes[meshIndex].Primitives {
		posIdx, ok := p.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		prim := scene.Primitive{}
		if p.Material != nil {
			prim.Material = materialName(doc, *p.Material)
		}

		var err error
		prim.Positions, err = modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return nil, errors.Wrapf(err, "primitive %d positions", pi)
		}
		if idx, ok := p.Attributes[gltf.NORMAL]; ok {
			if prim.Normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
				return nil, errors.Wrapf(err, "primitive %d normals", pi)
			}
		}
		if idx, ok := p.Attributes[gltf.TEXCOORD_0]; ok {
			if prim.TexCoords, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
				return nil, errors.Wrapf(err, "primitive %d texcoords", pi)
			}
		}

		var indices []uint32
		if p.Indices != nil {
			if indices, err = modeler.ReadIndices(doc, doc.Accessors[*p.Indices], nil); err != nil {
				return nil, errors.Wrapf(err, "primitive %d indices", pi)
			}
		}
		prim.Indices = triangulate(p.Mode, indices, len(prim.Positions))

		prims = append(prims, prim)
	}
	return prims, nil
}

// triangulate converts any triangle topology to a triangle list. Points and
// lines have no faces.
func triangulate(mode gltf.PrimitiveMode, indices []uint32, vertexCount int) []uint32 {
	if indices == nil {
		switch mode {
		case gltf.PrimitiveTriangles, gltf.PrimitiveTriangleStrip, gltf.PrimitiveTriangleFan:
			indices = make([]uint32, vertexCount)
			for i := range indices {
				indices[i] = uint32(i)
			}
		}
	}

	switch mode {
	case gltf.PrimitiveTriangles:
		return indices[:len(indices)/3*3]
	case gltf.PrimitiveTriangleStrip:
		var out []uint32
		for i := 0; i+2 < len(indices); i++ {
			if i%2 == 0 {
				out = append(out, indices[i], indices[i+1], indices[i+2])
			} else {
				out = append(out, indices[i+1], indices[i], indices[i+2])
			}
		}
		return out
	case gltf.PrimitiveTriangleFan:
		var out []uint32
		for i := 1; i+1 < len(indices); i++ {
			out = append(out, indices[0], indices[i], indices[i+1])
		}
		return out
	default:
		return nil
	}
}
