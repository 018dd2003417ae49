package gltfscene

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/gravity-convert/internal/scene"
)

// Encode writes doc as .gltf with an embedded buffer, or as .glb when the
// path ends in .glb or Binary is set.
func (c *Codec) Encode(doc *scene.Document, path string) error {
	out, err := ToGLTF(doc)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	if c.Binary || strings.EqualFold(filepath.Ext(path), ".glb") {
		return errors.Wrap(gltf.SaveBinary(out, path), "saving glb")
	}

	for _, b := range out.Buffers {
		if b.URI == "" && len(b.Data) > 0 {
			b.EmbeddedResource()
		}
	}
	return errors.Wrap(gltf.Save(out, path), "saving gltf")
}

// ToGLTF builds a glTF document from scene objects. Every object becomes a
// node with a local matrix relative to its parent; parentless objects are
// scene roots.
func ToGLTF(doc *scene.Document) (*gltf.Document, error) {
	out := gltf.NewDocument()

	materials := make(map[string]uint32, len(doc.Materials))
	for _, m := range doc.Materials {
		materials[m.Name] = writeMaterial(out, m)
	}

	nodes := make(map[scene.ID]uint32, len(doc.Objects))
	worlds := make(map[scene.ID]mgl32.Mat4, len(doc.Objects))
	for i, o := range doc.Objects {
		nodes[o.ID] = uint32(i)
		worlds[o.ID] = mgl32.Mat4(o.World)
	}

	for _, o := range doc.Objects {
		local := worlds[o.ID]
		if o.Parent != 0 {
			parentWorld, ok := worlds[o.Parent]
			if !ok {
				return nil, errors.Errorf("object %q: parent %d not in document", o.Name, o.Parent)
			}
			local = parentWorld.Inv().Mul4(local)
		}

		node := &gltf.Node{Name: o.Name}
		if local != mgl32.Ident4() {
			node.Matrix = [16]float32(local)
		}

		if o.Kind == scene.KindMesh && len(o.Primitives) > 0 {
			meshIndex, err := writeMesh(out, o, materials)
			if err != nil {
				return nil, err
			}
			node.Mesh = gltf.Index(meshIndex)
		}
		out.Nodes = append(out.Nodes, node)
	}

	for i, o := range doc.Objects {
		if o.Parent == 0 {
			out.Scenes[0].Nodes = append(out.Scenes[0].Nodes, uint32(i))
			continue
		}
		parent := out.Nodes[nodes[o.Parent]]
		parent.Children = append(parent.Children, uint32(i))
	}

	writeSkins(out, doc.Objects, nodes)
	return out, nil
}

// writeSkins records every armature as a skin skeleton with its descendant
// bones as joints, so bone and armature kinds survive a round trip.
func writeSkins(doc *gltf.Document, objects []scene.Object, nodes map[scene.ID]uint32) {
	for _, arm := range scene.OfKind(objects, scene.KindArmature) {
		skin := &gltf.Skin{Name: arm.Name, Skeleton: gltf.Index(nodes[arm.ID])}

		queue := []scene.ID{arm.ID}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			for _, child := range scene.Children(objects, id) {
				if child.Kind == scene.KindBone {
					skin.Joints = append(skin.Joints, nodes[child.ID])
				}
				queue = append(queue, child.ID)
			}
		}

		if len(skin.Joints) > 0 {
			doc.Skins = append(doc.Skins, skin)
		}
	}
}

func writeMaterial(doc *gltf.Document, m scene.Material) uint32 {
	mat := &gltf.Material{
		Name:                 m.Name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{},
	}

	for i, img := range m.Images {
		doc.Images = append(doc.Images, &gltf.Image{Name: filepath.Base(img), URI: img})
		doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(uint32(len(doc.Images) - 1))})
		info := &gltf.TextureInfo{Index: uint32(len(doc.Textures) - 1)}

		switch i {
		case 0:
			mat.PBRMetallicRoughness.BaseColorTexture = info
		case 1:
			mat.PBRMetallicRoughness.MetallicRoughnessTexture = info
		case 2:
			mat.EmissiveTexture = info
		}
	}

	doc.Materials = append(doc.Materials, mat)
	return uint32(len(doc.Materials) - 1)
}

func writeMesh(doc *gltf.Document, o scene.Object, materials map[string]uint32) (uint32, error) {
	mesh := &gltf.Mesh{Name: o.Name}

	for _, p := range o.Primitives {
		if len(p.Positions) == 0 {
			continue
		}

		prim := &gltf.Primitive{
			Attributes: map[string]uint32{
				gltf.POSITION: modeler.WritePosition(doc, p.Positions),
			},
		}
		if len(p.Normals) == len(p.Positions) {
			prim.Attributes[gltf.NORMAL] = modeler.WriteNormal(doc, p.Normals)
		}
		if len(p.TexCoords) == len(p.Positions) {
			prim.Attributes[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, p.TexCoords)
		}

		if len(p.Indices) > 0 {
			prim.Indices = gltf.Index(modeler.WriteIndices(doc, p.Indices))
			prim.Mode = gltf.PrimitiveTriangles
		} else {
			prim.Mode = gltf.PrimitivePoints
		}

		if p.Material != "" {
			idx, ok := materials[p.Material]
			if !ok {
				idx = writeMaterial(doc, scene.Material{Name: p.Material})
				materials[p.Material] = idx
			}
			prim.Material = gltf.Index(idx)
		}

		mesh.Primitives = append(mesh.Primitives, prim)
	}

	if len(mesh.Primitives) == 0 {
		return 0, errors.Errorf("mesh %q has no vertices", o.Name)
	}

	doc.Meshes = append(doc.Meshes, mesh)
	return uint32(len(doc.Meshes) - 1), nil
}
