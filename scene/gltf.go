package scene

import (
	"log"
	"strconv"

	"github.com/binzume/bvhkit/geom"
	"github.com/qmuntal/gltf"
)

func nodeLocalMatrix(node *gltf.Node) *geom.Matrix4 {
	if m := node.MatrixOrDefault(); m != gltf.DefaultMatrix {
		return geom.NewMatrix4FromSlice(m[:])
	}
	rot := geom.NewQuaternionFromArray(node.Rotation)
	if *rot == (geom.Quaternion{}) {
		rot = geom.NewIdentityQuaternion()
	}
	scale := geom.NewVector3FromArray(node.Scale)
	if *scale == (geom.Vector3{}) {
		scale = &geom.Vector3{X: 1, Y: 1, Z: 1}
	}
	return geom.NewTRSMatrix4(geom.NewVector3FromArray(node.Translation), rot, scale)
}

type nodeGraph struct {
	doc     *gltf.Document
	parents []int
	worlds  []*geom.Matrix4
	// world matrices that replace the node transform.
	overrides map[int]*geom.Matrix4
}

func newNodeGraph(doc *gltf.Document) *nodeGraph {
	g := &nodeGraph{
		doc:       doc,
		parents:   make([]int, len(doc.Nodes)),
		worlds:    make([]*geom.Matrix4, len(doc.Nodes)),
		overrides: map[int]*geom.Matrix4{},
	}
	for i := range g.parents {
		g.parents[i] = -1
	}
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			if int(c) < len(g.parents) {
				g.parents[c] = i
			}
		}
	}
	return g
}

func (g *nodeGraph) world(i int) *geom.Matrix4 {
	if g.worlds[i] != nil {
		return g.worlds[i]
	}
	if m, ok := g.overrides[i]; ok {
		g.worlds[i] = m
	} else if p := g.parents[i]; p >= 0 {
		g.worlds[i] = g.world(p).Mul(nodeLocalMatrix(g.doc.Nodes[i]))
	} else {
		g.worlds[i] = nodeLocalMatrix(g.doc.Nodes[i])
	}
	return g.worlds[i]
}

func nodeName(doc *gltf.Document, i int) string {
	if doc.Nodes[i].Name != "" {
		return doc.Nodes[i].Name
	}
	return "Node" + strconv.Itoa(i)
}

// armatureNode returns the node that owns the skin joints, or -1.
func armatureNode(g *nodeGraph, skin *gltf.Skin, joints map[int]bool) int {
	if skin.Skeleton != nil && !joints[int(*skin.Skeleton)] {
		return int(*skin.Skeleton)
	}
	for _, j := range skin.Joints {
		if p := g.parents[j]; !joints[p] {
			return p
		}
	}
	return -1
}

// FromGLTF builds a scene from the node tree. Skins become armatures with one pose bone per joint.
func FromGLTF(doc *gltf.Document) *Scene {
	s := New()
	g := newNodeGraph(doc)

	joints := map[int]bool{}
	for _, skin := range doc.Skins {
		for _, j := range skin.Joints {
			joints[int(j)] = true
		}
	}

	objects := map[int]*Object{}
	for i, node := range doc.Nodes {
		if joints[i] {
			continue
		}
		typ := ObjectEmpty
		if node.Mesh != nil {
			typ = ObjectMesh
		} else if node.Camera != nil {
			typ = ObjectCamera
		}
		obj := NewObject(nodeName(doc, i), typ)
		obj.node = i
		obj.matrixWorld = *g.world(i)
		objects[i] = obj
	}

	for si, skin := range doc.Skins {
		an := armatureNode(g, skin, joints)
		var arm *Object
		if an >= 0 {
			arm = objects[an]
		} else {
			name := skin.Name
			if name == "" {
				name = "Armature"
			}
			arm = NewObject(name, ObjectArmature)
		}
		if arm.Type == ObjectMesh {
			log.Printf("scene: mesh %q used as armature of skin %d", arm.Name, si)
		}
		arm.Type = ObjectArmature
		if arm.Pose == nil {
			arm.Pose = &Pose{}
		}
		inv := arm.MatrixWorld().Inverse()
		var added []uint32
		for _, j := range skin.Joints {
			name := nodeName(doc, int(j))
			if arm.Pose.Bone(name) != nil {
				continue
			}
			arm.Pose.AddBone(&PoseBone{Name: name, Matrix: *inv.Mul(g.world(int(j)))})
			added = append(added, j)
		}
		for _, j := range added {
			b := arm.Pose.Bone(nodeName(doc, int(j)))
			for p := g.parents[j]; p >= 0 && joints[p]; p = g.parents[p] {
				if pb := arm.Pose.Bone(nodeName(doc, p)); pb != nil {
					b.Parent = pb
					break
				}
			}
		}
		if an < 0 {
			s.Add(arm)
		}
	}

	// Objects under a joint are parented to its armature.
	for i := range doc.Nodes {
		obj := objects[i]
		if obj == nil {
			continue
		}
		s.Add(obj)
		p := g.parents[i]
		for p >= 0 && objects[p] == nil {
			p = g.parents[p]
		}
		if p >= 0 {
			obj.Parent = objects[p]
			obj.Parent.Children = append(obj.Parent.Children, obj)
		}
	}
	return s
}

// ApplyToGLTF writes modified world matrices back as node local matrices.
func (s *Scene) ApplyToGLTF(doc *gltf.Document) {
	g := newNodeGraph(doc)
	var modified []*Object
	for _, obj := range s.Objects {
		if obj.modified && obj.node >= 0 && obj.node < len(doc.Nodes) {
			g.overrides[obj.node] = obj.MatrixWorld()
			modified = append(modified, obj)
		}
	}
	for _, obj := range modified {
		local := obj.MatrixWorld()
		if p := g.parents[obj.node]; p >= 0 {
			local = g.world(p).Inverse().Mul(local)
		}
		node := doc.Nodes[obj.node]
		local.ToArray(node.Matrix[:])
		node.Translation = [3]float32{}
		node.Rotation = [4]float32{0, 0, 0, 1}
		node.Scale = [3]float32{1, 1, 1}
	}
}

// AddEmpty appends a root level node and returns it as an object of the scene.
func (s *Scene) AddEmpty(doc *gltf.Document, name string) *Object {
	doc.Nodes = append(doc.Nodes, &gltf.Node{
		Name:     name,
		Matrix:   gltf.DefaultMatrix,
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	})
	idx := len(doc.Nodes) - 1
	if len(doc.Scenes) == 0 {
		doc.Scenes = append(doc.Scenes, &gltf.Scene{})
		doc.Scene = gltf.Index(0)
	}
	sc := 0
	if doc.Scene != nil {
		sc = int(*doc.Scene)
	}
	doc.Scenes[sc].Nodes = append(doc.Scenes[sc].Nodes, uint32(idx))
	obj := NewObject(name, ObjectEmpty)
	obj.node = idx
	return s.Add(obj)
}
