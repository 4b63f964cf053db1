package scene

import (
	"errors"
	"fmt"

	"github.com/binzume/bvhkit/geom"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrNotArmature    = errors.New("object is not an armature")
	ErrBoneNotFound   = errors.New("bone not found")
)

type ObjectType int

const (
	ObjectEmpty ObjectType = iota
	ObjectMesh
	ObjectArmature
	ObjectCamera
)

func (t ObjectType) String() string {
	switch t {
	case ObjectEmpty:
		return "EMPTY"
	case ObjectMesh:
		return "MESH"
	case ObjectArmature:
		return "ARMATURE"
	case ObjectCamera:
		return "CAMERA"
	}
	return fmt.Sprintf("ObjectType(%d)", int(t))
}

type Object struct {
	Name     string
	Type     ObjectType
	Parent   *Object
	Children []*Object

	// Armature only.
	Pose *Pose

	matrixWorld geom.Matrix4
	modified    bool
	node        int // gltf node index, -1 if not backed by a node
}

func NewObject(name string, typ ObjectType) *Object {
	return &Object{Name: name, Type: typ, matrixWorld: *geom.NewMatrix4(), node: -1}
}

// MatrixWorld returns a copy of the world transform.
func (o *Object) MatrixWorld() *geom.Matrix4 {
	return o.matrixWorld.Clone()
}

func (o *Object) SetMatrixWorld(m *geom.Matrix4) {
	o.matrixWorld = *m
	o.modified = true
}

// Modified reports whether SetMatrixWorld was called since the object was loaded.
func (o *Object) Modified() bool {
	return o.modified
}

func (o *Object) PoseBone(name string) (*PoseBone, error) {
	if o.Type != ObjectArmature || o.Pose == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotArmature, o.Name)
	}
	b := o.Pose.Bone(name)
	if b == nil {
		return nil, fmt.Errorf("%w: %q in %q", ErrBoneNotFound, name, o.Name)
	}
	return b, nil
}

type PoseBone struct {
	Name   string
	Parent *PoseBone

	// Armature space.
	Matrix geom.Matrix4
}

type Pose struct {
	Bones  []*PoseBone
	byName map[string]*PoseBone
}

func (p *Pose) Bone(name string) *PoseBone {
	return p.byName[name]
}

func (p *Pose) AddBone(b *PoseBone) {
	if p.byName == nil {
		p.byName = map[string]*PoseBone{}
	}
	p.Bones = append(p.Bones, b)
	p.byName[b.Name] = b
}

// Scene is the object table of one document.
type Scene struct {
	Objects []*Object
	byName  map[string]*Object
}

func New() *Scene {
	return &Scene{byName: map[string]*Object{}}
}

// Add registers obj. Duplicate names get a numeric suffix (Empty, Empty.001, ...).
func (s *Scene) Add(obj *Object) *Object {
	if _, exists := s.byName[obj.Name]; exists {
		base := obj.Name
		for i := 1; ; i++ {
			name := fmt.Sprintf("%s.%03d", base, i)
			if _, exists := s.byName[name]; !exists {
				obj.Name = name
				break
			}
		}
	}
	s.Objects = append(s.Objects, obj)
	s.byName[obj.Name] = obj
	return obj
}

func (s *Scene) Object(name string) (*Object, error) {
	if obj, ok := s.byName[name]; ok {
		return obj, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrObjectNotFound, name)
}
