package scene

import (
	"fmt"

	"github.com/binzume/bvhkit/geom"
)

type WorldTransformSetter interface {
	SetMatrixWorld(m *geom.Matrix4)
}

// CopyWorldTransform assigns src to dst without modification.
func CopyWorldTransform(src *geom.Matrix4, dst WorldTransformSetter) {
	dst.SetMatrixWorld(src.Clone())
}

// BoneMatrix returns the armature space pose matrix of bone.
func BoneMatrix(obj *Object, bone string) (*geom.Matrix4, error) {
	b, err := obj.PoseBone(bone)
	if err != nil {
		return nil, err
	}
	return b.Matrix.Clone(), nil
}

type SyncOptions struct {
	// Must not be the armature itself.
	Target   string
	Armature string
	Bone     string

	// Convert the bone matrix from armature space to world space before copying.
	WorldSpace bool
}

func DefaultSyncOptions() *SyncOptions {
	return &SyncOptions{
		Target:   "Empty",
		Armature: "Armature",
		Bone:     "Hips",
	}
}

// SyncBoneToObject copies the pose matrix of a bone onto the world matrix of the target object.
// Nothing is assigned unless all lookups succeed.
func SyncBoneToObject(s *Scene, opt *SyncOptions) (*Object, error) {
	if opt == nil {
		opt = DefaultSyncOptions()
	}
	target, err := s.Object(opt.Target)
	if err != nil {
		return nil, err
	}
	armature, err := s.Object(opt.Armature)
	if err != nil {
		return nil, err
	}
	m, err := BoneMatrix(armature, opt.Bone)
	if err != nil {
		return nil, err
	}
	if target == armature {
		return nil, fmt.Errorf("target %q is the armature itself", opt.Target)
	}
	if opt.WorldSpace {
		m = armature.MatrixWorld().Mul(m)
	}
	CopyWorldTransform(m, target)
	return target, nil
}
