package converter

import (
	"testing"

	"github.com/binzume/bvhkit/bvh"
	"github.com/binzume/bvhkit/geom"
	"github.com/binzume/bvhkit/scene"
	"github.com/google/go-cmp/cmp"
	"github.com/qmuntal/gltf"
)

const testBVH = "../bvh/testdata/simple.bvh"

func TestBVHToGLTF(t *testing.T) {
	h, err := bvh.ReadAsHierarchy(testBVH)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := BVHToGLTF(h, nil)
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, n := range doc.Nodes {
		names = append(names, n.Name)
	}
	if diff := cmp.Diff([]string{"Armature", "Hips", "Spine", "Head", "LeftUpLeg", "LeftLeg", "Empty"}, names); diff != "" {
		t.Error("nodes (-want +got):\n", diff)
	}
	if diff := cmp.Diff([]uint32{0, 6}, doc.Scenes[0].Nodes); diff != "" {
		t.Error("scene nodes (-want +got):\n", diff)
	}

	if len(doc.Skins) != 1 || len(doc.Skins[0].Joints) != 5 || *doc.Skins[0].Skeleton != 0 {
		t.Fatal("skin: ", doc.Skins)
	}
	ibm := doc.Accessors[*doc.Skins[0].InverseBindMatrices]
	if ibm.Type != gltf.AccessorMat4 || ibm.Count != 5 {
		t.Error("inverse bind matrices: ", ibm.Type, ibm.Count)
	}

	if len(doc.Animations) != 1 {
		t.Fatal("animations: ", len(doc.Animations))
	}
	// Hips has rotation and translation, other joints rotation only.
	if n := len(doc.Animations[0].Channels); n != 6 {
		t.Error("channels: ", n)
	}
	if keys := doc.Accessors[*doc.Animations[0].Samplers[0].Input]; keys.Count != 2 {
		t.Error("keys: ", keys.Count)
	}
}

func TestBVHToGLTFFrame(t *testing.T) {
	h, err := bvh.ReadAsHierarchy(testBVH)
	if err != nil {
		t.Fatal(err)
	}
	opt := DefaultBVHToGLTFOption()
	opt.Frame = 1
	opt.Animation = false
	doc, err := BVHToGLTF(h, opt)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Animations) != 0 {
		t.Error("animation should be disabled")
	}

	s := scene.FromGLTF(doc)
	arm, err := s.Object("Armature")
	if err != nil {
		t.Fatal(err)
	}
	pose, _ := h.LoadPose(1)
	for _, pj := range pose.Joints() {
		m, err := scene.BoneMatrix(arm, pj.Name)
		if err != nil {
			t.Fatal(err)
		}
		want := pj.PositionWorld.Scale(opt.Scale)
		if got := (&geom.Vector3{X: m[12], Y: m[13], Z: m[14]}); got.Sub(want).Len() > 0.0001 {
			t.Error("bone position: ", pj.Name, got, want)
		}
	}

	target, err := scene.SyncBoneToObject(s, nil)
	if err != nil {
		t.Fatal(err)
	}
	hips, _ := scene.BoneMatrix(arm, "Hips")
	if *target.MatrixWorld() != *hips {
		t.Error("Empty should have the Hips matrix")
	}

	opt.Frame = 2
	if _, err := BVHToGLTF(h, opt); err == nil {
		t.Error("frame out of range should fail")
	}
	opt.Frame = 0
	opt.Scale = 0
	if _, err := BVHToGLTF(h, opt); err == nil {
		t.Error("zero scale should fail")
	}
	opt.Scale = -1
	if _, err := BVHToGLTF(h, opt); err == nil {
		t.Error("negative scale should fail")
	}
}

func TestBVHToGLTFWithoutEmpty(t *testing.T) {
	h, err := bvh.ReadAsHierarchy(testBVH)
	if err != nil {
		t.Fatal(err)
	}
	opt := DefaultBVHToGLTFOption()
	opt.EmptyName = ""
	doc, err := BVHToGLTF(h, opt)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := scene.SyncBoneToObject(scene.FromGLTF(doc), nil); err == nil {
		t.Error("sync without Empty should fail")
	}
}
