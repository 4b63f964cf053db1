package scene

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/binzume/bvhkit/geom"
	"github.com/qmuntal/gltf"
)

func newTestDocument() *gltf.Document {
	s := float32(math.Sqrt(0.5))
	doc := gltf.NewDocument()
	doc.Nodes = []*gltf.Node{
		{Name: "Armature", Translation: [3]float32{0, 0, 10}, Children: []uint32{1, 4}},
		{Name: "Hips", Translation: [3]float32{0, 1, 0}, Rotation: [4]float32{0, s, 0, s}, Children: []uint32{2}},
		{Name: "Spine", Translation: [3]float32{0, 1, 0}},
		{Name: "Empty", Translation: [3]float32{5, 0, 0}},
		{Name: "Body", Mesh: gltf.Index(0)},
	}
	doc.Skins = []*gltf.Skin{{Joints: []uint32{2, 1}}}
	doc.Scenes[0].Nodes = []uint32{0, 3}
	return doc
}

func nearMatrix(a, b *geom.Matrix4) bool {
	for i := range a {
		if geom.Abs(a[i]-b[i]) > 0.0001 {
			return false
		}
	}
	return true
}

func translation(m *geom.Matrix4) geom.Vector3 {
	return geom.Vector3{X: m[12], Y: m[13], Z: m[14]}
}

func nearVec(a, b geom.Vector3) bool {
	return a.Sub(&b).Len() < 0.0001
}

func TestFromGLTF(t *testing.T) {
	s := FromGLTF(newTestDocument())

	arm, err := s.Object("Armature")
	if err != nil {
		t.Fatal(err)
	}
	if arm.Type != ObjectArmature || arm.Pose == nil || len(arm.Pose.Bones) != 2 {
		t.Fatal("armature: ", arm.Type, arm.Pose)
	}
	if !nearVec(translation(arm.MatrixWorld()), geom.Vector3{Z: 10}) {
		t.Error("armature world: ", arm.MatrixWorld())
	}

	// Bone matrices are in armature space.
	hips, err := arm.PoseBone("Hips")
	if err != nil {
		t.Fatal(err)
	}
	if !nearVec(translation(&hips.Matrix), geom.Vector3{Y: 1}) {
		t.Error("Hips: ", hips.Matrix)
	}
	spine, _ := arm.PoseBone("Spine")
	if spine == nil || spine.Parent != hips || !nearVec(translation(&spine.Matrix), geom.Vector3{Y: 2}) {
		t.Error("Spine: ", spine)
	}
	// +X of Hips points to -Z after 90 degrees around Y.
	if x := hips.Matrix.ApplyTo(&geom.Vector3{X: 1}); !nearVec(*x, geom.Vector3{Y: 1, Z: -1}) {
		t.Error("Hips rotation: ", x)
	}

	if _, err := s.Object("Spine"); !errors.Is(err, ErrObjectNotFound) {
		t.Error("joints should not be objects: ", err)
	}
	body, _ := s.Object("Body")
	if body == nil || body.Type != ObjectMesh || body.Parent != arm {
		t.Error("Body: ", body)
	}
	empty, _ := s.Object("Empty")
	if empty == nil || empty.Type != ObjectEmpty || empty.Parent != nil || empty.Modified() {
		t.Error("Empty: ", empty)
	}
}

func TestFromGLTFWithoutArmatureNode(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Nodes = []*gltf.Node{{Name: "Hips", Translation: [3]float32{0, 3, 0}}}
	doc.Skins = []*gltf.Skin{{Joints: []uint32{0}}}
	s := FromGLTF(doc)
	m, err := s.Object("Armature")
	if err != nil {
		t.Fatal(err)
	}
	if *m.MatrixWorld() != *geom.NewMatrix4() {
		t.Error("synthetic armature should have identity world: ", m.MatrixWorld())
	}
	bm, err := BoneMatrix(m, "Hips")
	if err != nil || !nearVec(translation(bm), geom.Vector3{Y: 3}) {
		t.Error("BoneMatrix: ", bm, err)
	}
}

func TestSyncBoneToObject(t *testing.T) {
	s := FromGLTF(newTestDocument())
	arm, _ := s.Object("Armature")
	hips, _ := arm.PoseBone("Hips")

	target, err := SyncBoneToObject(s, nil)
	if err != nil {
		t.Fatal(err)
	}
	if target.Name != "Empty" || !target.Modified() {
		t.Error("target: ", target.Name)
	}
	if *target.MatrixWorld() != hips.Matrix {
		t.Error("matrix should be copied bit-exact: ", target.MatrixWorld(), hips.Matrix)
	}

	// Running again gives the same result.
	first := *target.MatrixWorld()
	if _, err := SyncBoneToObject(s, nil); err != nil {
		t.Fatal(err)
	}
	if *target.MatrixWorld() != first {
		t.Error("sync should be idempotent")
	}

	opt := DefaultSyncOptions()
	opt.WorldSpace = true
	if _, err := SyncBoneToObject(s, opt); err != nil {
		t.Fatal(err)
	}
	if !nearVec(translation(target.MatrixWorld()), geom.Vector3{Y: 1, Z: 10}) {
		t.Error("world space: ", target.MatrixWorld())
	}
}

func TestSyncBoneToObjectErrors(t *testing.T) {
	// Target is looked up first.
	s := New()
	_, err := SyncBoneToObject(s, nil)
	if !errors.Is(err, ErrObjectNotFound) || !strings.Contains(err.Error(), `"Empty"`) {
		t.Error("missing target: ", err)
	}

	s = FromGLTF(newTestDocument())
	empty, _ := s.Object("Empty")
	before := *empty.MatrixWorld()
	for _, c := range []struct {
		opt  SyncOptions
		want error
	}{
		{SyncOptions{Target: "Empty", Armature: "NoArmature", Bone: "Hips"}, ErrObjectNotFound},
		{SyncOptions{Target: "Empty", Armature: "Armature", Bone: "NoBone"}, ErrBoneNotFound},
		{SyncOptions{Target: "Empty", Armature: "Body", Bone: "Hips"}, ErrNotArmature},
	} {
		opt := c.opt
		if _, err := SyncBoneToObject(s, &opt); !errors.Is(err, c.want) {
			t.Error("error: ", c.opt, err)
		}
	}
	if empty.Modified() || *empty.MatrixWorld() != before {
		t.Error("failed sync should not modify the target")
	}
	if _, err := SyncBoneToObject(s, &SyncOptions{Target: "Armature", Armature: "Armature", Bone: "Hips"}); err == nil {
		t.Error("armature should not be synced to itself")
	}
	if arm, _ := s.Object("Armature"); arm.Modified() {
		t.Error("armature should stay unmodified")
	}
}

type recordingSetter struct {
	calls []geom.Matrix4
}

func (r *recordingSetter) SetMatrixWorld(m *geom.Matrix4) {
	r.calls = append(r.calls, *m)
}

func TestCopyWorldTransform(t *testing.T) {
	src := geom.NewTRSMatrix4(&geom.Vector3{X: 1, Y: 2, Z: 3}, geom.NewQuaternionFromAxisAngle(&geom.Vector3{Z: 1}, 0.3), &geom.Vector3{X: 2, Y: 2, Z: 2})
	r := &recordingSetter{}
	CopyWorldTransform(src, r)
	if len(r.calls) != 1 || r.calls[0] != *src {
		t.Error("calls: ", r.calls)
	}
}

func TestApplyToGLTF(t *testing.T) {
	doc := newTestDocument()
	s := FromGLTF(doc)
	target, err := SyncBoneToObject(s, nil)
	if err != nil {
		t.Fatal(err)
	}
	s.ApplyToGLTF(doc)

	node := doc.Nodes[3]
	if geom.Matrix4(node.Matrix) != *target.MatrixWorld() {
		t.Error("root node matrix: ", node.Matrix)
	}
	if node.Translation != [3]float32{} || node.Scale != [3]float32{1, 1, 1} {
		t.Error("TRS should be reset: ", node.Translation, node.Scale)
	}
	if doc.Nodes[1].Matrix == node.Matrix {
		t.Error("unmodified nodes should keep their transform")
	}

	reloaded, _ := FromGLTF(doc).Object("Empty")
	if *reloaded.MatrixWorld() != *target.MatrixWorld() {
		t.Error("reloaded: ", reloaded.MatrixWorld())
	}
}

func TestApplyToGLTFChild(t *testing.T) {
	doc := newTestDocument()
	doc.Scenes[0].Nodes = []uint32{0}
	doc.Nodes[0].Children = append(doc.Nodes[0].Children, 3)
	s := FromGLTF(doc)
	empty, _ := s.Object("Empty")
	arm, _ := s.Object("Armature")
	if empty.Parent != arm || !nearVec(translation(empty.MatrixWorld()), geom.Vector3{X: 5, Z: 10}) {
		t.Fatal("Empty: ", empty.MatrixWorld())
	}

	want := geom.NewTranslateMatrix4(1, 2, 3)
	empty.SetMatrixWorld(want)
	s.ApplyToGLTF(doc)
	if !nearVec(translation(geom.NewMatrix4FromSlice(doc.Nodes[3].Matrix[:])), geom.Vector3{X: 1, Y: 2, Z: -7}) {
		t.Error("local matrix: ", doc.Nodes[3].Matrix)
	}
	reloaded, _ := FromGLTF(doc).Object("Empty")
	if !nearMatrix(reloaded.MatrixWorld(), want) {
		t.Error("reloaded: ", reloaded.MatrixWorld())
	}
}

func TestAddEmpty(t *testing.T) {
	doc := newTestDocument()
	s := FromGLTF(doc)
	obj := s.AddEmpty(doc, "Empty")
	if obj.Name != "Empty.001" || obj.node != len(doc.Nodes)-1 {
		t.Error("AddEmpty: ", obj.Name, obj.node)
	}
	if n := doc.Scenes[0].Nodes; n[len(n)-1] != uint32(obj.node) {
		t.Error("scene nodes: ", n)
	}
}
