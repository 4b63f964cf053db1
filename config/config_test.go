package config

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/binzume/bvhkit/scene"
	"github.com/google/go-cmp/cmp"
	"github.com/qmuntal/gltf"
)

func TestLoad(t *testing.T) {
	conf, err := Load("testdata/sync.yaml")
	if err != nil {
		t.Fatal(err)
	}
	want := &Config{
		Target:       "Marker",
		Armature:     "Rig",
		Bone:         "Hips",
		BoneAliases:  []string{"mixamorig:Hips", "pelvis"},
		HumanoidBone: "hips",
		WorldSpace:   true,
		Frame:        1,
		Scale:        0.02,
		Output:       "out.glb",
	}
	if diff := cmp.Diff(want, conf); diff != "" {
		t.Error("config (-want +got):\n", diff)
	}

	opt := conf.ConverterOption()
	if opt.ArmatureName != "Rig" || opt.EmptyName != "Marker" || opt.Frame != 1 || opt.Scale != 0.02 {
		t.Error("ConverterOption: ", opt)
	}

	if _, err := Load("testdata/notfound.yaml"); !errors.Is(err, os.ErrNotExist) {
		t.Error("missing file: ", err)
	}
}

func TestDecode(t *testing.T) {
	conf, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Default(), conf); diff != "" {
		t.Error("empty input should give defaults (-want +got):\n", diff)
	}
	if conf.Target != "Empty" || conf.Armature != "Armature" || conf.Bone != "Hips" {
		t.Error("defaults: ", conf)
	}

	conf, err = Decode(strings.NewReader("bone: Root\n"))
	if err != nil || conf.Bone != "Root" || conf.Target != "Empty" {
		t.Error("partial: ", conf, err)
	}

	for _, src := range []string{"unknown: 1\n", "scale: 0\n", "frame: [1\n"} {
		if _, err := Decode(strings.NewReader(src)); err == nil {
			t.Error("Decode should fail: ", src)
		}
	}
}

func TestResolveBone(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Nodes = []*gltf.Node{
		{Name: "Armature", Children: []uint32{1}},
		{Name: "mixamorig:Hips"},
		{Name: "Empty"},
	}
	doc.Skins = []*gltf.Skin{{Joints: []uint32{1}}}
	s := scene.FromGLTF(doc)

	conf := Default()
	conf.BoneAliases = []string{"pelvis", "mixamorig:Hips"}
	opt := conf.SyncOptions(s)
	if opt.Bone != "mixamorig:Hips" || opt.Target != "Empty" || opt.Armature != "Armature" {
		t.Error("SyncOptions: ", opt)
	}
	if _, err := scene.SyncBoneToObject(s, opt); err != nil {
		t.Error(err)
	}

	conf.BoneAliases = nil
	if b := conf.ResolveBone(s); b != "Hips" {
		t.Error("unresolved bone should stay as configured: ", b)
	}
}
