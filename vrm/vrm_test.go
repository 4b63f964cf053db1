package vrm

import (
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
)

func decode(t *testing.T, src string) *gltf.Document {
	t.Helper()
	var doc gltf.Document
	if err := gltf.NewDecoder(strings.NewReader(src)).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	return &doc
}

func TestHumanBoneV0(t *testing.T) {
	doc := decode(t, `{
		"asset": {"version": "2.0"},
		"nodes": [{"name": "Root"}, {"name": "J_Bip_C_Hips"}],
		"extensionsUsed": ["VRM"],
		"extensions": {"VRM": {
			"meta": {"title": "test"},
			"humanoid": {"humanBones": [{"bone": "spine", "node": 0}, {"bone": "hips", "node": 1}]}
		}}
	}`)
	if ext, ok := doc.Extensions[ExtensionName].(*VRM); !ok || ext.Meta.Title != "test" {
		t.Fatal("VRM extension not found: ", doc.Extensions[ExtensionName])
	}
	if name, ok := HumanBoneName(doc, "hips"); !ok || name != "J_Bip_C_Hips" {
		t.Error("hips: ", name, ok)
	}
	if _, ok := HumanBoneName(doc, "head"); ok {
		t.Error("head should not be found")
	}
}

func TestHumanBoneV1(t *testing.T) {
	doc := decode(t, `{
		"asset": {"version": "2.0"},
		"nodes": [{"name": "Hips"}],
		"extensionsUsed": ["VRMC_vrm"],
		"extensions": {"VRMC_vrm": {
			"specVersion": "1.0",
			"humanoid": {"humanBones": {"hips": {"node": 0}, "chest": {"node": 5}}}
		}}
	}`)
	if n, ok := HumanBoneNode(doc, "hips"); !ok || n != 0 {
		t.Error("hips: ", n, ok)
	}
	if _, ok := HumanBoneNode(doc, "chest"); ok {
		t.Error("node out of range should not be found")
	}
}

func TestHumanBoneWithoutExtension(t *testing.T) {
	if _, ok := HumanBoneNode(gltf.NewDocument(), "hips"); ok {
		t.Error("plain glTF has no humanoid")
	}
}
