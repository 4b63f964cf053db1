package vrm

// https://vrm.dev/
// https://github.com/vrm-c/vrm-specification

import (
	"encoding/json"

	"github.com/qmuntal/gltf"
)

const (
	ExtensionName   = "VRM"      // 0.x
	ExtensionNameV1 = "VRMC_vrm" // 1.0
)

func init() {
	gltf.RegisterExtension(ExtensionName, Unmarshal)
	gltf.RegisterExtension(ExtensionNameV1, UnmarshalV1)
}

type Metadata struct {
	Title   string `json:"title"`
	Version string `json:"version"`
	Author  string `json:"author"`
}

type Bone struct {
	Bone string `json:"bone"`
	Node int    `json:"node"`
}

type Humanoid struct {
	Bones []*Bone `json:"humanBones"`
}

type VRM struct {
	Meta            Metadata `json:"meta"`
	Humanoid        Humanoid `json:"humanoid"`
	ExporterVersion string   `json:"exporterVersion"`
}

type HumanBone struct {
	Node int `json:"node"`
}

type VRMC struct {
	SpecVersion string `json:"specVersion"`
	Humanoid    struct {
		HumanBones map[string]HumanBone `json:"humanBones"`
	} `json:"humanoid"`
}

func Unmarshal(data []byte) (interface{}, error) {
	var ext VRM
	if err := json.Unmarshal(data, &ext); err != nil {
		return nil, err
	}
	return &ext, nil
}

func UnmarshalV1(data []byte) (interface{}, error) {
	var ext VRMC
	if err := json.Unmarshal(data, &ext); err != nil {
		return nil, err
	}
	return &ext, nil
}

// HumanBoneNode returns the node mapped to a humanoid bone such as "hips".
func HumanBoneNode(doc *gltf.Document, bone string) (int, bool) {
	node := -1
	if ext, ok := doc.Extensions[ExtensionNameV1].(*VRMC); ok {
		if b, ok := ext.Humanoid.HumanBones[bone]; ok {
			node = b.Node
		}
	} else if ext, ok := doc.Extensions[ExtensionName].(*VRM); ok {
		for _, b := range ext.Humanoid.Bones {
			if b.Bone == bone {
				node = b.Node
				break
			}
		}
	}
	if node < 0 || node >= len(doc.Nodes) {
		return -1, false
	}
	return node, true
}

// HumanBoneName returns the node name of a humanoid bone.
func HumanBoneName(doc *gltf.Document, bone string) (string, bool) {
	node, ok := HumanBoneNode(doc, bone)
	if !ok || doc.Nodes[node].Name == "" {
		return "", false
	}
	return doc.Nodes[node].Name, true
}
