package converter

import (
	"fmt"

	"github.com/binzume/bvhkit/bvh"
	"github.com/binzume/bvhkit/geom"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

type BVHToGLTFOption struct {
	// BVH files are usually in centimeters.
	Scale        float32
	Frame        int
	ArmatureName string
	// Adds a root level node with this name. "" to disable.
	EmptyName string
	Animation bool
}

func DefaultBVHToGLTFOption() *BVHToGLTFOption {
	return &BVHToGLTFOption{
		Scale:        0.01,
		ArmatureName: "Armature",
		EmptyName:    "Empty",
		Animation:    true,
	}
}

type bvhToGltf struct {
	*gltf.Document
	*BVHToGLTFOption
	h          *bvh.Hierarchy
	jointNodes []uint32
}

func (c *bvhToGltf) addMatrices(mat []*geom.Matrix4) uint32 {
	a := make([][4]float32, len(mat)*4)
	for i, m := range mat {
		copy(a[i*4+0][:], m[0:4])
		copy(a[i*4+1][:], m[4:8])
		copy(a[i*4+2][:], m[8:12])
		copy(a[i*4+3][:], m[12:16])
	}
	acc := modeler.WriteTangent(c.Document, a)
	c.Accessors[acc].Type = gltf.AccessorMat4
	c.Accessors[acc].Count /= 4
	c.BufferViews[*c.Accessors[acc].BufferView].ByteStride *= 4
	return acc
}

func (c *bvhToGltf) addJointNodes(armature *gltf.Node) {
	scale := c.Scale
	for _, j := range c.h.Joints {
		c.jointNodes = append(c.jointNodes, uint32(len(c.Nodes)))
		c.Nodes = append(c.Nodes, &gltf.Node{
			Name:        j.Name,
			Translation: [3]float32{j.Offset.X * scale, j.Offset.Y * scale, j.Offset.Z * scale},
			Rotation:    [4]float32{0, 0, 0, 1},
			Scale:       [3]float32{1, 1, 1},
		})
	}
	for _, j := range c.h.Joints {
		if j.Parent != nil {
			parent := c.Nodes[c.jointNodes[j.Parent.Index]]
			parent.Children = append(parent.Children, c.jointNodes[j.Index])
		} else {
			armature.Children = append(armature.Children, c.jointNodes[j.Index])
		}
	}
}

func (c *bvhToGltf) addSkin(name string, armature uint32) {
	scale := c.Scale
	invmats := make([]*geom.Matrix4, len(c.h.Joints))
	for i, p := range c.h.RestPositionWorld {
		invmats[i] = geom.NewTranslateMatrix4(-p.X*scale, -p.Y*scale, -p.Z*scale)
	}
	c.Skins = append(c.Skins, &gltf.Skin{
		Name:                name,
		Joints:              c.jointNodes,
		Skeleton:            gltf.Index(armature),
		InverseBindMatrices: gltf.Index(c.addMatrices(invmats)),
	})
}

func (c *bvhToGltf) applyPose(pose *bvh.Pose) {
	scale := c.Scale
	for _, pj := range pose.Joints() {
		node := c.Nodes[c.jointNodes[pj.Index]]
		pj.Position.Scale(scale).ToArray(node.Translation[:])
		pj.Rotation.ToArray(node.Rotation[:])
	}
}

func (c *bvhToGltf) addAnimation(name string) error {
	h := c.h
	if len(h.Motion) == 0 {
		return nil
	}
	keys := make([]float32, len(h.Motion))
	for f := range keys {
		keys[f] = float32(float64(f) * h.FrameTime)
	}
	keysAcc := modeler.WriteAccessor(c.Document, gltf.TargetArrayBuffer, keys)

	rotations := make([][][4]float32, len(h.Joints))
	translations := make([][][3]float32, len(h.Joints))
	for f := range h.Motion {
		pose, err := h.LoadPose(f)
		if err != nil {
			return err
		}
		for _, pj := range pose.Joints() {
			var r [4]float32
			pj.Rotation.ToArray(r[:])
			rotations[pj.Index] = append(rotations[pj.Index], r)
			var t [3]float32
			pj.Position.Scale(c.Scale).ToArray(t[:])
			translations[pj.Index] = append(translations[pj.Index], t)
		}
	}

	a := &gltf.Animation{Name: name}
	addChannel := func(node uint32, path gltf.TRSProperty, samplesAcc uint32) {
		a.Samplers = append(a.Samplers, &gltf.AnimationSampler{
			Input:         gltf.Index(keysAcc),
			Output:        gltf.Index(samplesAcc),
			Interpolation: gltf.InterpolationLinear,
		})
		a.Channels = append(a.Channels, &gltf.Channel{
			Sampler: gltf.Index(uint32(len(a.Samplers) - 1)),
			Target: gltf.ChannelTarget{
				Node: gltf.Index(node),
				Path: path,
			},
		})
	}
	for _, j := range h.Joints {
		var rotate, translate bool
		for _, ch := range j.Channels {
			if ch.IsRotation() {
				rotate = true
			} else {
				translate = true
			}
		}
		if rotate {
			addChannel(c.jointNodes[j.Index], gltf.TRSRotation, modeler.WriteTangent(c.Document, rotations[j.Index]))
		}
		if translate {
			addChannel(c.jointNodes[j.Index], gltf.TRSTranslation, modeler.WritePosition(c.Document, translations[j.Index]))
		}
	}
	if len(a.Channels) > 0 {
		c.Animations = append(c.Animations, a)
	}
	return nil
}

// BVHToGLTF builds a skinned node tree from h. Joint nodes are posed at opt.Frame.
func BVHToGLTF(h *bvh.Hierarchy, opt *BVHToGLTFOption) (*gltf.Document, error) {
	if opt == nil {
		opt = DefaultBVHToGLTFOption()
	}
	if opt.Scale <= 0 {
		return nil, fmt.Errorf("invalid scale: %v", opt.Scale)
	}
	c := &bvhToGltf{Document: gltf.NewDocument(), BVHToGLTFOption: opt, h: h}

	pose := h.RestPose()
	if len(h.Motion) > 0 {
		var err error
		if pose, err = h.LoadPose(opt.Frame); err != nil {
			return nil, err
		}
	}

	armatureName := opt.ArmatureName
	if armatureName == "" {
		armatureName = "Armature"
	}
	armature := &gltf.Node{Name: armatureName, Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}}
	c.Nodes = append(c.Nodes, armature)
	c.Scenes[0].Nodes = append(c.Scenes[0].Nodes, 0)
	c.addJointNodes(armature)
	c.addSkin(armatureName, 0)
	c.applyPose(pose)

	if opt.EmptyName != "" {
		c.Nodes = append(c.Nodes, &gltf.Node{Name: opt.EmptyName, Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}})
		c.Scenes[0].Nodes = append(c.Scenes[0].Nodes, uint32(len(c.Nodes)-1))
	}

	if opt.Animation {
		if err := c.addAnimation(armatureName); err != nil {
			return nil, err
		}
	}
	return c.Document, nil
}
