package bvh

import "github.com/binzume/bvhkit/geom"

// PoseJoint is a joint evaluated at one frame.
type PoseJoint struct {
	Name     string
	Index    int
	Depth    int
	Parent   *PoseJoint // nil for root
	Children []*PoseJoint

	Rotation      *geom.Quaternion // relative to parent
	RotationWorld *geom.Quaternion
	Position      *geom.Vector3 // relative to parent
	PositionWorld *geom.Vector3

	// World position of the end site. nil if the joint has none.
	EndSiteWorld *geom.Vector3
}

func (j *PoseJoint) String() string {
	return j.Name
}

func (j *PoseJoint) MatrixWorld() *geom.Matrix4 {
	return geom.NewTRSMatrix4(j.PositionWorld, j.RotationWorld, &geom.Vector3{X: 1, Y: 1, Z: 1})
}

type Pose struct {
	Frame  int // -1 for rest pose
	joints []*PoseJoint
}

// LayoutEntry is one item of Pose.Layout().
type LayoutEntry struct {
	Joint *PoseJoint
	Index int
	Depth int
}

func (p *Pose) link(j *Joint, pj *PoseJoint) {
	if j.Parent != nil {
		pj.Parent = p.joints[j.Parent.Index]
		pj.Parent.Children = append(pj.Parent.Children, pj)
	}
	if j.EndSite != nil {
		pj.EndSiteWorld = pj.PositionWorld.Add(pj.RotationWorld.ApplyTo(j.EndSite))
	}
	p.joints = append(p.joints, pj)
}

// Joints returns joints in file order.
func (p *Pose) Joints() []*PoseJoint {
	return p.joints
}

func (p *Pose) Root() *PoseJoint {
	if len(p.joints) == 0 {
		return nil
	}
	return p.joints[0]
}

func (p *Pose) Joint(name string) *PoseJoint {
	for _, j := range p.joints {
		if j.Name == name {
			return j
		}
	}
	return nil
}

// Layout walks the hierarchy depth-first. Parents always precede their children.
func (p *Pose) Layout() []LayoutEntry {
	var layout []LayoutEntry
	var walk func(j *PoseJoint, depth int)
	walk = func(j *PoseJoint, depth int) {
		layout = append(layout, LayoutEntry{Joint: j, Index: len(layout), Depth: depth})
		for _, c := range j.Children {
			walk(c, depth+1)
		}
	}
	if root := p.Root(); root != nil {
		walk(root, 0)
	}
	return layout
}
