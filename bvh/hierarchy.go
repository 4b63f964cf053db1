package bvh

import (
	"fmt"
	"math"

	"github.com/binzume/bvhkit/geom"
)

// Hierarchy is a document with its rest pose resolved.
type Hierarchy struct {
	*Document

	// Indexed by Joint.Index.
	RestPositionWorld []*geom.Vector3
	RestRotationWorld []*geom.Quaternion
}

func NewHierarchy(doc *Document) *Hierarchy {
	h := &Hierarchy{
		Document:          doc,
		RestPositionWorld: make([]*geom.Vector3, len(doc.Joints)),
		RestRotationWorld: make([]*geom.Quaternion, len(doc.Joints)),
	}
	for _, j := range doc.Joints {
		pos := j.Offset
		if j.Parent != nil {
			pos = *h.RestPositionWorld[j.Parent.Index].Add(&j.Offset)
		}
		h.RestPositionWorld[j.Index] = &pos
		h.RestRotationWorld[j.Index] = restRotation(tailOffset(j))
	}
	return h
}

// ReadAsHierarchy loads a .bvh file.
func ReadAsHierarchy(path string) (*Hierarchy, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewHierarchy(doc), nil
}

// tailOffset is the vector from the joint head to its tail in rest pose.
func tailOffset(j *Joint) *geom.Vector3 {
	switch {
	case len(j.Children) == 1:
		v := j.Children[0].Offset
		return &v
	case len(j.Children) > 1:
		sum := &geom.Vector3{}
		for _, c := range j.Children {
			sum = sum.Add(&c.Offset)
		}
		return sum.Scale(1 / geom.Element(len(j.Children)))
	case j.EndSite != nil:
		v := *j.EndSite
		return &v
	}
	return &geom.Vector3{Y: 1}
}

// restRotation rotates +Y onto the tail direction.
func restRotation(tail *geom.Vector3) *geom.Quaternion {
	up := &geom.Vector3{Y: 1}
	dir := up
	if tail.LenSqr() > 0 {
		dir = tail.Scale(1).Normalize()
	}
	dot := up.Dot(dir)
	if dot < -0.9999 {
		return &geom.Quaternion{Z: 1}
	} else if dot > 0.9999 {
		return geom.NewIdentityQuaternion()
	}
	axis := up.Cross(dir).Normalize()
	return geom.NewQuaternionFromAxisAngle(axis, geom.Element(math.Acos(float64(dot))))
}

func rotationOrder(channels []Channel) (geom.RotationOrder, bool) {
	var name []byte
	for _, c := range channels {
		if c.IsRotation() {
			name = append(name, "XYZ"[c.Axis()])
		}
	}
	return geom.ParseRotationOrder(string(name))
}

// localTransform evaluates the joint channels for one motion row.
func (j *Joint) localTransform(row []float64) (*geom.Vector3, *geom.Quaternion) {
	pos := j.Offset
	var angles [3]float64
	rot := geom.NewIdentityQuaternion()
	axes := [3]geom.Vector3{{X: 1}, {Y: 1}, {Z: 1}}
	for i, c := range j.Channels {
		v := row[j.ChannelOffset+i]
		if c.IsRotation() {
			angles[c.Axis()] = v
			rot = rot.Mul(geom.NewQuaternionFromAxisAngle(&axes[c.Axis()], geom.DegToRad(v)))
		} else {
			switch c.Axis() {
			case 0:
				pos.X = geom.Element(v)
			case 1:
				pos.Y = geom.Element(v)
			case 2:
				pos.Z = geom.Element(v)
			}
		}
	}
	if order, ok := rotationOrder(j.Channels); ok {
		rot = geom.NewEuler(geom.DegToRad(angles[0]), geom.DegToRad(angles[1]), geom.DegToRad(angles[2]), order).ToQuaternion()
	}
	return &pos, rot
}

// LoadPose evaluates all joints at frame.
func (h *Hierarchy) LoadPose(frame int) (*Pose, error) {
	if frame < 0 || frame >= len(h.Motion) {
		return nil, fmt.Errorf("bvh: frame %d out of range (%d frames)", frame, len(h.Motion))
	}
	return h.evalPose(frame, h.Motion[frame]), nil
}

// RestPose returns the pose with all channels ignored.
func (h *Hierarchy) RestPose() *Pose {
	pose := &Pose{Frame: -1}
	for _, j := range h.Joints {
		pj := &PoseJoint{
			Name:          j.Name,
			Index:         j.Index,
			Depth:         j.Depth,
			Rotation:      geom.NewIdentityQuaternion(),
			RotationWorld: geom.NewIdentityQuaternion(),
			Position:      &geom.Vector3{X: j.Offset.X, Y: j.Offset.Y, Z: j.Offset.Z},
			PositionWorld: h.RestPositionWorld[j.Index],
		}
		pose.link(j, pj)
	}
	return pose
}

func (h *Hierarchy) evalPose(frame int, row []float64) *Pose {
	pose := &Pose{Frame: frame}
	for _, j := range h.Joints {
		pos, rot := j.localTransform(row)
		pj := &PoseJoint{
			Name:     j.Name,
			Index:    j.Index,
			Depth:    j.Depth,
			Rotation: rot,
			Position: pos,
		}
		if j.Parent == nil {
			pj.RotationWorld = rot
			pj.PositionWorld = pos
		} else {
			parent := pose.joints[j.Parent.Index]
			pj.RotationWorld = parent.RotationWorld.Mul(rot)
			pj.PositionWorld = parent.PositionWorld.Add(parent.RotationWorld.ApplyTo(pos))
		}
		pose.link(j, pj)
	}
	return pose
}
