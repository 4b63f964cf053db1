package bvh

import (
	"fmt"
	"io"
	"strings"
)

// DumpPose writes name, parent, local rotation, world rotation and world position of every joint.
func DumpPose(w io.Writer, pose *Pose) error {
	for _, e := range pose.Layout() {
		j := e.Joint
		parent := "None"
		if j.Parent != nil {
			parent = j.Parent.Name
		}
		_, err := fmt.Fprintf(w, "===================== frame: %d\n%s %d %d\nParent: %s\n%v\n%v\n%v\n",
			pose.Frame, j.Name, e.Index, e.Depth, parent, *j.Rotation, *j.RotationWorld, *j.PositionWorld)
		if err != nil {
			return err
		}
	}
	return nil
}

// DumpChains writes one kinematic chain per line.
func DumpChains(w io.Writer, doc *Document) error {
	for i, chain := range doc.KinematicChains() {
		names := make([]string, len(chain))
		for k, j := range chain {
			names[k] = j.Name
		}
		if _, err := fmt.Fprintf(w, "chain %d: %s\n", i, strings.Join(names, " > ")); err != nil {
			return err
		}
	}
	return nil
}
