package bvh

import (
	"fmt"
	"strings"

	"github.com/binzume/bvhkit/geom"
)

type Channel int

const (
	Xposition Channel = iota
	Yposition
	Zposition
	Xrotation
	Yrotation
	Zrotation
)

var channelNames = [...]string{"Xposition", "Yposition", "Zposition", "Xrotation", "Yrotation", "Zrotation"}

func ParseChannel(s string) (Channel, error) {
	for i, n := range channelNames {
		if strings.EqualFold(s, n) {
			return Channel(i), nil
		}
	}
	return 0, fmt.Errorf("unknown channel: %q", s)
}

func (c Channel) String() string {
	if c < 0 || int(c) >= len(channelNames) {
		return fmt.Sprintf("Channel(%d)", int(c))
	}
	return channelNames[c]
}

func (c Channel) IsRotation() bool {
	return c >= Xrotation
}

// Axis returns 0, 1 or 2 for X, Y or Z.
func (c Channel) Axis() int {
	return int(c) % 3
}

// Document is a parsed .bvh file.
type Document struct {
	Root      *Joint
	Joints    []*Joint // depth-first, in file order
	Frames    int
	FrameTime float64

	// Motion[frame][channel]
	Motion [][]float64
}

type Joint struct {
	Name     string
	Index    int
	Depth    int
	Parent   *Joint
	Children []*Joint

	Offset        geom.Vector3
	Channels      []Channel
	ChannelOffset int // column of the first channel in a motion row

	// Offset of "End Site" block. nil if the joint has none.
	EndSite *geom.Vector3
}

func (j *Joint) String() string {
	return j.Name
}

func (j *Joint) IsLeaf() bool {
	return len(j.Children) == 0
}

// ChannelCount returns the number of values in each motion row.
func (doc *Document) ChannelCount() int {
	n := 0
	for _, j := range doc.Joints {
		n += len(j.Channels)
	}
	return n
}

func (doc *Document) FindJoint(name string) *Joint {
	for _, j := range doc.Joints {
		if j.Name == name {
			return j
		}
	}
	return nil
}

// FPS returns frames per second rounded down, 0 if FrameTime is unknown.
func (doc *Document) FPS() int {
	if doc.FrameTime <= 0 {
		return 0
	}
	return int(1 / doc.FrameTime)
}

// KinematicChains splits the joints into runs that follow a single parent-child line.
// Usually: spine+head, arms and legs.
func (doc *Document) KinematicChains() [][]*Joint {
	var chains [][]*Joint
	var chain []*Joint
	lastDepth := -1
	for _, j := range doc.Joints {
		if j.Depth != lastDepth+1 && len(chain) > 0 {
			chains = append(chains, chain)
			chain = nil
		}
		lastDepth = j.Depth
		chain = append(chain, j)
	}
	if len(chain) > 0 {
		chains = append(chains, chain)
	}
	return chains
}
