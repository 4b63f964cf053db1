package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/binzume/bvhkit/converter"
	"github.com/binzume/bvhkit/scene"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Target   string `yaml:"target"`
	Armature string `yaml:"armature"`
	Bone     string `yaml:"bone"`
	// Tried in order when Bone is not found. e.g. "mixamorig:Hips"
	BoneAliases []string `yaml:"boneAliases"`
	// VRM humanoid bone used when Bone is not found.
	HumanoidBone string `yaml:"humanoidBone"`

	WorldSpace bool `yaml:"worldSpace"`

	// BVH input only.
	Frame int     `yaml:"frame"`
	Scale float32 `yaml:"scale"`

	Output string `yaml:"output"`
}

func Default() *Config {
	sync := scene.DefaultSyncOptions()
	conv := converter.DefaultBVHToGLTFOption()
	return &Config{
		Target:   sync.Target,
		Armature: sync.Armature,
		Bone:     sync.Bone,
		Scale:    conv.Scale,

		HumanoidBone: "hips",
	}
}

// Decode reads YAML from r over the defaults. Unknown keys are an error.
func Decode(r io.Reader) (*Config, error) {
	conf := Default()
	dec := yaml.NewDecoder(r)
	dec.SetStrict(true)
	if err := dec.Decode(conf); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if conf.Scale <= 0 {
		return nil, fmt.Errorf("invalid scale: %v", conf.Scale)
	}
	return conf, nil
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	conf, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return conf, nil
}

// ResolveBone returns the first of Bone and BoneAliases that exists in the armature.
func (c *Config) ResolveBone(s *scene.Scene) string {
	arm, err := s.Object(c.Armature)
	if err != nil {
		return c.Bone
	}
	for _, name := range append([]string{c.Bone}, c.BoneAliases...) {
		if _, err := arm.PoseBone(name); err == nil {
			return name
		}
	}
	return c.Bone
}

func (c *Config) SyncOptions(s *scene.Scene) *scene.SyncOptions {
	return &scene.SyncOptions{
		Target:     c.Target,
		Armature:   c.Armature,
		Bone:       c.ResolveBone(s),
		WorldSpace: c.WorldSpace,
	}
}

func (c *Config) ConverterOption() *converter.BVHToGLTFOption {
	opt := converter.DefaultBVHToGLTFOption()
	opt.Scale = c.Scale
	opt.Frame = c.Frame
	opt.ArmatureName = c.Armature
	opt.EmptyName = c.Target
	return opt
}
