package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/bvhkit/bvh"
	"github.com/binzume/bvhkit/config"
	"github.com/binzume/bvhkit/converter"
	"github.com/binzume/bvhkit/geom"
	"github.com/binzume/bvhkit/gltfutil"
	"github.com/binzume/bvhkit/scene"
	"github.com/binzume/bvhkit/vrm"
	"github.com/qmuntal/gltf"
)

func defaultOutputFile(input string) string {
	ext := filepath.Ext(input)
	return input[0:len(input)-len(ext)] + ".synced.glb"
}

func loadDocument(input string, conf *config.Config, scaleSet bool) (*gltf.Document, error) {
	ext := strings.ToLower(filepath.Ext(input))
	if ext == ".bvh" {
		h, err := bvh.ReadAsHierarchy(input)
		if err != nil {
			return nil, err
		}
		log.Printf("%d joints, %d frames", len(h.Joints), h.Frames)
		return converter.BVHToGLTF(h, conf.ConverterOption())
	} else if ext == ".glb" || ext == ".gltf" {
		doc, err := gltfutil.Load(input)
		if err != nil {
			return nil, err
		}
		if scaleSet {
			if err := gltfutil.Scale(doc, conf.Scale); err != nil {
				return nil, err
			}
		}
		return doc, nil
	}
	return nil, fmt.Errorf("Unsupported input type: %v", ext)
}

func printMatrix(label string, m *geom.Matrix4) {
	fmt.Println(label)
	rows := m.Transposed()
	for r := 0; r < 16; r += 4 {
		fmt.Printf("  %10.4f %10.4f %10.4f %10.4f\n", rows[r], rows[r+1], rows[r+2], rows[r+3])
	}
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.glb|input.gltf|input.bvh [output.glb]\n", os.Args[0])
		flag.PrintDefaults()
	}
	confFile := flag.String("config", "", "YAML config file")
	target := flag.String("target", "", "target object name (default Empty)")
	armature := flag.String("armature", "", "armature object name (default Armature)")
	bone := flag.String("bone", "", "bone name (default Hips)")
	humanoid := flag.String("humanoid", "", "VRM humanoid bone used when the bone is not found (default hips)")
	frame := flag.Int("frame", 0, "frame for .bvh input")
	scale := flag.Float64("scale", 0, "scale for .bvh input (default 0.01), rescale for glTF input")
	worldSpace := flag.Bool("worldspace", false, "copy the bone matrix in world space")
	output := flag.String("o", "", "output file")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return
	}
	input := flag.Arg(0)

	conf := config.Default()
	if *confFile != "" {
		var err error
		if conf, err = config.Load(*confFile); err != nil {
			log.Fatal(err)
		}
	}

	// Flags override the config file.
	scaleSet := false
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "target":
			conf.Target = *target
		case "armature":
			conf.Armature = *armature
		case "bone":
			conf.Bone = *bone
			conf.BoneAliases = nil
		case "humanoid":
			conf.HumanoidBone = *humanoid
		case "frame":
			conf.Frame = *frame
		case "scale":
			conf.Scale = float32(*scale)
			scaleSet = true
		case "worldspace":
			conf.WorldSpace = *worldSpace
		case "o":
			conf.Output = *output
		}
	})
	if conf.Scale <= 0 {
		log.Fatalf("invalid scale: %v", conf.Scale)
	}
	if flag.NArg() > 1 {
		conf.Output = flag.Arg(1)
	}
	if conf.Output == "" {
		conf.Output = defaultOutputFile(input)
	}

	doc, err := loadDocument(input, conf, scaleSet)
	if err != nil {
		log.Fatal(err)
	}

	if name, ok := vrm.HumanBoneName(doc, conf.HumanoidBone); ok {
		conf.BoneAliases = append(conf.BoneAliases, name)
	}
	s := scene.FromGLTF(doc)
	opt := conf.SyncOptions(s)
	if obj, err := s.Object(opt.Target); err == nil {
		printMatrix(obj.Name+" (before):", obj.MatrixWorld())
	}
	obj, err := scene.SyncBoneToObject(s, opt)
	if err != nil {
		log.Fatal(err)
	}
	printMatrix(obj.Name+" (after):", obj.MatrixWorld())

	s.ApplyToGLTF(doc)
	if strings.ToLower(filepath.Ext(conf.Output)) != ".gltf" {
		if err := gltfutil.ToSingleFile(doc, filepath.Dir(input)); err != nil {
			log.Fatal(err)
		}
	}
	log.Print("out: ", conf.Output)
	if err := gltfutil.Save(doc, conf.Output); err != nil {
		log.Fatal(err)
	}
}
