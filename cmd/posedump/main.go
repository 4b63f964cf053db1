package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/binzume/bvhkit/bvh"
	"github.com/binzume/bvhkit/preview"
)

const defaultInput = "Vicon-sword_attack-0e6d7941-a867-4133-86b9-348542537958.bvh"

func frameFile(output string, frame int) string {
	ext := filepath.Ext(output)
	return fmt.Sprintf("%s_%04d%s", output[:len(output)-len(ext)], frame, ext)
}

func renderSequence(h *bvh.Hierarchy, frames, output string, opt *preview.Options, workers int) error {
	r, err := preview.ParseFrameRange(frames, len(h.Motion))
	if err != nil {
		return err
	}
	animated := strings.ToLower(filepath.Ext(output)) == ".webp"
	images := make([]image.Image, r.Len())
	err = preview.RenderFrames(context.Background(), h, r, opt, workers, func(frame int, img *image.NRGBA) error {
		if animated {
			images[frame-r.Start] = img
			return nil
		}
		return preview.Save(frameFile(output, frame), img)
	})
	if err != nil {
		return err
	}
	if animated {
		return preview.SaveAnimation(output, images, uint(h.FrameTime*1000+0.5))
	}
	log.Printf("%d frames written: %s", r.Len(), frameFile(output, r.Start))
	return nil
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [input.bvh]\n", os.Args[0])
		flag.PrintDefaults()
	}
	frame := flag.Int("frame", 0, "frame to dump")
	chains := flag.Bool("chains", false, "print kinematic chains")
	previewFile := flag.String("preview", "", "render the pose to .png, .jpg, .tga or .webp")
	view := flag.String("view", "front", "preview view: front, side or top")
	size := flag.Int("size", 512, "preview size in pixels")
	frames := flag.String("frames", "", "render frames a:b with -preview")
	workers := flag.Int("workers", runtime.NumCPU(), "preview render workers")
	flag.Parse()

	input := defaultInput
	if flag.NArg() > 0 {
		input = flag.Arg(0)
	}

	h, err := bvh.ReadAsHierarchy(input)
	if err != nil {
		log.Fatal(err)
	}

	if *chains {
		if err := bvh.DumpChains(os.Stdout, h.Document); err != nil {
			log.Fatal(err)
		}
	}

	if *previewFile != "" {
		opt := preview.DefaultOptions()
		opt.Width, opt.Height = *size, *size
		if err := opt.Validate(); err != nil {
			log.Fatal(err)
		}
		v, ok := preview.ParseView(*view)
		if !ok {
			log.Fatalf("unknown view: %q", *view)
		}
		opt.View = v
		if *frames != "" {
			if err := renderSequence(h, *frames, *previewFile, opt, *workers); err != nil {
				log.Fatal(err)
			}
			return
		}
		pose, err := h.LoadPose(*frame)
		if err != nil {
			log.Fatal(err)
		}
		if err := preview.Save(*previewFile, preview.Render(pose, opt)); err != nil {
			log.Fatal(err)
		}
		log.Print("out: ", *previewFile)
		return
	}

	pose, err := h.LoadPose(*frame)
	if err != nil {
		log.Fatal(err)
	}
	if err := bvh.DumpPose(os.Stdout, pose); err != nil {
		log.Fatal(err)
	}
}
