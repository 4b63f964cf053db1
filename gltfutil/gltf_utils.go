package gltfutil

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/bvhkit/geom"
	"github.com/qmuntal/gltf"
	gltfbinary "github.com/qmuntal/gltf/binary"
	"github.com/qmuntal/gltf/modeler"
)

func Load(path string) (*gltf.Document, error) {
	return gltf.Open(path)
}

// Save writes .gltf as JSON with external resources, anything else as GLB.
func Save(doc *gltf.Document, path string) error {
	if strings.ToLower(filepath.Ext(path)) == ".gltf" {
		return gltf.Save(doc, path)
	}
	return gltf.SaveBinary(doc, path)
}

// ToSingleFile merges all buffers into the first one and embeds external images, so the document can be saved as GLB.
func ToSingleFile(doc *gltf.Document, srcDir string) error {
	if len(doc.Buffers) > 1 {
		base := doc.Buffers[0]
		for bi, b := range doc.Buffers[1:] {
			offset := uint32(len(base.Data))
			base.Data = append(base.Data, b.Data...)
			for _, v := range doc.BufferViews {
				if v.Buffer == uint32(bi+1) {
					v.Buffer = 0
					v.ByteOffset += offset
				}
			}
		}
		doc.Buffers = doc.Buffers[:1]
	}
	for _, b := range doc.Buffers {
		b.URI = ""
		b.ByteLength = uint32(len(b.Data))
	}
	for _, m := range doc.Images {
		if m.BufferView != nil || m.URI == "" || m.IsEmbeddedResource() {
			continue
		}
		buf, err := os.ReadFile(filepath.Join(srcDir, filepath.FromSlash(m.URI)))
		if err != nil {
			log.Print(err)
			continue
		}
		if m.MimeType == "" {
			m.MimeType = mime.TypeByExtension(strings.ToLower(filepath.Ext(m.URI)))
			if m.MimeType == "" {
				m.MimeType = "image/png"
			}
		}
		m.BufferView = gltf.Index(modeler.WriteBufferView(doc, gltf.TargetNone, buf))
		m.URI = ""
	}
	if len(doc.Buffers) > 0 {
		doc.Buffers[0].ByteLength = uint32(len(doc.Buffers[0].Data))
	}
	return nil
}

func readMatrix(data []byte) [16]float32 {
	var mat [16]float32
	for i := range mat {
		mat[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return mat
}

func writeMatrix(data []byte, mat [16]float32) {
	for i, v := range mat {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
}

// Scale multiplies node translations, mesh positions and inverse bind matrices by s.
// Rotations are kept, so bone matrices stay rigid.
func Scale(doc *gltf.Document, s float32) error {
	if s == 1 {
		return nil
	}
	if s <= 0 {
		return fmt.Errorf("invalid scale: %v", s)
	}
	scaleMat := geom.NewScaleMatrix4(s, s, s)

	accs := map[uint32]bool{}
	for _, m := range doc.Meshes {
		for _, p := range m.Primitives {
			if a, ok := p.Attributes["POSITION"]; ok {
				accs[a] = true
			}
			for _, t := range p.Targets {
				if a, ok := t["POSITION"]; ok {
					accs[a] = true
				}
			}
		}
	}
	for a := range accs {
		acr := doc.Accessors[a]
		if acr.BufferView == nil || acr.Sparse != nil {
			return fmt.Errorf("unsupported position accessor: %d", a)
		}
		pos, err := modeler.ReadPosition(doc, acr, [][3]float32{})
		if err != nil {
			return err
		}
		acr.Min = []float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
		acr.Max = []float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
		for i := range pos {
			scaleMat.ApplyTo(geom.NewVector3FromArray(pos[i])).ToArray(pos[i][:])
			for t, v := range pos[i] {
				acr.Min[t] = geom.Min(acr.Min[t], v)
				acr.Max[t] = geom.Max(acr.Max[t], v)
			}
		}
		bufferView := doc.BufferViews[*acr.BufferView]
		buffer := doc.Buffers[bufferView.Buffer]
		if err := gltfbinary.Write(buffer.Data[bufferView.ByteOffset+acr.ByteOffset:], bufferView.ByteStride, pos); err != nil {
			return err
		}
	}

	for _, node := range doc.Nodes {
		scaleMat.ApplyTo(geom.NewVector3FromArray(node.Translation)).ToArray(node.Translation[:])
		if m := node.MatrixOrDefault(); m != gltf.DefaultMatrix {
			node.Matrix[12] *= s
			node.Matrix[13] *= s
			node.Matrix[14] *= s
		}
	}

	for _, skin := range doc.Skins {
		if skin.InverseBindMatrices == nil {
			continue
		}
		accessor := doc.Accessors[*skin.InverseBindMatrices]
		if accessor.BufferView == nil {
			continue
		}
		bufferView := doc.BufferViews[*accessor.BufferView]
		data := doc.Buffers[bufferView.Buffer].Data
		stride := bufferView.ByteStride
		if stride == 0 {
			stride = 64
		}
		for i := range skin.Joints {
			offset := bufferView.ByteOffset + accessor.ByteOffset + uint32(i)*stride
			if int(offset)+64 > len(data) {
				return fmt.Errorf("inverse bind matrix %d out of buffer", i)
			}
			mat := readMatrix(data[offset : offset+64])
			mat[12] *= s
			mat[13] *= s
			mat[14] *= s
			writeMatrix(data[offset:offset+64], mat)
		}
	}
	return nil
}
