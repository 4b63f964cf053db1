package bvh

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/binzume/bvhkit/geom"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

type parser struct {
	s    *bufio.Scanner
	line int
	err  error
	doc  *Document

	channels int
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// splitTokens splits on whitespace. Braces are always separate tokens.
func (p *parser) splitTokens(data []byte, atEOF bool) (int, []byte, error) {
	start := 0
	for start < len(data) && isSpace(data[start]) {
		if data[start] == '\n' {
			p.line++
		}
		start++
	}
	if start < len(data) && (data[start] == '{' || data[start] == '}') {
		return start + 1, data[start : start+1], nil
	}
	for i := start; i < len(data); i++ {
		if isSpace(data[i]) || data[i] == '{' || data[i] == '}' {
			return i, data[start:i], nil
		}
	}
	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	// newlines already counted are skipped.
	return start, nil, nil
}

func (p *parser) errorf(f string, a ...interface{}) error {
	if p.err == nil {
		p.err = fmt.Errorf("bvh: line %d: %s", p.line+1, fmt.Sprintf(f, a...))
	}
	return p.err
}

// next returns "" at EOF or after an error.
func (p *parser) next(expect string) string {
	if p.err != nil {
		return ""
	}
	if !p.s.Scan() {
		if err := p.s.Err(); err != nil {
			p.err = err
		} else {
			p.errorf("unexpected EOF: %s expected", expect)
		}
		return ""
	}
	return p.s.Text()
}

func (p *parser) skip(t string) {
	if tok := p.next(strconv.Quote(t)); tok != t && p.err == nil {
		p.errorf("%q expected, got %q", t, tok)
	}
}

func (p *parser) readFloat() float64 {
	tok := p.next("number")
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		p.errorf("invalid number %q", tok)
	}
	return v
}

func (p *parser) readInt() int {
	tok := p.next("integer")
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		p.errorf("invalid integer %q", tok)
	}
	return v
}

func (p *parser) readVector3() geom.Vector3 {
	return geom.Vector3{
		X: geom.Element(p.readFloat()),
		Y: geom.Element(p.readFloat()),
		Z: geom.Element(p.readFloat()),
	}
}

func (p *parser) readChannels(j *Joint) {
	n := p.readInt()
	if n < 0 || n > 6 {
		p.errorf("invalid channel count %d in joint %q", n, j.Name)
		return
	}
	j.ChannelOffset = p.channels
	for i := 0; i < n && p.err == nil; i++ {
		tok := p.next("channel name")
		ch, err := ParseChannel(tok)
		if err != nil {
			p.errorf("joint %q: %v", j.Name, err)
			return
		}
		j.Channels = append(j.Channels, ch)
	}
	p.channels += n
}

func (p *parser) readEndSite(j *Joint) {
	if tok := p.next(`"Site"`); !strings.EqualFold(tok, "Site") && p.err == nil {
		p.errorf(`"End Site" expected, got "End %s"`, tok)
		return
	}
	p.skip("{")
	p.skip("OFFSET")
	v := p.readVector3()
	p.skip("}")
	if j.EndSite != nil {
		log.Printf("bvh: joint %q has multiple end sites", j.Name)
	}
	j.EndSite = &v
}

func (p *parser) readJoint(parent *Joint) *Joint {
	name := p.next("joint name")
	if name == "{" {
		p.errorf("joint name expected")
	}
	j := &Joint{Name: name, Index: len(p.doc.Joints), Parent: parent}
	if parent != nil {
		j.Depth = parent.Depth + 1
		parent.Children = append(parent.Children, j)
	}
	p.doc.Joints = append(p.doc.Joints, j)

	p.skip("{")
	for p.err == nil {
		tok := p.next(`"}"`)
		switch {
		case tok == "}":
			return j
		case tok == "OFFSET":
			j.Offset = p.readVector3()
		case tok == "CHANNELS":
			p.readChannels(j)
		case tok == "JOINT":
			p.readJoint(j)
		case strings.EqualFold(tok, "End"):
			p.readEndSite(j)
		case p.err == nil:
			p.errorf("unexpected token %q in joint %q", tok, j.Name)
		}
	}
	return j
}

func (p *parser) readMotion() {
	doc := p.doc
	p.skip("MOTION")

	tok := p.next(`"Frames:"`)
	if tok == "Frames:" {
		doc.Frames = p.readInt()
	} else if strings.HasPrefix(tok, "Frames:") {
		n, err := strconv.Atoi(strings.TrimPrefix(tok, "Frames:"))
		if err != nil {
			p.errorf("invalid frame count %q", tok)
		}
		doc.Frames = n
	} else if p.err == nil {
		p.errorf(`"Frames:" expected, got %q`, tok)
	}
	p.skip("Frame")
	p.skip("Time:")
	doc.FrameTime = p.readFloat()
	if p.err != nil {
		return
	}
	if doc.Frames < 0 {
		p.errorf("invalid frame count %d", doc.Frames)
		return
	}

	// Frames comes from the file; grow with the data actually read.
	doc.Motion = make([][]float64, 0, min(doc.Frames, 1<<16))
	for f := 0; f < doc.Frames && p.err == nil; f++ {
		row := make([]float64, p.channels)
		for c := range row {
			row[c] = p.readFloat()
		}
		if p.err == nil {
			doc.Motion = append(doc.Motion, row)
		}
	}
}

func (p *parser) Parse() (*Document, error) {
	p.skip("HIERARCHY")
	if tok := p.next(`"ROOT"`); tok != "ROOT" && p.err == nil {
		p.errorf(`"ROOT" expected, got %q`, tok)
	}
	if p.err == nil {
		p.doc.Root = p.readJoint(nil)
	}
	p.readMotion()
	if p.err != nil {
		return nil, p.err
	}
	if p.s.Scan() {
		log.Printf("bvh: ignored trailing data after %d frames: %q", p.doc.Frames, p.s.Text())
	}
	return p.doc, nil
}

// decodeText converts Shift-JIS input (common for Japanese tools) to UTF-8.
func decodeText(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	utf8Data, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	if err != nil {
		return data
	}
	return utf8Data
}

// Parse reads a .bvh document.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	p := &parser{doc: &Document{}}
	p.s = bufio.NewScanner(bytes.NewReader(decodeText(data)))
	p.s.Buffer(make([]byte, 4096), 1024*1024)
	p.s.Split(p.splitTokens)
	return p.Parse()
}

func Load(path string) (*Document, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	doc, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
