package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gogpu/dxf"
)

// Header holds the header variables the scene builder needs.
type Header struct {
	Version     string // $ACADVER, e.g. "AC1027"
	CodePage    string // $DWGCODEPAGE, e.g. "ANSI_1252"
	InsUnits    int    // $INSUNITS
	Measurement int    // $MEASUREMENT: 0 imperial, 1 metric
	PDMode      int    // $PDMODE point display mode
	PDSize      float64

	hasMeasurement bool
}

// IsMetric reports whether the drawing uses metric units. $MEASUREMENT
// decides when present, otherwise millimeter, centimeter and meter
// $INSUNITS count as metric.
func (h *Header) IsMetric() bool {
	if h.hasMeasurement {
		return h.Measurement == 1
	}
	switch h.InsUnits {
	case 4, 5, 6, 7, 12, 13, 14, 15, 16, 17:
		return true
	}
	return false
}

// SetMeasurement sets $MEASUREMENT explicitly.
func (h *Header) SetMeasurement(v int) {
	h.Measurement = v
	h.hasMeasurement = true
}

// utf8Native reports whether the file version stores text as UTF-8.
func (h *Header) utf8Native() bool {
	return h.Version >= "AC1021"
}

// Layer is an entry of the LAYER table.
type Layer struct {
	Name     string
	Color    dxf.RGB
	LineType string
	Off      bool // negative color index
	Frozen   bool
}

// Block is a block definition.
type Block struct {
	Name     string
	Base     Vec3
	Flags    int
	Layer    string
	Entities []Entity
}

// IsXRef reports whether the block is an external reference.
func (b *Block) IsXRef() bool { return b.Flags&(4|32) != 0 }

// Document is a parsed drawing.
type Document struct {
	Header   Header
	Layers   []*Layer
	Blocks   []*Block
	Entities []Entity
	// Skipped counts entities of unsupported types by type name.
	Skipped map[string]int

	layers map[string]*Layer
	blocks map[string]*Block
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		Skipped: make(map[string]int),
		layers:  make(map[string]*Layer),
		blocks:  make(map[string]*Block),
	}
}

// AddLayer appends l. A later layer with the same name replaces the
// earlier one in lookups.
func (d *Document) AddLayer(l *Layer) {
	d.Layers = append(d.Layers, l)
	d.layers[l.Name] = l
}

// AddBlock appends b. Only the first definition of a name is kept.
func (d *Document) AddBlock(b *Block) bool {
	if _, dup := d.blocks[b.Name]; dup {
		return false
	}
	d.Blocks = append(d.Blocks, b)
	d.blocks[b.Name] = b
	return true
}

// AddEntity appends e to the model and paper space entity list.
func (d *Document) AddEntity(e Entity) {
	d.Entities = append(d.Entities, e)
}

// Layer returns the named layer.
func (d *Document) Layer(name string) (*Layer, bool) {
	l, ok := d.layers[name]
	return l, ok
}

// Block returns the named block definition.
func (d *Document) Block(name string) (*Block, bool) {
	b, ok := d.blocks[name]
	return b, ok
}

// ParseOptions configures Parse.
type ParseOptions struct {
	// Encoding overrides $DWGCODEPAGE for pre-2007 files, e.g.
	// "windows-1251" or "ANSI_932".
	Encoding string
}

// ParseFile opens and parses the named file.
func ParseFile(path string, opts ParseOptions) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parser: %w", err)
	}
	defer f.Close()
	return Parse(f, opts)
}

// Parse reads an ASCII DXF document.
func Parse(r io.Reader, opts ParseOptions) (*Document, error) {
	p := &reader{s: NewScanner(r), doc: NewDocument(), opts: opts}
	if opts.Encoding != "" {
		e, err := LookupEncoding(opts.Encoding)
		if err != nil {
			return nil, err
		}
		p.s.SetEncoding(e)
		p.fixedEncoding = true
	}
	if err := p.run(); err != nil {
		return nil, err
	}

	log := dxf.Logger()
	for typ, n := range p.doc.Skipped {
		log.Warn("parser: unsupported entities skipped", "type", typ, "count", n)
	}
	log.Debug("parser: document read",
		"version", p.doc.Header.Version,
		"layers", len(p.doc.Layers),
		"blocks", len(p.doc.Blocks),
		"entities", len(p.doc.Entities),
		"lines", p.s.Line())
	return p.doc, nil
}

type reader struct {
	s             *Scanner
	doc           *Document
	opts          ParseOptions
	fixedEncoding bool
}

func (p *reader) next() (Tag, error) {
	t, err := p.s.Next()
	if errors.Is(err, io.EOF) {
		return Tag{}, ErrUnexpectedEOF
	}
	return t, err
}

func (p *reader) run() error {
	for {
		t, err := p.s.Next()
		if err == io.EOF {
			// A missing EOF marker is tolerated.
			return nil
		}
		if err != nil {
			return err
		}
		switch {
		case t.Is(0, "EOF"):
			return nil
		case t.Is(0, "SECTION"):
			name, err := p.next()
			if err != nil {
				return err
			}
			if err := p.section(strings.TrimSpace(name.Value)); err != nil {
				return err
			}
		}
	}
}

func (p *reader) section(name string) error {
	switch name {
	case "HEADER":
		return p.header()
	case "TABLES":
		return p.tables()
	case "BLOCKS":
		return p.blocks()
	case "ENTITIES":
		ents, err := p.entities("ENDSEC")
		if err != nil {
			return err
		}
		for _, e := range ents {
			p.doc.AddEntity(e)
		}
		return nil
	}
	return p.skipTo("ENDSEC")
}

func (p *reader) skipTo(marker string) error {
	for {
		t, err := p.next()
		if err != nil {
			return err
		}
		if t.Is(0, marker) {
			return nil
		}
	}
}

// record reads the groups up to the next code 0, which is left unread.
func (p *reader) record() ([]Tag, error) {
	var tags []Tag
	for {
		t, err := p.next()
		if err != nil {
			return nil, err
		}
		if t.Code == 0 {
			p.s.Unread(t)
			return tags, nil
		}
		tags = append(tags, t)
	}
}

func (p *reader) header() error {
	h := &p.doc.Header
	var name string
	for {
		t, err := p.next()
		if err != nil {
			return err
		}
		if t.Code == 0 {
			if t.Is(0, "ENDSEC") {
				return p.applyCodePage()
			}
			continue
		}
		if t.Code == 9 {
			name = strings.TrimSpace(t.Value)
			continue
		}
		switch {
		case name == "$ACADVER" && t.Code == 1:
			h.Version = strings.TrimSpace(t.Value)
		case name == "$DWGCODEPAGE" && t.Code == 3:
			h.CodePage = strings.TrimSpace(t.Value)
		case name == "$INSUNITS" && t.Code == 70:
			if h.InsUnits, err = t.Int(); err != nil {
				return err
			}
		case name == "$MEASUREMENT" && t.Code == 70:
			v, err := t.Int()
			if err != nil {
				return err
			}
			h.SetMeasurement(v)
		case name == "$PDMODE" && t.Code == 70:
			if h.PDMode, err = t.Int(); err != nil {
				return err
			}
		case name == "$PDSIZE" && t.Code == 40:
			if h.PDSize, err = t.Float(); err != nil {
				return err
			}
		}
	}
}

func (p *reader) applyCodePage() error {
	h := &p.doc.Header
	if p.fixedEncoding || h.utf8Native() || h.CodePage == "" {
		return nil
	}
	e, err := LookupEncoding(h.CodePage)
	if err != nil {
		dxf.Logger().Warn("parser: unknown code page, reading as UTF-8", "codepage", h.CodePage)
		return nil
	}
	p.s.SetEncoding(e)
	return nil
}

func (p *reader) tables() error {
	for {
		t, err := p.next()
		if err != nil {
			return err
		}
		switch {
		case t.Is(0, "ENDSEC"):
			return nil
		case t.Is(0, "LAYER"):
			if err := p.layer(); err != nil {
				return err
			}
		}
	}
}

func (p *reader) layer() error {
	tags, err := p.record()
	if err != nil {
		return err
	}
	l := &Layer{Color: dxf.White}
	trueColor := false
	for _, t := range tags {
		switch t.Code {
		case 2:
			l.Name = strings.TrimSpace(t.Value)
		case 6:
			l.LineType = strings.TrimSpace(t.Value)
		case 62:
			v, err := t.Int()
			if err != nil {
				return err
			}
			if v < 0 {
				l.Off = true
				v = -v
			}
			if !trueColor {
				l.Color = dxf.ACI(v)
			}
		case 420:
			v, err := t.Int()
			if err != nil {
				return err
			}
			l.Color = dxf.RGBFromHex(uint32(v))
			trueColor = true
		case 70:
			v, err := t.Int()
			if err != nil {
				return err
			}
			l.Frozen = v&1 != 0
		}
	}
	if l.Name != "" {
		p.doc.AddLayer(l)
	}
	return nil
}

func (p *reader) blocks() error {
	for {
		t, err := p.next()
		if err != nil {
			return err
		}
		switch {
		case t.Is(0, "ENDSEC"):
			return nil
		case t.Is(0, "BLOCK"):
			if err := p.block(); err != nil {
				return err
			}
		}
	}
}

func (p *reader) block() error {
	tags, err := p.record()
	if err != nil {
		return err
	}
	b := &Block{Layer: "0"}
	for _, t := range tags {
		switch t.Code {
		case 2:
			b.Name = strings.TrimSpace(t.Value)
		case 8:
			b.Layer = strings.TrimSpace(t.Value)
		case 70:
			if b.Flags, err = t.Int(); err != nil {
				return err
			}
		default:
			if _, err := setCoord(&b.Base, t, 10); err != nil {
				return err
			}
		}
	}
	if b.Entities, err = p.entities("ENDBLK"); err != nil {
		return err
	}
	if b.Name == "" {
		return nil
	}
	if !p.doc.AddBlock(b) {
		dxf.Logger().Warn("parser: duplicate block definition ignored", "block", b.Name)
	}
	return nil
}

// entities reads entity records until the 0/marker group. The marker's own
// record is consumed.
func (p *reader) entities(marker string) ([]Entity, error) {
	var out []Entity
	for {
		t, err := p.next()
		if err != nil {
			return nil, err
		}
		if t.Code != 0 {
			continue
		}
		typ := strings.TrimSpace(t.Value)
		if typ == marker {
			// ENDSEC carries no groups and may be the last record.
			if marker == "ENDSEC" {
				return out, nil
			}
			if _, err := p.record(); err != nil {
				return nil, err
			}
			return out, nil
		}
		if typ == "ENDSEC" {
			// Unterminated block: let the caller see the section end.
			p.s.Unread(t)
			return out, nil
		}

		e := newEntity(typ)
		if e == nil {
			if typ != "SEQEND" && typ != "VERTEX" {
				p.doc.Skipped[typ]++
			}
			if _, err := p.record(); err != nil {
				return nil, err
			}
			continue
		}
		if err := p.entity(e); err != nil {
			return nil, err
		}
		if pl, ok := e.(*Polyline); ok && pl.Legacy {
			if err := p.vertices(pl); err != nil {
				return nil, err
			}
			if pl.IsMesh() {
				p.doc.Skipped["POLYLINE mesh"]++
				continue
			}
		}
		if txt, ok := e.(*Text); ok && txt.Invisible {
			continue
		}
		out = append(out, e)
	}
}

func (p *reader) entity(e entityParser) error {
	tags, err := p.record()
	if err != nil {
		return err
	}
	props := e.Props()
	for _, t := range tags {
		ok, err := e.apply(t)
		if err != nil {
			return err
		}
		if !ok {
			if err := props.apply(t); err != nil {
				return err
			}
		}
	}
	if f, ok := e.(finisher); ok {
		f.finish()
	}
	return nil
}

// vertices reads the VERTEX records of a legacy POLYLINE and its SEQEND.
func (p *reader) vertices(pl *Polyline) error {
	for {
		t, err := p.next()
		if err != nil {
			return err
		}
		switch {
		case t.Is(0, "VERTEX"):
			v := &vertexRecord{Properties: newProperties()}
			if err := p.entity(v); err != nil {
				return err
			}
			pl.Vertices = append(pl.Vertices, v.v)
		case t.Is(0, "SEQEND"):
			_, err := p.record()
			return err
		default:
			p.s.Unread(t)
			return nil
		}
	}
}

func newEntity(typ string) entityParser {
	props := newProperties()
	switch typ {
	case "LINE":
		return &Line{Properties: props}
	case "POINT":
		return &Point{Properties: props}
	case "CIRCLE":
		return &Circle{Properties: props, Extrusion: UnitZ}
	case "ARC":
		return &Circle{Properties: props, Extrusion: UnitZ, IsArc: true}
	case "ELLIPSE":
		return &Ellipse{Properties: props, Extrusion: UnitZ, Ratio: 1}
	case "LWPOLYLINE":
		return &Polyline{Properties: props, Extrusion: UnitZ}
	case "POLYLINE":
		return &Polyline{Properties: props, Extrusion: UnitZ, Legacy: true}
	case "INSERT":
		return &Insert{Properties: props, Scale: Vec3{X: 1, Y: 1, Z: 1}, Extrusion: UnitZ}
	case "DIMENSION":
		return &Insert{Properties: props, Scale: Vec3{X: 1, Y: 1, Z: 1}, Extrusion: UnitZ, Dimension: true}
	case "TEXT", "ATTRIB":
		return &Text{Properties: props, Extrusion: UnitZ, kind: typ}
	case "MTEXT":
		return &Text{Properties: props, Extrusion: UnitZ, Multiline: true, kind: typ}
	case "SOLID", "TRACE", "3DFACE":
		return &Solid{Properties: props, kind: typ}
	case "HATCH":
		return &Hatch{Properties: props, Extrusion: UnitZ}
	}
	return nil
}
