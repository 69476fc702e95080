package scene

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/gogpu/dxf"
)

// SnapshotMagic starts every encoded snapshot.
const SnapshotMagic = "DXFB"

const snapshotVersion uint16 = 1

// maxSnapshotString bounds decoded names.
const maxSnapshotString = 1 << 16

// WriteSnapshot encodes s to w: the magic and a version in the clear,
// followed by a zstd stream with the little-endian body.
func WriteSnapshot(w io.Writer, s *Snapshot) error {
	var head [6]byte
	copy(head[:], SnapshotMagic)
	binary.LittleEndian.PutUint16(head[4:], snapshotVersion)
	if _, err := w.Write(head[:]); err != nil {
		return err
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(zw)
	e := &encoder{w: bw}
	e.snapshot(s)
	if e.err == nil {
		e.err = bw.Flush()
	}
	if e.err != nil {
		zw.Close()
		return e.err
	}
	return zw.Close()
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot. Malformed
// input yields an error wrapping ErrBadSnapshot.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var head [6]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	if string(head[:4]) != SnapshotMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrBadSnapshot, head[:4])
	}
	if v := binary.LittleEndian.Uint16(head[4:]); v != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, v)
	}
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	defer zr.Close()

	d := &decoder{r: bufio.NewReader(zr)}
	s := d.snapshot()
	if d.err != nil {
		if errors.Is(d.err, ErrBadSnapshot) {
			return nil, d.err
		}
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, d.err)
	}
	if !s.validate() {
		return nil, fmt.Errorf("%w: range out of bounds", ErrBadSnapshot)
	}
	return s, nil
}

// IsSnapshot reports whether data starts with the snapshot magic.
func IsSnapshot(data []byte) bool {
	return len(data) >= len(SnapshotMagic) && string(data[:len(SnapshotMagic)]) == SnapshotMagic
}

type encoder struct {
	w   io.Writer
	err error
	buf [8]byte
}

func (e *encoder) write(p []byte) {
	if e.err == nil {
		_, e.err = e.w.Write(p)
	}
}

func (e *encoder) u8(v uint8) {
	e.buf[0] = v
	e.write(e.buf[:1])
}

func (e *encoder) u32(v int) {
	binary.LittleEndian.PutUint32(e.buf[:4], uint32(v))
	e.write(e.buf[:4])
}

func (e *encoder) f64(v float64) {
	binary.LittleEndian.PutUint64(e.buf[:], math.Float64bits(v))
	e.write(e.buf[:])
}

func (e *encoder) str(s string) {
	e.u32(len(s))
	e.write([]byte(s))
}

func (e *encoder) rgb(c dxf.RGB) {
	e.write([]byte{c.R, c.G, c.B})
}

func (e *encoder) rng(r Range) {
	e.u32(r.Offset)
	e.u32(r.Size)
}

func (e *encoder) snapshot(s *Snapshot) {
	e.f64(s.Origin.X)
	e.f64(s.Origin.Y)
	b := s.Bounds
	for _, v := range [...]float64{b.MinX, b.MaxX, b.MinY, b.MaxY, b.MinZ, b.MaxZ} {
		e.f64(v)
	}
	e.u8(flags(s.HasMissingChars, s.PointShapeHasDot))

	e.u32(len(s.Layers))
	for _, l := range s.Layers {
		e.str(l.Name)
		e.rgb(l.Color)
		e.u8(flags(l.Off, l.Frozen))
	}

	e.u32(len(s.Batches))
	for i := range s.Batches {
		bt := &s.Batches[i]
		e.u8(uint8(bt.Key.Kind))
		e.str(bt.Key.Layer)
		e.u8(uint8(bt.Key.Color.Kind))
		e.rgb(bt.Key.Color.RGB)
		e.str(bt.Key.Block)
		e.str(bt.Owner)
		e.rng(bt.Vertices)
		e.rng(bt.Transforms)
		e.u32(len(bt.Chunks))
		for _, c := range bt.Chunks {
			e.rng(c.Vertices)
			e.rng(c.Indices)
		}
	}

	e.u32(len(s.Vertices))
	if e.err == nil {
		e.err = binary.Write(e.w, binary.LittleEndian, s.Vertices)
	}
	e.u32(len(s.Indices))
	if e.err == nil {
		e.err = binary.Write(e.w, binary.LittleEndian, s.Indices)
	}
	e.u32(len(s.Transforms))
	if e.err == nil {
		e.err = binary.Write(e.w, binary.LittleEndian, s.Transforms)
	}
}

func flags(a, b bool) uint8 {
	var f uint8
	if a {
		f |= 1
	}
	if b {
		f |= 2
	}
	return f
}

type decoder struct {
	r   io.Reader
	err error
	buf [8]byte
}

func (d *decoder) read(n int) []byte {
	if d.err != nil {
		return d.buf[:n]
	}
	if _, err := io.ReadFull(d.r, d.buf[:n]); err != nil {
		d.err = err
	}
	return d.buf[:n]
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: "+format, append([]any{ErrBadSnapshot}, args...)...)
	}
}

func (d *decoder) u8() uint8 { return d.read(1)[0] }

func (d *decoder) u32() int { return int(binary.LittleEndian.Uint32(d.read(4))) }

func (d *decoder) f64() float64 { return math.Float64frombits(binary.LittleEndian.Uint64(d.read(8))) }

func (d *decoder) str() string {
	n := d.u32()
	if n > maxSnapshotString {
		d.fail("string length %d", n)
	}
	if d.err != nil {
		return ""
	}
	p := make([]byte, n)
	if _, err := io.ReadFull(d.r, p); err != nil {
		d.err = err
	}
	return string(p)
}

func (d *decoder) rgb() dxf.RGB {
	p := d.read(3)
	return dxf.RGB{R: p[0], G: p[1], B: p[2]}
}

func (d *decoder) rng() Range {
	off := d.u32()
	return Range{Offset: off, Size: d.u32()}
}

// count reads an element count. readSlice grows in steps, so a corrupt
// count fails on EOF instead of allocating up front.
func (d *decoder) count() int {
	n := d.u32()
	if n > math.MaxInt32 {
		d.fail("count %d", n)
	}
	if d.err != nil {
		return 0
	}
	return n
}

func readSlice[T float32 | uint16](d *decoder, n int) []T {
	const step = 1 << 16
	var out []T
	for len(out) < n && d.err == nil {
		k := min(step, n-len(out))
		part := make([]T, k)
		d.err = binary.Read(d.r, binary.LittleEndian, part)
		out = append(out, part...)
	}
	return out
}

func (d *decoder) snapshot() *Snapshot {
	s := &Snapshot{}
	s.Origin = Vec2{X: d.f64(), Y: d.f64()}
	s.Bounds = Bounds{
		MinX: d.f64(), MaxX: d.f64(),
		MinY: d.f64(), MaxY: d.f64(),
		MinZ: d.f64(), MaxZ: d.f64(),
	}
	f := d.u8()
	s.HasMissingChars, s.PointShapeHasDot = f&1 != 0, f&2 != 0

	for range d.count() {
		if d.err != nil {
			break
		}
		l := Layer{Name: d.str(), Color: d.rgb()}
		f := d.u8()
		l.Off, l.Frozen = f&1 != 0, f&2 != 0
		s.Layers = append(s.Layers, l)
	}

	for range d.count() {
		if d.err != nil {
			break
		}
		var b Batch
		b.Key.Kind = GeometryKind(d.u8())
		b.Key.Layer = d.str()
		b.Key.Color.Kind = dxf.ColorKind(d.u8())
		b.Key.Color.RGB = d.rgb()
		b.Key.Block = d.str()
		b.Owner = d.str()
		b.Vertices = d.rng()
		b.Transforms = d.rng()
		if b.Key.Color.Kind > dxf.ColorByLayer {
			d.fail("color kind %d", b.Key.Color.Kind)
		}
		for range d.count() {
			if d.err != nil {
				break
			}
			b.Chunks = append(b.Chunks, Chunk{Vertices: d.rng(), Indices: d.rng()})
		}
		s.Batches = append(s.Batches, b)
	}

	s.Vertices = readSlice[float32](d, d.count())
	s.Indices = readSlice[uint16](d, d.count())
	s.Transforms = readSlice[float32](d, d.count())
	return s
}
