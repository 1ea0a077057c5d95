package snapshot

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/hullmap/ledger"
	"github.com/hupe1980/hullmap/model"
	"github.com/hupe1980/hullmap/phaseindex"
)

const (
	magic   = "HMAP"
	version = 1

	maxInternalDim = 1 << 16
)

var (
	// ErrBadMagic is returned when the input is not a snapshot.
	ErrBadMagic = errors.New("snapshot: bad magic")
	// ErrUnsupportedVersion is returned for snapshots written by a newer format.
	ErrUnsupportedVersion = errors.New("snapshot: unsupported version")
	// ErrChecksum is returned when the record checksum does not match.
	ErrChecksum = errors.New("snapshot: checksum mismatch")
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Snapshot is a decoded pass.
type Snapshot struct {
	Dimension   int
	Compression Compression
	Boundaries  []phaseindex.Boundary
	// Excluded holds the PointIDs withheld from the hull. Never nil after Read.
	Excluded *roaring.Bitmap
	Entries  []ledger.Entry
}

// Option configures Write.
type Option func(*writeOptions)

type writeOptions struct {
	compression Compression
	blockSize   int
	excluded    *roaring.Bitmap
}

// WithCompression selects the block codec. Default: CompressionZSTD.
func WithCompression(c Compression) Option {
	return func(o *writeOptions) { o.compression = c }
}

// WithBlockSize sets the uncompressed block size.
func WithBlockSize(n int) Option {
	return func(o *writeOptions) { o.blockSize = n }
}

// WithExcluded records the hull exclusion mask.
func WithExcluded(b *roaring.Bitmap) Option {
	return func(o *writeOptions) { o.excluded = b }
}

// Write encodes the ledger and index to w.
func Write(w io.Writer, l *ledger.Ledger, x *phaseindex.Index, opts ...Option) error {
	o := writeOptions{compression: CompressionZSTD, blockSize: DefaultBlockSize}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.compression.valid() {
		return fmt.Errorf("snapshot: unknown compression %d", o.compression)
	}

	bw := bufio.NewWriter(w)
	e := encoder{w: bw}

	e.bytes([]byte(magic))
	e.u16(version)
	e.u8(uint8(o.compression))
	e.u8(0)
	e.u32(uint32(l.Dimension()))

	bounds := x.Boundaries()
	e.u32(uint32(len(bounds)))
	for _, b := range bounds {
		if len(b.Phase) > math.MaxUint16 {
			return fmt.Errorf("snapshot: phase name of %d bytes too long", len(b.Phase))
		}
		e.u64(uint64(b.Threshold))
		e.u16(uint16(len(b.Phase)))
		e.bytes([]byte(b.Phase))
	}

	var mask []byte
	if o.excluded != nil && !o.excluded.IsEmpty() {
		var err error
		if mask, err = o.excluded.ToBytes(); err != nil {
			return fmt.Errorf("snapshot: encode exclusion mask: %w", err)
		}
	}
	e.u32(uint32(len(mask)))
	e.bytes(mask)

	e.u64(uint64(l.Len()))
	if e.err != nil {
		return e.err
	}

	blocks := newBlockWriter(bw, o.compression, o.blockSize)
	sum := crc32.New(castagnoli)
	re := encoder{w: io.MultiWriter(blocks, sum)}
	for _, entry := range l.All() {
		re.u32(uint32(len(entry.Internal)))
		re.floats(entry.Internal)
		re.floats(entry.Global)
		if re.err != nil {
			return re.err
		}
	}
	if err := blocks.Close(); err != nil {
		return err
	}

	e.u32(sum.Sum32())
	if e.err != nil {
		return e.err
	}
	return bw.Flush()
}

// Marshal encodes the ledger and index into a byte slice.
func Marshal(l *ledger.Ledger, x *phaseindex.Index, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, l, x, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Read decodes a snapshot.
func Read(r io.Reader) (*Snapshot, error) {
	br := bufio.NewReader(r)
	d := decoder{r: br}

	head := d.bytes(4)
	if d.err == nil && string(head) != magic {
		return nil, ErrBadMagic
	}
	if v := d.u16(); d.err == nil && v != version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	s := &Snapshot{Compression: Compression(d.u8())}
	d.u8()
	s.Dimension = int(d.u32())
	if d.err != nil {
		return nil, d.fail("header")
	}
	if !s.Compression.valid() {
		return nil, fmt.Errorf("snapshot: unknown compression %d", s.Compression)
	}

	nb := d.u32()
	for i := uint32(0); i < nb && d.err == nil; i++ {
		threshold := model.PointID(d.u64())
		phase := model.PhaseID(d.bytes(int(d.u16())))
		s.Boundaries = append(s.Boundaries, phaseindex.Boundary{Threshold: threshold, Phase: phase})
	}

	s.Excluded = roaring.New()
	if n := d.u32(); n > 0 && d.err == nil {
		if _, err := s.Excluded.FromUnsafeBytes(d.bytes(int(n))); err != nil && d.err == nil {
			return nil, fmt.Errorf("snapshot: decode exclusion mask: %w", err)
		}
	}

	count := d.u64()
	if d.err != nil {
		return nil, d.fail("sections")
	}

	sum := crc32.New(castagnoli)
	rd := decoder{r: io.TeeReader(newBlockReader(br, s.Compression), sum)}
	s.Entries = make([]ledger.Entry, 0, min(count, 1<<20))
	for i := uint64(0); i < count; i++ {
		n := rd.u32()
		if rd.err == nil && (n == 0 || n > maxInternalDim) {
			return nil, fmt.Errorf("%w: record %d has internal dimension %d", errCorruptBlock, i, n)
		}
		internal := rd.floats(int(n))
		global := rd.floats(s.Dimension)
		if rd.err != nil {
			return nil, rd.fail(fmt.Sprintf("record %d", i))
		}
		s.Entries = append(s.Entries, ledger.Entry{Internal: internal, Global: global})
	}
	// Drain the end marker so the trailer is next in br.
	if _, err := io.Copy(io.Discard, rd.r); err != nil {
		return nil, err
	}

	if want := d.u32(); d.err != nil {
		return nil, d.fail("trailer")
	} else if got := sum.Sum32(); got != want {
		return nil, fmt.Errorf("%w: got %08x, want %08x", ErrChecksum, got, want)
	}
	return s, nil
}

// Unmarshal decodes a snapshot from data.
func Unmarshal(data []byte) (*Snapshot, error) {
	return Read(bytes.NewReader(data))
}

// Restore rebuilds a ledger and phase index from s. The ledger is frozen.
func Restore(s *Snapshot, opts ...ledger.Option) (*ledger.Ledger, *phaseindex.Index, error) {
	l, err := ledger.New(s.Dimension, opts...)
	if err != nil {
		return nil, nil, err
	}
	for i, e := range s.Entries {
		if _, err := l.AddPoint(e.Internal, e.Global); err != nil {
			return nil, nil, fmt.Errorf("snapshot: restore record %d: %w", i, err)
		}
	}

	x := phaseindex.New()
	var prev model.PointID
	for _, b := range s.Boundaries {
		if b.Threshold <= prev {
			return nil, nil, fmt.Errorf("%w: threshold %d after %d", phaseindex.ErrInconsistent, b.Threshold, prev)
		}
		x.AddPhaseBoundary(b.Phase, int(b.Threshold-prev))
		prev = b.Threshold
	}
	if err := x.Verify(l.Len()); err != nil {
		return nil, nil, err
	}

	l.Freeze()
	return l, x, nil
}

type encoder struct {
	w   io.Writer
	buf [8]byte
	err error
}

func (e *encoder) bytes(p []byte) {
	if e.err == nil && len(p) > 0 {
		_, e.err = e.w.Write(p)
	}
}

func (e *encoder) u8(v uint8) {
	e.buf[0] = v
	e.bytes(e.buf[:1])
}

func (e *encoder) u16(v uint16) {
	binary.LittleEndian.PutUint16(e.buf[:], v)
	e.bytes(e.buf[:2])
}

func (e *encoder) u32(v uint32) {
	binary.LittleEndian.PutUint32(e.buf[:], v)
	e.bytes(e.buf[:4])
}

func (e *encoder) u64(v uint64) {
	binary.LittleEndian.PutUint64(e.buf[:], v)
	e.bytes(e.buf[:8])
}

func (e *encoder) floats(p []float64) {
	for _, f := range p {
		e.u64(math.Float64bits(f))
	}
}

type decoder struct {
	r   io.Reader
	buf [8]byte
	err error
}

func (d *decoder) fail(where string) error {
	return fmt.Errorf("snapshot: truncated %s: %w", where, unexpected(d.err))
}

func (d *decoder) read(n int) []byte {
	if d.err != nil {
		return nil
	}
	_, d.err = io.ReadFull(d.r, d.buf[:n])
	return d.buf[:n]
}

func (d *decoder) bytes(n int) []byte {
	if d.err != nil || n == 0 {
		return nil
	}
	p := make([]byte, n)
	_, d.err = io.ReadFull(d.r, p)
	return p
}

func (d *decoder) u8() uint8 {
	if b := d.read(1); d.err == nil {
		return b[0]
	}
	return 0
}

func (d *decoder) u16() uint16 {
	if b := d.read(2); d.err == nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (d *decoder) u32() uint32 {
	if b := d.read(4); d.err == nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (d *decoder) u64() uint64 {
	if b := d.read(8); d.err == nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (d *decoder) floats(n int) model.Point {
	if d.err != nil {
		return nil
	}
	p := make(model.Point, n)
	for i := range p {
		p[i] = math.Float64frombits(d.u64())
	}
	return p
}
