package medium

import "fmt"

// Mem is an in-memory flash simulator. A fresh Mem reads back fully erased
// (0xFF). It keeps a written bit per page and fails any reprogramming of a
// written page with ErrPageRewrite until the owning region is erased, which
// is exactly the contract real NAND-style media impose.
//
// Mem also provides fault hooks (FailWrites, TearWrite) so tests can cut
// power at any write boundary and drive the recovery scan through torn
// headers.
type Mem struct {
	geo     Geometry
	data    []byte
	written []uint64

	failIn int // fail the write when this counts down to zero
	tear   int // persist only this many bytes of the next write, then fault
	closed bool
}

// NewMem creates an erased in-memory medium with the given geometry.
func NewMem(geo Geometry) (*Mem, error) {
	if err := geo.check(); err != nil {
		return nil, err
	}
	size := geo.TotalSize()
	data := make([]byte, size)
	for i := range data {
		data[i] = 0xFF
	}
	pages := size / int64(geo.PageSize)
	return &Mem{
		geo:     geo,
		data:    data,
		written: make([]uint64, (pages+63)/64),
		failIn:  -1,
		tear:    -1,
	}, nil
}

// Geometry reports the fixed layout of the medium.
func (m *Mem) Geometry() Geometry { return m.geo }

// Bytes exposes the backing array. Tests use it to corrupt specific bytes;
// production code has no business with it.
func (m *Mem) Bytes() []byte { return m.data }

// FailWrites makes the n-th subsequent write (1 = the very next one) fail
// with ErrWriteFault before any byte is persisted.
func (m *Mem) FailWrites(n int) { m.failIn = n }

// TearWrite makes the next write persist only its first k bytes before
// failing with ErrWriteFault, simulating power loss mid-program. The
// touched pages still count as written.
func (m *Mem) TearWrite(k int) { m.tear = k }

// ReadMeta reads from the metadata area.
func (m *Mem) ReadMeta(off int, p []byte) error {
	return m.read(0, off, p)
}

// WriteMeta programs the metadata area, subject to the write-once rule.
func (m *Mem) WriteMeta(off int, p []byte) error {
	return m.write(0, off, p)
}

// Read reads from a region.
func (m *Mem) Read(region uint32, off int, p []byte) error {
	base, err := m.regionBase(region)
	if err != nil {
		return err
	}
	return m.read(base, off, p)
}

// Write programs bytes into a region, subject to the write-once rule.
func (m *Mem) Write(region uint32, off int, p []byte) error {
	base, err := m.regionBase(region)
	if err != nil {
		return err
	}
	return m.write(base, off, p)
}

// Erase resets a region to 0xFF and clears its written bits.
func (m *Mem) Erase(region uint32) error {
	base, err := m.regionBase(region)
	if err != nil {
		return err
	}
	m.erase(base)
	return nil
}

// EraseMeta resets the metadata area, enabling destructive re-init.
func (m *Mem) EraseMeta() error {
	if m.closed {
		return ErrClosed
	}
	m.erase(0)
	return nil
}

// Sync is a no-op; memory is as durable as it gets.
func (m *Mem) Sync() error {
	if m.closed {
		return ErrClosed
	}
	return nil
}

// Close releases the medium.
func (m *Mem) Close() error {
	m.closed = true
	return nil
}

func (m *Mem) regionBase(region uint32) (int, error) {
	if m.closed {
		return 0, ErrClosed
	}
	if region >= m.geo.RegionCount {
		return 0, fmt.Errorf("medium: region %d of %d: %w", region, m.geo.RegionCount, ErrOutOfBounds)
	}
	return int(m.geo.RegionSize) * int(region+1), nil
}

func (m *Mem) read(base, off int, p []byte) error {
	if m.closed {
		return ErrClosed
	}
	if off < 0 || off+len(p) > int(m.geo.RegionSize) {
		return fmt.Errorf("medium: read [%d, %d) of %d: %w", off, off+len(p), m.geo.RegionSize, ErrOutOfBounds)
	}
	copy(p, m.data[base+off:])
	return nil
}

func (m *Mem) write(base, off int, p []byte) error {
	if m.closed {
		return ErrClosed
	}
	if off < 0 || off+len(p) > int(m.geo.RegionSize) {
		return fmt.Errorf("medium: write [%d, %d) of %d: %w", off, off+len(p), m.geo.RegionSize, ErrOutOfBounds)
	}
	if len(p) == 0 {
		return nil
	}
	if m.failIn > 0 {
		m.failIn--
		if m.failIn == 0 {
			m.failIn = -1
			return fmt.Errorf("medium: injected fault: %w", ErrWriteFault)
		}
	}
	abs := base + off
	if err := m.claimPages(abs, len(p)); err != nil {
		return err
	}
	if m.tear >= 0 {
		k := min(m.tear, len(p))
		m.tear = -1
		copy(m.data[abs:], p[:k])
		return fmt.Errorf("medium: injected torn write after %d bytes: %w", k, ErrWriteFault)
	}
	copy(m.data[abs:], p)
	return nil
}

// claimPages marks every page overlapping [abs, abs+n) as written, failing
// if any of them already is.
func (m *Mem) claimPages(abs, n int) error {
	ps := int(m.geo.PageSize)
	first := abs / ps
	last := (abs + n - 1) / ps
	for pg := first; pg <= last; pg++ {
		if m.written[pg/64]&(1<<(pg%64)) != 0 {
			return fmt.Errorf("medium: page %d: %w", pg, ErrPageRewrite)
		}
	}
	for pg := first; pg <= last; pg++ {
		m.written[pg/64] |= 1 << (pg % 64)
	}
	return nil
}

func (m *Mem) erase(base int) {
	rs := int(m.geo.RegionSize)
	for i := base; i < base+rs; i++ {
		m.data[i] = 0xFF
	}
	ps := int(m.geo.PageSize)
	for pg := base / ps; pg < (base+rs)/ps; pg++ {
		m.written[pg/64] &^= 1 << (pg % 64)
	}
}
