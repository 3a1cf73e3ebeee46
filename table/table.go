package table

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"unsafe"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/yugurt2005/poker-abstraction/blobstore"
)

var (
	// ErrCorrupt is returned when table bytes are malformed.
	ErrCorrupt = errors.New("table: corrupt table")
	// ErrTooManyBuckets is returned when k does not fit a uint16 id.
	ErrTooManyBuckets = errors.New("table: too many buckets")
)

const (
	magic      = "PATB"
	version    = 1
	headerSize = 12

	// MaxBuckets is the largest k a table can hold.
	MaxBuckets = math.MaxUint16 + 1
)

// Table is an immutable row to bucket-id lookup.
type Table struct {
	k   int
	ids []uint16

	membersOnce sync.Once
	members     []*roaring.Bitmap

	blob blobstore.Blob
}

// New builds a table from a cluster assignment with ids in [0, k).
func New(assignment []int, k int) (*Table, error) {
	if k <= 0 {
		return nil, fmt.Errorf("table: k must be positive, got %d", k)
	}
	if k > MaxBuckets {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyBuckets, k, MaxBuckets)
	}
	if len(assignment) > math.MaxUint32 {
		return nil, fmt.Errorf("table: %d rows exceed the format limit", len(assignment))
	}

	ids := make([]uint16, len(assignment))
	for i, a := range assignment {
		if a < 0 || a >= k {
			return nil, fmt.Errorf("table: row %d: bucket %d out of range [0, %d)", i, a, k)
		}
		ids[i] = uint16(a)
	}
	return &Table{k: k, ids: ids}, nil
}

// Lookup returns the bucket of row. It panics if row is out of range.
func (t *Table) Lookup(row int) uint16 {
	return t.ids[row]
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.ids)
}

// K returns the number of buckets.
func (t *Table) K() int {
	return t.k
}

// IDs returns the raw ids. The slice must not be modified.
func (t *Table) IDs() []uint16 {
	return t.ids
}

// Sizes returns the number of rows in each bucket.
func (t *Table) Sizes() []int {
	sizes := make([]int, t.k)
	for _, id := range t.ids {
		sizes[id]++
	}
	return sizes
}

// Members returns the rows in bucket as a bitmap. The bitmap must not be
// modified.
func (t *Table) Members(bucket int) *roaring.Bitmap {
	t.membersOnce.Do(func() {
		t.members = buildMembers(t.ids, t.k)
	})
	if bucket < 0 || bucket >= t.k {
		return roaring.New()
	}
	return t.members[bucket]
}

func buildMembers(ids []uint16, k int) []*roaring.Bitmap {
	rows := make([][]uint32, k)
	for i, id := range ids {
		rows[id] = append(rows[id], uint32(i))
	}
	members := make([]*roaring.Bitmap, k)
	for b, r := range rows {
		members[b] = roaring.BitmapOf(r...)
		members[b].RunOptimize()
	}
	return members
}

// Equal reports whether two tables hold the same ids and k.
func (t *Table) Equal(other *Table) bool {
	if t.k != other.k || len(t.ids) != len(other.ids) {
		return false
	}
	for i := range t.ids {
		if t.ids[i] != other.ids[i] {
			return false
		}
	}
	return true
}

// MarshalBinary encodes the table.
func (t *Table) MarshalBinary() ([]byte, error) {
	buf := make([]byte, headerSize+2*len(t.ids))
	copy(buf, magic)
	binary.LittleEndian.PutUint16(buf[4:], version)
	binary.LittleEndian.PutUint16(buf[6:], uint16(t.k))
	binary.LittleEndian.PutUint32(buf[8:], uint32(len(t.ids)))
	for i, id := range t.ids {
		binary.LittleEndian.PutUint16(buf[headerSize+2*i:], id)
	}
	return buf, nil
}

// UnmarshalBinary decodes a table, copying the ids.
func (t *Table) UnmarshalBinary(data []byte) error {
	k, n, err := parseHeader(data)
	if err != nil {
		return err
	}

	ids := make([]uint16, n)
	for i := range ids {
		ids[i] = binary.LittleEndian.Uint16(data[headerSize+2*i:])
	}
	if err := checkIDs(ids, k); err != nil {
		return err
	}

	t.k = k
	t.ids = ids
	return nil
}

func parseHeader(data []byte) (k, n int, err error) {
	if len(data) < headerSize || string(data[:4]) != magic {
		return 0, 0, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if v := binary.LittleEndian.Uint16(data[4:]); v != version {
		return 0, 0, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}

	k = int(binary.LittleEndian.Uint16(data[6:]))
	if k == 0 {
		k = MaxBuckets
	}
	n = int(binary.LittleEndian.Uint32(data[8:]))
	if want := headerSize + 2*n; len(data) != want {
		return 0, 0, fmt.Errorf("%w: size %d, want %d", ErrCorrupt, len(data), want)
	}
	return k, n, nil
}

func checkIDs(ids []uint16, k int) error {
	if k == MaxBuckets {
		return nil
	}
	for i, id := range ids {
		if int(id) >= k {
			return fmt.Errorf("%w: row %d: bucket %d >= k %d", ErrCorrupt, i, id, k)
		}
	}
	return nil
}

// Write stores the table under name.
func (t *Table) Write(ctx context.Context, store blobstore.Store, name string) error {
	data, err := t.MarshalBinary()
	if err != nil {
		return err
	}
	return store.Put(ctx, name, data)
}

// Open loads the table stored under name.
//
// When the blob is memory mapped on a little-endian host, the ids alias the
// mapping and the table must be closed to release it. Otherwise the ids are
// copied and Close is a no-op.
func Open(ctx context.Context, store blobstore.Store, name string) (*Table, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	if m, ok := blob.(blobstore.Mappable); ok && littleEndian {
		data, err := m.Bytes()
		if err != nil {
			_ = blob.Close()
			return nil, err
		}
		t, err := view(data)
		if err != nil {
			_ = blob.Close()
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		t.blob = blob
		return t, nil
	}
	defer blob.Close()

	data := make([]byte, blob.Size())
	if n, err := blob.ReadAt(data, 0); n != len(data) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("table: read %s: %w", name, err)
	}

	t := new(Table)
	if err := t.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

// view builds a table whose ids alias data.
func view(data []byte) (*Table, error) {
	k, n, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	var ids []uint16
	if n > 0 {
		body := data[headerSize:]
		if uintptr(unsafe.Pointer(&body[0]))%unsafe.Alignof(uint16(0)) != 0 {
			// Unaligned mappings fall back to a copy.
			t := new(Table)
			return t, t.UnmarshalBinary(data)
		}
		ids = unsafe.Slice((*uint16)(unsafe.Pointer(&body[0])), n)
	}
	if err := checkIDs(ids, k); err != nil {
		return nil, err
	}
	return &Table{k: k, ids: ids}, nil
}

// Close releases the blob backing an opened table. The table must not be
// used afterwards.
func (t *Table) Close() error {
	if t.blob == nil {
		return nil
	}
	err := t.blob.Close()
	t.blob = nil
	t.ids = nil
	return err
}

var littleEndian = func() bool {
	x := uint16(1)
	return *(*byte)(unsafe.Pointer(&x)) == 1
}()
