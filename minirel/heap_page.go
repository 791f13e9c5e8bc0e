package minirel

import (
	"bytes"
)

// HeapPage is a fixed PageSize-byte slotted page: a bitmap header
// (bit i set iff slot i holds a tuple) followed by a C-slot tuple area,
// zero-padded to PageSize. Bit ordering is little-endian within a byte
// (bit 0 = LSB = slot 0 of that byte).
//
// The "dirty" marker and "before image" are transient, in-memory-only
// bookkeeping — dirtyBy names the transaction that last wrote the page,
// and beforeImage is the byte image captured the moment the page went
// from clean to dirty. BufferPool discards an aborted transaction's
// writes by dropping the cached page, not by restoring this image.
// Both are ids and values, never back-pointers.
type HeapPage struct {
	id          PageId
	desc        *TupleDesc
	tupleSize   int
	capacity    int
	headerBytes int

	header []byte
	tuples []*Tuple

	dirtyBy     *TransactionID
	beforeImage []byte
}

// heapPageCapacity returns C, the number of tuple slots that fit in a
// PageSize-byte page whose tuples are tupleSize bytes wide:
// C = floor((PageSize*8) / (tupleSize*8 + 1)), each slot costing its
// tuple bytes plus one header bit.
func heapPageCapacity(tupleSize int) int {
	if tupleSize <= 0 {
		return 0
	}
	return (PageSize * 8) / (tupleSize*8 + 1)
}

func headerByteLen(capacity int) int {
	return (capacity + 7) / 8
}

// NewEmptyHeapPage returns a fresh page image with a zeroed header and
// no tuples.
func NewEmptyHeapPage(pid PageId, desc *TupleDesc) *HeapPage {
	tupleSize := desc.bytesPerTuple()
	capacity := heapPageCapacity(tupleSize)
	hb := headerByteLen(capacity)
	return &HeapPage{
		id:          pid,
		desc:        desc,
		tupleSize:   tupleSize,
		capacity:    capacity,
		headerBytes: hb,
		header:      make([]byte, hb),
		tuples:      make([]*Tuple, capacity),
	}
}

// NewHeapPageFromBytes parses a PageSize-byte image into a HeapPage.
// Fails with CorruptPage if the buffer isn't exactly PageSize bytes.
func NewHeapPageFromBytes(pid PageId, desc *TupleDesc, data []byte) (*HeapPage, error) {
	if len(data) != PageSize {
		return nil, newDbError(CorruptPage, "page %v: expected %d bytes, got %d", pid, PageSize, len(data))
	}
	p := NewEmptyHeapPage(pid, desc)
	copy(p.header, data[:p.headerBytes])

	buf := bytes.NewReader(data[p.headerBytes:])
	for slot := 0; slot < p.capacity; slot++ {
		chunk := make([]byte, p.tupleSize)
		if _, err := buf.Read(chunk); err != nil {
			return nil, newDbError(ShortRead, "page %v: reading slot %d: %v", pid, slot, err)
		}
		if !p.slotOccupied(slot) {
			continue
		}
		tup, err := readTupleFrom(bytes.NewBuffer(chunk), desc)
		if err != nil {
			return nil, err
		}
		rid := RecordId{PageID: pid, TupleIndex: int32(slot)}
		tup.Rid = &rid
		p.tuples[slot] = tup
	}
	return p, nil
}

func (p *HeapPage) slotOccupied(slot int) bool {
	return p.header[slot/8]&(1<<uint(slot%8)) != 0
}

func (p *HeapPage) setSlot(slot int) {
	p.header[slot/8] |= 1 << uint(slot%8)
}

func (p *HeapPage) clearSlot(slot int) {
	p.header[slot/8] &^= 1 << uint(slot%8)
}

// numUnusedSlots returns the count of free slots on the page.
func (p *HeapPage) numUnusedSlots() int {
	n := 0
	for i := 0; i < p.capacity; i++ {
		if !p.slotOccupied(i) {
			n++
		}
	}
	return n
}

// insertTuple writes t into the lowest-index free slot, setting its
// RecordId. Fails with PageFull if no slot is free, SchemaMismatch if
// t's TupleDesc doesn't match the page's.
func (p *HeapPage) insertTuple(t *Tuple) error {
	if !t.Desc.equals(p.desc) {
		return newDbError(SchemaMismatch, "page %v: tuple desc doesn't match table schema", p.id)
	}
	for slot := 0; slot < p.capacity; slot++ {
		if p.slotOccupied(slot) {
			continue
		}
		rid := RecordId{PageID: p.id, TupleIndex: int32(slot)}
		stored := &Tuple{Desc: *p.desc, Fields: t.Fields, Rid: &rid}
		p.tuples[slot] = stored
		p.setSlot(slot)
		t.Rid = &rid
		return nil
	}
	return newDbError(PageFull, "page %v: no free slot", p.id)
}

// deleteTuple clears the slot named by rid.TupleIndex. Fails with
// NotOnThisPage if the RecordId names a different page, SlotEmpty if
// the slot is already free.
func (p *HeapPage) deleteTuple(rid RecordId) error {
	if rid.PageID != p.id {
		return newDbError(NotOnThisPage, "record %v is not on page %v", rid, p.id)
	}
	slot := int(rid.TupleIndex)
	if slot < 0 || slot >= p.capacity || !p.slotOccupied(slot) {
		return newDbError(SlotEmpty, "page %v: slot %d is empty", p.id, slot)
	}
	p.clearSlot(slot)
	p.tuples[slot] = nil
	return nil
}

// markDirty records (or clears) which transaction last wrote the page.
// The first transition from clean to dirty snapshots the current image
// so an abort can restore it; further writes leave the snapshot alone.
func (p *HeapPage) markDirty(dirty bool, tid TransactionID) {
	if dirty {
		if p.dirtyBy == nil {
			p.beforeImage = p.pageData()
		}
		t := tid
		p.dirtyBy = &t
		return
	}
	p.dirtyBy = nil
}

// isDirty returns the dirtying transaction and true, or the zero value
// and false if the page is clean.
func (p *HeapPage) isDirty() (TransactionID, bool) {
	if p.dirtyBy == nil {
		return 0, false
	}
	return *p.dirtyBy, true
}

// getBeforeImage returns the byte image captured at the moment this
// page was first dirtied since its last clean state, or the current
// image if the page has never been dirtied. BufferPool's abort path
// does not read it; it drops the dirty page from the cache instead.
func (p *HeapPage) getBeforeImage() []byte {
	if p.beforeImage == nil {
		return p.pageData()
	}
	return p.beforeImage
}

// pageData serializes the page's header and tuple slots, zero-padded
// to PageSize.
func (p *HeapPage) pageData() []byte {
	buf := make([]byte, PageSize)
	copy(buf, p.header)
	offset := p.headerBytes
	for slot := 0; slot < p.capacity; slot++ {
		tup := p.tuples[slot]
		if tup != nil {
			var slotBuf bytes.Buffer
			tup.writeTo(&slotBuf) // width is fixed by schema; error impossible for valid tuples
			copy(buf[offset:offset+p.tupleSize], slotBuf.Bytes())
		}
		offset += p.tupleSize
	}
	return buf
}

// iter returns a function yielding occupied tuples in ascending slot
// order, then nil.
func (p *HeapPage) iter() func() (*Tuple, error) {
	slot := 0
	return func() (*Tuple, error) {
		for slot < p.capacity {
			t := p.tuples[slot]
			slot++
			if t != nil {
				return t, nil
			}
		}
		return nil, nil
	}
}
