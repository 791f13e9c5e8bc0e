package minirel

import (
	"hash/fnv"
	"os"
	"path/filepath"
	"sync"
)

// DBFile is the on-disk backing store a BufferPool reads pages through.
// HeapFile is the only implementation; the interface exists so the
// Catalog and BufferPool don't need to know that.
type DBFile interface {
	id() int32
	readPage(pageNumber int32) (*HeapPage, error)
	writePage(p *HeapPage) error
	numPages() int32
	descriptor() *TupleDesc
	insertTuple(tid TransactionID, t *Tuple) ([]*HeapPage, error)
	deleteTuple(tid TransactionID, t *Tuple) (*HeapPage, error)
	iterator(tid TransactionID) *heapFileIterator
}

// HeapFile is an unordered collection of tuples backed by a single
// file of fixed-size pages. All tuple-level access goes through the
// BufferPool so locking and dirty-page tracking stay uniform; only
// readPage/writePage touch the file directly.
type HeapFile struct {
	mu   sync.Mutex // serializes raw file I/O (readPage/writePage/append)
	file *os.File
	path string
	desc *TupleDesc
	tid  int32

	bp *BufferPool
}

// NewHeapFile opens (creating if absent) the file at path as a HeapFile
// with the given schema, mediated by bp.
func NewHeapFile(path string, desc *TupleDesc, bp *BufferPool) (*HeapFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, wrapIoError("opening heap file", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &HeapFile{
		file: f,
		path: path,
		desc: desc,
		tid:  hashTableId(abs),
		bp:   bp,
	}, nil
}

// hashTableId derives a table id from the file's absolute path, so the
// same table always maps to the same id across process restarts.
func hashTableId(absPath string) int32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(absPath))
	return int32(h.Sum32() & 0x7fffffff)
}

func (f *HeapFile) id() int32              { return f.tid }
func (f *HeapFile) descriptor() *TupleDesc { return f.desc }

func (f *HeapFile) tupleSize() int {
	return f.desc.bytesPerTuple()
}

// numPages returns the number of complete PageSize-byte pages currently
// in the file; a trailing partial page (there shouldn't be one) is
// ignored.
func (f *HeapFile) numPages() int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, err := f.file.Stat()
	if err != nil {
		return 0
	}
	return int32(info.Size() / int64(PageSize))
}

// readPage reads page pageNumber directly from disk. Used by
// BufferPool on a cache miss; callers must already hold the
// appropriate lock via LockManager.
func (f *HeapFile) readPage(pageNumber int32) (*HeapPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pid := PageId{TableId: f.tid, PageNumber: pageNumber}
	buf := make([]byte, PageSize)
	n, err := f.file.ReadAt(buf, int64(pageNumber)*int64(PageSize))
	if err != nil && n != PageSize {
		return nil, newDbError(ShortRead, "reading page %v: %v", pid, err)
	}
	return NewHeapPageFromBytes(pid, f.desc, buf)
}

// writePage flushes p's current image to its slot in the file.
func (f *HeapFile) writePage(p *HeapPage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data := p.pageData()
	off := int64(p.id.PageNumber) * int64(PageSize)
	if _, err := f.file.WriteAt(data, off); err != nil {
		return wrapIoError("writing page", err)
	}
	return nil
}

// appendEmptyPage extends the file on disk with one freshly-initialized
// page. This is a raw file write, not a cached one: the new page only
// enters the buffer pool when a caller fetches it through GetPage.
func (f *HeapFile) appendEmptyPage(pageNumber int32) error {
	empty := NewEmptyHeapPage(PageId{TableId: f.tid, PageNumber: pageNumber}, f.desc)
	return f.writePage(empty)
}

// insertTuple places t on the first page with a free slot, or appends a
// new page if none has room. Each candidate page is first acquired
// ReadOnly; if it turns out full and the transaction didn't already
// hold a lock on it, that ReadOnly lock is released immediately rather
// than accumulating shared locks across the scan. Returns the page(s)
// that were modified, for the BufferPool to mark dirty and cache.
func (f *HeapFile) insertTuple(tid TransactionID, t *Tuple) ([]*HeapPage, error) {
	n := f.numPages()
	for pn := int32(0); pn < n; pn++ {
		pid := PageId{TableId: f.tid, PageNumber: pn}
		alreadyHeld := f.bp.lockManager.HoldsLock(tid, pid)

		page, err := f.bp.GetPage(tid, pid, ReadOnly)
		if err != nil {
			return nil, err
		}
		if page.numUnusedSlots() == 0 {
			if !alreadyHeld {
				f.bp.lockManager.Release(tid, pid)
			}
			continue
		}

		wpage, err := f.bp.GetPage(tid, pid, ReadWrite)
		if err != nil {
			return nil, err
		}
		if err := wpage.insertTuple(t); err != nil {
			return nil, err
		}
		return []*HeapPage{wpage}, nil
	}

	newPn := n
	if err := f.appendEmptyPage(newPn); err != nil {
		return nil, err
	}
	pid := PageId{TableId: f.tid, PageNumber: newPn}
	page, err := f.bp.GetPage(tid, pid, ReadWrite)
	if err != nil {
		return nil, err
	}
	if err := page.insertTuple(t); err != nil {
		return nil, err
	}
	return []*HeapPage{page}, nil
}

// deleteTuple removes t (identified by t.Rid) from its page, fetched
// READ_WRITE via the buffer pool. Returns the modified page for the
// BufferPool to mark dirty.
func (f *HeapFile) deleteTuple(tid TransactionID, t *Tuple) (*HeapPage, error) {
	if t.Rid == nil {
		return nil, newDbError(IllegalArgumentError, "deleteTuple: tuple has no RecordId")
	}
	page, err := f.bp.GetPage(tid, t.Rid.PageID, ReadWrite)
	if err != nil {
		return nil, err
	}
	if err := page.deleteTuple(*t.Rid); err != nil {
		return nil, err
	}
	return page, nil
}

// iterator returns an open/next/close/rewind cursor over every tuple in
// the file, fetching one page at a time ReadOnly through the buffer
// pool.
func (f *HeapFile) iterator(tid TransactionID) *heapFileIterator {
	return &heapFileIterator{file: f, tid: tid}
}

type heapFileIterator struct {
	file   *HeapFile
	tid    TransactionID
	pageNo int32
	page   *HeapPage
	next   func() (*Tuple, error)
	isOpen bool
}

func (it *heapFileIterator) Open() error {
	it.pageNo = 0
	it.page = nil
	it.next = nil
	it.isOpen = true
	return nil
}

func (it *heapFileIterator) advancePage() error {
	n := it.file.numPages()
	if it.pageNo >= n {
		it.page = nil
		it.next = nil
		return nil
	}
	pid := PageId{TableId: it.file.tid, PageNumber: it.pageNo}
	page, err := it.file.bp.GetPage(it.tid, pid, ReadOnly)
	if err != nil {
		return err
	}
	it.page = page
	it.next = page.iter()
	it.pageNo++
	return nil
}

func (it *heapFileIterator) Next() (*Tuple, error) {
	if !it.isOpen {
		return nil, newDbError(IllegalStateError, "heapFileIterator: Next called before Open")
	}
	for {
		if it.next == nil {
			if err := it.advancePage(); err != nil {
				return nil, err
			}
			if it.next == nil {
				return nil, nil
			}
		}
		t, err := it.next()
		if err != nil {
			return nil, err
		}
		if t != nil {
			return t, nil
		}
		it.next = nil
	}
}

func (it *heapFileIterator) Rewind() error {
	return it.Open()
}

func (it *heapFileIterator) Close() error {
	it.isOpen = false
	it.page = nil
	it.next = nil
	return nil
}
