package minirel

import (
	"log"
	"sync"

	"golang.org/x/exp/slices"
)

// Permission names the kind of lock GetPage should acquire before
// handing back a page.
type Permission int

const (
	ReadOnly Permission = iota
	ReadWrite
)

// BufferPool is the single mediator between operators and the on-disk
// heap files: every page access goes through GetPage, which acquires
// the appropriate page lock before ever touching the cache or disk.
// The acquisition order is fixed — lock manager first, then cache
// mutex — so the two locking layers can never invert. Deadlocks across
// transactions resolve through LockManager's wait timeouts rather than
// a dependency graph.
type BufferPool struct {
	mu       sync.Mutex
	capacity int
	cache    map[PageId]*HeapPage
	order    []PageId // FIFO insertion order, since Go maps don't guarantee iteration order

	lockManager *LockManager
	catalog     *Catalog
}

// NewBufferPool returns an empty BufferPool capped at numPages cached
// pages.
func NewBufferPool(numPages int) *BufferPool {
	return &BufferPool{
		capacity:    numPages,
		cache:       make(map[PageId]*HeapPage),
		order:       make([]PageId, 0, numPages),
		lockManager: NewLockManager(),
	}
}

// SetCatalog wires the table registry BufferPool consults to resolve a
// PageId's TableId into the DBFile that owns it.
func (bp *BufferPool) SetCatalog(c *Catalog) {
	bp.catalog = c
}

func (bp *BufferPool) fileForTable(tableId int32) (DBFile, error) {
	if bp.catalog == nil {
		return nil, newDbError(NoSuchTable, "no catalog registered")
	}
	return bp.catalog.FileForTableId(tableId)
}

// GetPage returns the page named by pid, acquiring a shared or
// exclusive lock first depending on perm. On a cache miss it reads the
// page from its owning file, evicting a clean page first if the cache
// is at capacity. Returns a *TransactionAborted wrapped error if the
// lock cannot be acquired within tid's timeout window.
func (bp *BufferPool) GetPage(tid TransactionID, pid PageId, perm Permission) (*HeapPage, error) {
	var ok bool
	if perm == ReadOnly {
		ok = bp.lockManager.AcquireShared(tid, pid)
	} else {
		ok = bp.lockManager.AcquireExclusive(tid, pid)
	}
	if !ok {
		return nil, &TransactionAborted{Tid: tid, Pid: pid}
	}

	bp.mu.Lock()
	if p, found := bp.cache[pid]; found {
		bp.mu.Unlock()
		return p, nil
	}
	bp.mu.Unlock()

	file, err := bp.fileForTable(pid.TableId)
	if err != nil {
		return nil, err
	}
	page, err := file.readPage(pid.PageNumber)
	if err != nil {
		return nil, err
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()
	if p, found := bp.cache[pid]; found {
		return p, nil
	}
	if len(bp.cache) >= bp.capacity {
		if err := bp.evictLocked(tid); err != nil {
			return nil, err
		}
	}
	bp.cache[pid] = page
	bp.order = append(bp.order, pid)
	return page, nil
}

// evictLocked removes the oldest clean page from the cache, enforcing
// NO-STEAL: a dirty page is never written back early just to make
// room, so it can never be a candidate. A page write-locked by some
// other transaction is also exempt, since that writer is about to
// dirty it. Must be called with bp.mu held.
func (bp *BufferPool) evictLocked(tid TransactionID) error {
	victim := slices.IndexFunc(bp.order, func(pid PageId) bool {
		page := bp.cache[pid]
		if page == nil {
			return false
		}
		if _, dirty := page.isDirty(); dirty {
			return false
		}
		if bp.lockManager.IsWriteLocked(pid) && !bp.lockManager.HoldsLock(tid, pid) {
			return false
		}
		return true
	})
	if victim < 0 {
		return newDbError(BufferPoolFull, "no clean page available to evict")
	}
	delete(bp.cache, bp.order[victim])
	bp.order = slices.Delete(bp.order, victim, victim+1)
	return nil
}

// dirtyAndCache marks each page dirty by tid and makes sure it is
// resident in the cache, evicting if needed.
func (bp *BufferPool) dirtyAndCache(pages []*HeapPage, tid TransactionID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for _, p := range pages {
		p.markDirty(true, tid)
		if _, cached := bp.cache[p.id]; cached {
			continue
		}
		if len(bp.cache) >= bp.capacity {
			if err := bp.evictLocked(tid); err != nil {
				return err
			}
		}
		bp.cache[p.id] = p
		bp.order = append(bp.order, p.id)
	}
	return nil
}

// InsertTuple delegates to the owning HeapFile to place t, then marks
// every page it touched dirty and ensures each is in the cache.
func (bp *BufferPool) InsertTuple(tid TransactionID, tableId int32, t *Tuple) error {
	file, err := bp.fileForTable(tableId)
	if err != nil {
		return err
	}
	pages, err := file.insertTuple(tid, t)
	if err != nil {
		return err
	}
	return bp.dirtyAndCache(pages, tid)
}

// DeleteTuple delegates to t's owning HeapFile, then marks the affected
// page dirty.
func (bp *BufferPool) DeleteTuple(tid TransactionID, tableId int32, t *Tuple) error {
	file, err := bp.fileForTable(tableId)
	if err != nil {
		return err
	}
	page, err := file.deleteTuple(tid, t)
	if err != nil {
		return err
	}
	return bp.dirtyAndCache([]*HeapPage{page}, tid)
}

// FlushPage writes pid's cached image to disk, if cached, and clears
// its dirty marker.
func (bp *BufferPool) FlushPage(pid PageId) error {
	bp.mu.Lock()
	page, ok := bp.cache[pid]
	bp.mu.Unlock()
	if !ok {
		return nil
	}
	file, err := bp.fileForTable(pid.TableId)
	if err != nil {
		return err
	}
	if err := file.writePage(page); err != nil {
		return err
	}
	page.markDirty(false, 0)
	return nil
}

// TransactionComplete ends tid: on commit, every page it dirtied is
// flushed to disk before locks are released; on abort, those pages are
// simply discarded from the cache so the next reader re-reads the
// unmodified disk image. Shared-only locks are dropped first since
// they never guarded a write.
func (bp *BufferPool) TransactionComplete(tid TransactionID, commit bool) error {
	for _, pid := range bp.lockManager.sharedOnlyPages(tid) {
		bp.lockManager.Release(tid, pid)
	}

	bp.mu.Lock()
	for pid, page := range bp.cache {
		dirtyTid, dirty := page.isDirty()
		if !dirty || dirtyTid != tid {
			continue
		}
		if commit {
			file, err := bp.fileForTable(pid.TableId)
			if err != nil {
				log.Printf("WARNING: commit of %v: could not resolve table for page %v: %v", tid, pid, err)
				continue
			}
			if err := file.writePage(page); err != nil {
				log.Printf("WARNING: commit of %v: flushing page %v failed: %v", tid, pid, err)
				continue
			}
			page.markDirty(false, 0)
		} else {
			delete(bp.cache, pid)
			bp.removeFromOrderLocked(pid)
		}
	}
	bp.mu.Unlock()

	bp.lockManager.UnlockAllPages(tid)
	return nil
}

func (bp *BufferPool) removeFromOrderLocked(pid PageId) {
	if i := slices.Index(bp.order, pid); i >= 0 {
		bp.order = slices.Delete(bp.order, i, i+1)
	}
}

// flushAllPages writes every dirty page in the cache to disk. Intended
// for tests and clean shutdown, never for transaction abort.
func (bp *BufferPool) flushAllPages() error {
	bp.mu.Lock()
	pids := make([]PageId, 0, len(bp.cache))
	for pid := range bp.cache {
		pids = append(pids, pid)
	}
	bp.mu.Unlock()

	for _, pid := range pids {
		if err := bp.FlushPage(pid); err != nil {
			return err
		}
	}
	return nil
}
