package disk

import (
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/njenga/hifadhi/logger"
)

const (
	PAGE_SIZE             = 4096
	INVALID_PAGE_ID int64 = -1

	DEFAULT_PAGE_CAPACITY = 16
)

// Manager performs synchronous fixed-size page I/O against a single database
// file. Pages live at offsets derived from an internal page id -> offset map;
// offsets of deallocated pages are reused before the file is grown.
type Manager struct {
	mu           sync.Mutex
	dbFile       *os.File
	pages        map[int64]int64
	freeSlots    []int64
	nextPageId   int64
	nextOffset   int64
	pageCapacity int
}

func NewManager(file *os.File) (*Manager, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stating db file")
	}

	pageCapacity := int(info.Size() / PAGE_SIZE)
	if pageCapacity == 0 {
		pageCapacity = DEFAULT_PAGE_CAPACITY
		if err := os.Truncate(file.Name(), int64(pageCapacity)*PAGE_SIZE); err != nil {
			return nil, errors.Wrap(err, "sizing db file")
		}
	}

	return &Manager{
		dbFile:       file,
		pageCapacity: pageCapacity,
		freeSlots:    []int64{},
		pages:        map[int64]int64{},
	}, nil
}

func (dm *Manager) WritePage(pageId int64, data []byte) error {
	offset, err := dm.offsetFor(pageId)
	if err != nil {
		return err
	}

	if _, err := dm.dbFile.WriteAt(data, offset); err != nil {
		return errors.Wrapf(err, "writing page %d at offset %d", pageId, offset)
	}

	return nil
}

// ReadPage returns the page's on-disk image. A page that has never been
// written reads back as a zeroed image.
func (dm *Manager) ReadPage(pageId int64) ([]byte, error) {
	offset, err := dm.offsetFor(pageId)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, PAGE_SIZE)
	if _, err := dm.dbFile.ReadAt(buf, offset); err != nil {
		return nil, errors.Wrapf(err, "reading page %d from offset %d", pageId, offset)
	}

	return buf, nil
}

// AllocatePage hands out the next unused page id.
func (dm *Manager) AllocatePage() int64 {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	id := dm.nextPageId
	dm.nextPageId++
	return id
}

// DeallocatePage releases the page's file slot for reuse. Unknown page ids
// are ignored.
func (dm *Manager) DeallocatePage(pageId int64) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if offset, ok := dm.pages[pageId]; ok {
		dm.freeSlots = append(dm.freeSlots, offset)
		delete(dm.pages, pageId)
	}
}

// offsetFor resolves a page id to its file offset, assigning a slot on first
// touch and growing the file when the current capacity is used up.
func (dm *Manager) offsetFor(pageId int64) (int64, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if offset, ok := dm.pages[pageId]; ok {
		return offset, nil
	}

	if len(dm.freeSlots) > 0 {
		offset := dm.freeSlots[0]
		dm.freeSlots = dm.freeSlots[1:]
		dm.pages[pageId] = offset
		return offset, nil
	}

	if int(dm.nextOffset/PAGE_SIZE)+1 > dm.pageCapacity {
		dm.pageCapacity *= 2
		logger.Debugf("resizing db file %s to %d pages", dm.dbFile.Name(), dm.pageCapacity)
		if err := os.Truncate(dm.dbFile.Name(), int64(dm.pageCapacity)*PAGE_SIZE); err != nil {
			return -1, errors.Wrap(err, "resizing db file")
		}
	}

	offset := dm.nextOffset
	dm.nextOffset += PAGE_SIZE
	dm.pages[pageId] = offset
	return offset, nil
}
