package disk

import (
	"sync"
)

// Scheduler funnels page I/O requests to per-page worker queues so requests
// against the same page execute in submission order while requests against
// different pages proceed independently.
type Scheduler struct {
	reqCh       chan Request
	diskManager *Manager

	pageQueueMu sync.Mutex
	pageQueue   map[int64]chan Request
}

type Request struct {
	PageId int64
	Data   []byte
	Write  bool
	RespCh chan Response
}

type Response struct {
	Data []byte
	Err  error
}

func NewScheduler(diskManager *Manager) *Scheduler {
	ds := &Scheduler{
		reqCh:       make(chan Request, 100),
		pageQueue:   make(map[int64]chan Request),
		diskManager: diskManager,
	}

	go ds.dispatch()
	return ds
}

func NewReadRequest(pageId int64) Request {
	return Request{
		PageId: pageId,
		Write:  false,
		RespCh: make(chan Response, 1),
	}
}

func NewWriteRequest(pageId int64, data []byte) Request {
	return Request{
		PageId: pageId,
		Data:   data,
		Write:  true,
		RespCh: make(chan Response, 1),
	}
}

func (ds *Scheduler) Schedule(req Request) <-chan Response {
	ds.reqCh <- req
	return req.RespCh
}

// AllocatePage delegates to the disk manager; page id allocation is pure
// metadata and needs no queueing.
func (ds *Scheduler) AllocatePage() int64 {
	return ds.diskManager.AllocatePage()
}

func (ds *Scheduler) DeallocatePage(pageId int64) {
	ds.diskManager.DeallocatePage(pageId)
}

// Close stops the dispatcher. Pending workers drain their queues and exit.
func (ds *Scheduler) Close() {
	close(ds.reqCh)
}

func (ds *Scheduler) dispatch() {
	for req := range ds.reqCh {
		ds.pageQueueMu.Lock()
		queue, ok := ds.pageQueue[req.PageId]
		if !ok {
			queue = make(chan Request, 64)
			ds.pageQueue[req.PageId] = queue
		}
		queue <- req
		ds.pageQueueMu.Unlock()

		// a missing entry means no worker is draining this queue yet
		if !ok {
			go ds.pageWorker(req.PageId, queue)
		}
	}
}

func (ds *Scheduler) pageWorker(pageId int64, reqQueue chan Request) {
	for {
		select {
		case req := <-reqQueue:
			ds.serve(req)

		default:
			// exit check must hold the queue lock or dispatch could enqueue
			// into a queue nobody drains
			ds.pageQueueMu.Lock()
			if len(reqQueue) == 0 {
				delete(ds.pageQueue, pageId)
				ds.pageQueueMu.Unlock()
				return
			}
			ds.pageQueueMu.Unlock()
		}
	}
}

func (ds *Scheduler) serve(req Request) {
	if req.Write {
		err := ds.diskManager.WritePage(req.PageId, req.Data)
		req.RespCh <- Response{Err: err}
		return
	}

	data, err := ds.diskManager.ReadPage(req.PageId)
	req.RespCh <- Response{Data: data, Err: err}
}
