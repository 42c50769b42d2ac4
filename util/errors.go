package util

type HifadhiError struct {
	Message string
	Err     error
}

func (e *HifadhiError) Error() string {
	return e.Message
}

func (e *HifadhiError) Unwrap() error {
	return e.Err
}

type PoolExhaustedError struct {
	*HifadhiError
}

type PageNotFoundError struct {
	*HifadhiError
}

// ErrPoolExhausted signals that every frame is pinned and the free list is
// empty. Callers are expected to retry after releasing pages, not to abort.
var ErrPoolExhausted = &PoolExhaustedError{&HifadhiError{Message: "buffer pool exhausted: no free or evictable frame"}}

var ErrPageNotFound = &PageNotFoundError{&HifadhiError{Message: "page not found"}}
