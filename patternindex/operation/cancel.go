package operation

import (
	"sync/atomic"
	"time"

	"github.com/qlever-go/patternindex/scanerr"
)

// CancelToken is a shared, O(1)-checkable deadline. A whole query tree
// shares one token; Expired() compares the current time against an
// atomically stored deadline, so nodes can check it at their checkpoints
// (see CheckTimeout) without locking.
type CancelToken struct {
	deadline atomic.Int64 // unix nanos; 0 means no deadline
}

// NewCancelToken creates a token with the given deadline. A zero Time
// means the query never times out.
func NewCancelToken(deadline time.Time) *CancelToken {
	t := &CancelToken{}
	if !deadline.IsZero() {
		t.deadline.Store(deadline.UnixNano())
	}
	return t
}

// Expired reports whether the deadline has passed. Safe for concurrent
// use from multiple goroutines scanning different parts of the tree.
func (t *CancelToken) Expired() bool {
	d := t.deadline.Load()
	if d == 0 {
		return false
	}
	return time.Now().UnixNano() >= d
}

// Tighten lowers the deadline if newDeadline is earlier than the current
// one (or no deadline is currently set), mirroring recursivelySetTimeout's
// effect of propagating the tightest applicable bound down a subtree.
func (t *CancelToken) Tighten(newDeadline time.Time) {
	if newDeadline.IsZero() {
		return
	}
	newNanos := newDeadline.UnixNano()
	for {
		cur := t.deadline.Load()
		if cur != 0 && cur <= newNanos {
			return
		}
		if t.deadline.CompareAndSwap(cur, newNanos) {
			return
		}
	}
}

// CheckTimeout returns a scanerr Timeout error if the token has expired,
// naming op as the failing node, and nil otherwise. Operators call this
// at natural checkpoints (e.g. once per scan mode dispatch, not per row)
// to keep the check off the hottest loops while still bounding worst-case
// overrun.
func CheckTimeout(t *CancelToken, op string) error {
	if t.Expired() {
		return scanerr.New(scanerr.Timeout, op, nil)
	}
	return nil
}
