// Package ids provides the two identifier kinds used by the service:
// ksuid strings for request correlation and monotonically increasing
// millisecond-timestamp integers for media records.
package ids

import (
	"sync"
	"time"

	"github.com/segmentio/ksuid"
)

// NewRequestID returns a sortable unique id used to correlate the log
// lines of a single generation request.
func NewRequestID() string {
	return ksuid.New().String()
}

var (
	mediaMu sync.Mutex
	lastID  int64
)

// NewMediaID derives a record id from the current wall clock in
// milliseconds. Two calls within the same millisecond still yield
// distinct, strictly increasing ids.
func NewMediaID() int64 {
	mediaMu.Lock()
	defer mediaMu.Unlock()

	id := time.Now().UnixMilli()
	if id <= lastID {
		id = lastID + 1
	}
	lastID = id
	return id
}
