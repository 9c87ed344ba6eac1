package store

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID returns the runtime's id for the calling goroutine, parsed from
// the "goroutine N [" stack header. It is only compared for equality.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	field := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(field, ' '); i >= 0 {
		field = field[:i]
	}
	id, err := strconv.ParseUint(string(field), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
