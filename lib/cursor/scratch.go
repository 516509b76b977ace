package cursor

import "sync"

const (
	// initialScratchSize is the capacity of a fresh scratch buffer
	initialScratchSize = 256
	// MaxScratchSize caps the capacity of pooled scratch buffers. Buffers
	// that grew beyond it are dropped on release instead of being reused.
	MaxScratchSize = 64 * 1024
)

// Scratch is a reusable buffer used to stage cursor payloads. A Scratch is
// checked out by one worker for the duration of one command and never shared.
type Scratch struct {
	buf []byte
}

var scratchPool = sync.Pool{
	New: func() interface{} {
		return &Scratch{buf: make([]byte, 0, initialScratchSize)}
	},
}

// AcquireScratch checks out an empty scratch buffer
func AcquireScratch() *Scratch {
	s := scratchPool.Get().(*Scratch)
	s.Reset()
	return s
}

// ReleaseScratch returns the buffer to the pool (nil is ignored)
func ReleaseScratch(s *Scratch) {
	if s == nil || cap(s.buf) > MaxScratchSize {
		return
	}
	scratchPool.Put(s)
}

// Reset empties the buffer and keeps its capacity
func (s *Scratch) Reset() {
	s.buf = s.buf[:0]
}

// Bytes returns the staged bytes. The slice is only valid until the next Reset.
func (s *Scratch) Bytes() []byte {
	return s.buf
}

// Append stages b and returns the staged bytes
func (s *Scratch) Append(b ...byte) []byte {
	s.buf = append(s.buf, b...)
	return s.buf
}

// Stage resets the buffer, lets fn append a payload and returns it
func (s *Scratch) Stage(fn func(dst []byte) []byte) []byte {
	s.buf = fn(s.buf[:0])
	return s.buf
}

// Cap returns the capacity of the underlying buffer
func (s *Scratch) Cap() int {
	return cap(s.buf)
}
