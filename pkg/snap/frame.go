package snap

// Status is the lifecycle state of a Frame.
type Status int8

const (
	// StatusIdle is the at-rest state after Init or Reset: no bytes
	// captured yet.
	StatusIdle Status = iota
	// StatusIncomplete means a sync byte has been seen and the frame is
	// still accumulating bytes.
	StatusIncomplete
	// StatusValid means size bytes form a well-formed frame whose hash
	// (if any) has been verified.
	StatusValid
	// StatusErrorHash means the frame completed but its computed hash
	// disagreed with the embedded one. Sticky until Reset.
	StatusErrorHash
	// StatusErrorOverflow means the header declared (or Encapsulate was
	// asked to produce) a frame longer than the buffer's capacity.
	// Sticky until Reset.
	StatusErrorOverflow
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "IDLE"
	case StatusIncomplete:
		return "INCOMPLETE"
	case StatusValid:
		return "VALID"
	case StatusErrorHash:
		return "ERROR_HASH"
	case StatusErrorOverflow:
		return "ERROR_OVERFLOW"
	default:
		return "UNKNOWN"
	}
}

// Frame is the SNAP frame handle: it borrows a caller-supplied buffer and
// owns nothing else. A Frame is exclusively owned by whichever goroutine
// is currently calling a method on it; concurrent calls on the same Frame
// are undefined, but distinct Frames over disjoint buffers are safe to
// drive from separate goroutines provided any injected UserHash is itself
// safe for concurrent use.
type Frame struct {
	buffer   []byte
	capacity int
	size     int
	status   Status
	userHash UserHash

	// Decode-only bookkeeping, valid once size >= 3.
	pendingHeader Header
	pendingLength int
}

// Option configures a Frame at construction.
type Option func(*Frame)

// WithUserHash injects the algorithm EDM 7 dispatches to. Without one,
// frames declaring EDM 7 encode/decode with a zero-width hash field.
func WithUserHash(h UserHash) Option {
	return func(f *Frame) { f.userHash = h }
}

// NewFrame allocates and initializes a Frame over buffer. It is a thin,
// idiomatic wrapper over Init for the common case of constructing a Frame
// and its buffer together; Init remains available directly for callers
// that want to reuse a zero-value Frame across buffers.
func NewFrame(buffer []byte, opts ...Option) (*Frame, error) {
	f := &Frame{}
	for _, opt := range opts {
		opt(f)
	}
	if _, err := f.Init(buffer); err != nil {
		return nil, err
	}
	return f, nil
}

// Init binds buffer to the frame handle, clamping capacity to MaxFrame and
// resetting size/status. It is safe to call on a nil *Frame, returning
// ErrorNullFrame, and never modifies the handle on any validation error.
func (f *Frame) Init(buffer []byte) (int, error) {
	if f == nil {
		return 0, errKind(ErrorNullFrame)
	}
	if buffer == nil {
		return 0, errKind(ErrorNullBuffer)
	}
	if len(buffer) < MinFrame {
		return 0, errKind(ErrorShortBuffer)
	}

	capacity := len(buffer)
	if capacity > MaxFrame {
		capacity = MaxFrame
	}

	f.buffer = buffer
	f.capacity = capacity
	f.size = 0
	f.status = StatusIdle
	f.pendingLength = 0
	return capacity, nil
}

// Reset returns the frame to StatusIdle with size 0, leaving the buffer
// and capacity untouched so it can be reused for the next frame.
func (f *Frame) Reset() {
	f.size = 0
	f.status = StatusIdle
	f.pendingLength = 0
}

// Capacity returns the buffer length Init clamped to, in [MinFrame, MaxFrame].
func (f *Frame) Capacity() int { return f.capacity }

// Size returns the number of valid bytes currently written into the buffer.
func (f *Frame) Size() int { return f.size }

// Status returns the frame's current lifecycle state.
func (f *Frame) Status() Status { return f.status }

// Bytes returns the frame's bytes written so far, buffer[:Size()]. The
// returned slice aliases the frame's buffer and is invalidated by the next
// Encapsulate, Decode, or Reset call.
func (f *Frame) Bytes() []byte { return f.buffer[:f.size] }
