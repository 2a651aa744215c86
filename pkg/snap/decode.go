package snap

// Decode feeds a single byte from the transport into the frame's state
// machine and returns the resulting status.
//
// Any byte seen while idle that is not Sync is discarded — preamble noise
// never appears in the buffer. Once VALID, ERROR_HASH, or ERROR_OVERFLOW
// is reached the state is sticky: further bytes (postamble noise) are
// discarded until Reset is called.
func (f *Frame) Decode(b byte) Status {
	switch f.status {
	case StatusValid, StatusErrorHash, StatusErrorOverflow:
		return f.status

	case StatusIdle:
		if b != Sync {
			return f.status
		}
		f.buffer[0] = b
		f.size = 1
		f.status = StatusIncomplete
		return f.status

	case StatusIncomplete:
		return f.decodeIncomplete(b)

	default:
		return f.status
	}
}

func (f *Frame) decodeIncomplete(b byte) Status {
	if f.size >= f.capacity {
		f.status = StatusErrorOverflow
		return f.status
	}

	f.buffer[f.size] = b
	f.size++

	if f.size == 3 {
		header := DecodeHeader(f.buffer[1], f.buffer[2])
		userWidth := 0
		if f.userHash != nil {
			userWidth = f.userHash.Width()
		}
		total := frameLength(header, userWidth)
		if total > f.capacity {
			f.status = StatusErrorOverflow
			return f.status
		}
		f.pendingHeader = header
		f.pendingLength = total
		// Fall through: a header-only frame (total == 3) completes here.
	}

	if f.pendingLength != 0 && f.size == f.pendingLength {
		return f.completeFrame()
	}
	return f.status
}

func (f *Frame) completeFrame() Status {
	header := f.pendingHeader
	userWidth := 0
	if f.userHash != nil {
		userWidth = f.userHash.Width()
	}
	hashSize := getHashSizeFromEdm(header.EDM, userWidth)

	if !hashCarryingEDM(header.EDM) || hashSize == 0 {
		f.status = StatusValid
		return f.status
	}

	computed, _ := f.computeHash(header.EDM, f.buffer[1:f.size-hashSize])
	stored := getBE(f.buffer[f.size-hashSize : f.size])

	if computed == stored {
		f.status = StatusValid
	} else {
		f.status = StatusErrorHash
	}
	return f.status
}
