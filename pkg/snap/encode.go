package snap

// Fields describes the caller-supplied content of a frame to be
// encapsulated. Header.NDB is ignored and overwritten from len(Data);
// every other Header bit-field is used as given.
type Fields struct {
	Header Header

	DestAddress   uint32 // big-endian; truncated to Header.DAB bytes
	SourceAddress uint32 // big-endian; truncated to Header.SAB bytes
	ProtocolFlags uint32 // big-endian; truncated to Header.PFB bytes

	Data []byte // 0..512 bytes

	// PaddingAfter controls where zero-padding goes when the NDB-encoded
	// payload width exceeds len(Data): after the user bytes (true) or
	// before them (false).
	PaddingAfter bool
}

// Encapsulate serializes fields into the frame's buffer and returns the
// resulting status (StatusValid or StatusErrorOverflow).
//
// fields.Data may alias the frame's buffer — the common case of a caller
// reusing one array as both payload source and frame destination. The
// payload is moved to its final offset, via the built-in copy (which is
// memmove-safe for overlapping slices of the same underlying array),
// before any header or address byte is written, so the source bytes are
// never clobbered ahead of being read.
func (f *Frame) Encapsulate(fields Fields) (Status, error) {
	header := fields.Header

	ndb, err := getNdbFromDataSize(len(fields.Data))
	if err != nil {
		f.status = StatusErrorOverflow
		return f.status, errKind(ErrorOverflow)
	}
	header.NDB = ndb

	userWidth := 0
	if f.userHash != nil {
		userWidth = f.userHash.Width()
	}

	dab := addressWidth(header.DAB)
	sab := addressWidth(header.SAB)
	pfb := addressWidth(header.PFB)
	ndbSize := getDataSizeFromNdb(ndb)
	hashSize := getHashSizeFromEdm(header.EDM, userWidth)

	total := 1 + 2 + dab + sab + pfb + ndbSize + hashSize
	if total > f.capacity {
		f.status = StatusErrorOverflow
		return f.status, errKind(ErrorOverflow)
	}

	payloadOffset := 1 + 2 + dab + sab + pfb
	payload := f.buffer[payloadOffset : payloadOffset+ndbSize]
	dataSize := len(fields.Data)

	var zeroBefore, zeroAfter int
	if fields.PaddingAfter {
		zeroAfter = ndbSize - dataSize
	} else {
		zeroBefore = ndbSize - dataSize
	}

	if dataSize > 0 {
		copy(payload[zeroBefore:zeroBefore+dataSize], fields.Data)
	}
	for i := 0; i < zeroBefore; i++ {
		payload[i] = 0
	}
	for i := ndbSize - zeroAfter; i < ndbSize; i++ {
		payload[i] = 0
	}

	f.buffer[0] = Sync
	hdb2, hdb1 := EncodeHeader(header)
	f.buffer[1] = hdb2
	f.buffer[2] = hdb1

	off := 3
	putBE(f.buffer[off:off+dab], fields.DestAddress)
	off += dab
	putBE(f.buffer[off:off+sab], fields.SourceAddress)
	off += sab
	putBE(f.buffer[off:off+pfb], fields.ProtocolFlags)

	if hashSize > 0 {
		value, _ := f.computeHash(header.EDM, f.buffer[1:total-hashSize])
		putBE(f.buffer[total-hashSize:total], value)
	}

	f.size = total
	f.status = StatusValid
	return f.status, nil
}

// putBE writes value into dst big-endian, using only len(dst) low bytes.
func putBE(dst []byte, value uint32) {
	n := len(dst)
	for i := 0; i < n; i++ {
		dst[i] = byte(value >> uint(8*(n-1-i)))
	}
}

// getBE reads a big-endian unsigned integer of len(src) bytes (0..4).
func getBE(src []byte) uint32 {
	var v uint32
	for _, b := range src {
		v = v<<8 | uint32(b)
	}
	return v
}
