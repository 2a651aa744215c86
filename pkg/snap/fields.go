package snap

// FieldTag selects which field GetField extracts from a frame buffer.
type FieldTag int

const (
	FieldHeader FieldTag = iota
	FieldDestAddress
	FieldSourceAddress
	FieldProtocolFlags
	FieldData
	FieldHash
)

// layout describes one field's position within a decoded header.
type layout struct {
	start, width int
}

func (f *Frame) fieldLayout(tag FieldTag, header Header) (layout, error) {
	userWidth := 0
	if f.userHash != nil {
		userWidth = f.userHash.Width()
	}
	dab := addressWidth(header.DAB)
	sab := addressWidth(header.SAB)
	pfb := addressWidth(header.PFB)
	dataSize := getDataSizeFromNdb(header.NDB)
	hashSize := getHashSizeFromEdm(header.EDM, userWidth)

	switch tag {
	case FieldHeader:
		return layout{start: 1, width: 2}, nil
	case FieldDestAddress:
		return layout{start: 3, width: dab}, nil
	case FieldSourceAddress:
		return layout{start: 3 + dab, width: sab}, nil
	case FieldProtocolFlags:
		return layout{start: 3 + dab + sab, width: pfb}, nil
	case FieldData:
		return layout{start: 3 + dab + sab + pfb, width: dataSize}, nil
	case FieldHash:
		return layout{start: 3 + dab + sab + pfb + dataSize, width: hashSize}, nil
	default:
		return layout{}, errKind(ErrorFieldType)
	}
}

// GetField copies a field out of the frame buffer into out, which must be
// a pointer of the type the tag produces: *Header for FieldHeader, *[]byte
// for FieldData, or *uint32 for the three addresses and FieldHash. It
// returns the field's byte width (2 for the header) on success.
//
// GetField works against whatever bytes are present — it does not require
// Status to be VALID — so long as the bytes the requested field needs have
// already arrived.
func (f *Frame) GetField(tag FieldTag, out interface{}) (int, error) {
	if f.size < MinFrame {
		return 0, errKind(ErrorUnknownFormat)
	}

	header := DecodeHeader(f.buffer[1], f.buffer[2])
	loc, err := f.fieldLayout(tag, header)
	if err != nil {
		return 0, err
	}
	if loc.width == 0 {
		return 0, errKind(ErrorFrameFormat)
	}
	end := loc.start + loc.width
	if f.size < end {
		return 0, errKind(ErrorShortFrame)
	}
	raw := f.buffer[loc.start:end]

	switch tag {
	case FieldHeader:
		hp, ok := out.(*Header)
		if !ok {
			return 0, errKind(ErrorFieldType)
		}
		*hp = header
	case FieldData:
		dp, ok := out.(*[]byte)
		if !ok {
			return 0, errKind(ErrorFieldType)
		}
		*dp = append((*dp)[:0], raw...)
	default:
		vp, ok := out.(*uint32)
		if !ok {
			return 0, errKind(ErrorFieldType)
		}
		*vp = getBE(raw)
	}
	return loc.width, nil
}

// Header returns the frame's decoded header.
func (f *Frame) Header() (Header, error) {
	var h Header
	_, err := f.GetField(FieldHeader, &h)
	return h, err
}

// DestAddress returns the frame's destination address.
func (f *Frame) DestAddress() (uint32, error) {
	var v uint32
	_, err := f.GetField(FieldDestAddress, &v)
	return v, err
}

// SourceAddress returns the frame's source address.
func (f *Frame) SourceAddress() (uint32, error) {
	var v uint32
	_, err := f.GetField(FieldSourceAddress, &v)
	return v, err
}

// ProtocolFlags returns the frame's protocol-flags field.
func (f *Frame) ProtocolFlags() (uint32, error) {
	var v uint32
	_, err := f.GetField(FieldProtocolFlags, &v)
	return v, err
}

// Data returns a copy of the frame's payload, including any padding.
func (f *Frame) Data() ([]byte, error) {
	var data []byte
	_, err := f.GetField(FieldData, &data)
	return data, err
}

// Hash returns the frame's embedded integrity value.
func (f *Frame) Hash() (uint32, error) {
	var v uint32
	_, err := f.GetField(FieldHash, &v)
	return v, err
}

// CalculateHash computes (but does not compare) the hash over the frame's
// current bytes, returning the value and its byte width. It requires the
// whole frame the header declares, including the hash bytes themselves,
// to already be present, although the hash is computed only over the
// bytes between the sync byte and the hash field.
func (f *Frame) CalculateHash() (value uint32, width int, err error) {
	if f.size < MinFrame {
		return 0, 0, errKind(ErrorUnknownFormat)
	}
	header := DecodeHeader(f.buffer[1], f.buffer[2])
	userWidth := 0
	if f.userHash != nil {
		userWidth = f.userHash.Width()
	}
	hashSize := getHashSizeFromEdm(header.EDM, userWidth)
	if hashSize == 0 {
		return 0, 0, errKind(ErrorFrameFormat)
	}
	total := frameLength(header, userWidth)
	if f.size < total {
		return 0, 0, errKind(ErrorShortFrame)
	}
	value, width = f.computeHash(header.EDM, f.buffer[1:total-hashSize])
	return value, width, nil
}
