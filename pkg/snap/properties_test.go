package snap

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func genFields(t *rapid.T) Fields {
	h := Header{
		DAB: byte(rapid.IntRange(0, 3).Draw(t, "dab")),
		SAB: byte(rapid.IntRange(0, 3).Draw(t, "sab")),
		PFB: byte(rapid.IntRange(0, 3).Draw(t, "pfb")),
		ACK: byte(rapid.IntRange(0, 3).Draw(t, "ack")),
		CMD: rapid.Bool().Draw(t, "cmd"),
		EDM: byte(rapid.SampledFrom([]int{0, 1, 2, 3, 4, 5, 6}).Draw(t, "edm")),
	}
	dataLen := rapid.IntRange(0, 64).Draw(t, "dataLen")
	data := rapid.SliceOfN(rapid.Byte(), dataLen, dataLen).Draw(t, "data")

	return Fields{
		Header:        h,
		DestAddress:   rapid.Uint32().Draw(t, "dest"),
		SourceAddress: rapid.Uint32().Draw(t, "src"),
		ProtocolFlags: rapid.Uint32().Draw(t, "pf"),
		Data:          data,
		PaddingAfter:  rapid.Bool().Draw(t, "padAfter"),
	}
}

// TestPropertyRoundTripBijection: Encapsulate then Decode byte-by-byte
// recovers a VALID frame with identical wire bytes and a header equal to
// the input header (with NDB derived from len(Data)), for any EDM that
// doesn't need an external UserHash.
func TestPropertyRoundTripBijection(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fields := genFields(t)

		enc, err := NewFrame(make([]byte, MaxFrame))
		require.NoError(t, err)
		status, err := enc.Encapsulate(fields)
		if err != nil {
			return // overflow for this random combination is not under test here
		}
		require.Equal(t, StatusValid, status)
		wire := append([]byte{}, enc.Bytes()...)

		dec, err := NewFrame(make([]byte, MaxFrame))
		require.NoError(t, err)
		got := feed(dec, wire)
		require.Equal(t, StatusValid, got)
		require.Equal(t, wire, dec.Bytes())

		h, err := dec.Header()
		require.NoError(t, err)
		fields.Header.NDB, _ = getNdbFromDataSize(len(fields.Data))
		require.Equal(t, fields.Header, h)
	})
}

// TestPropertyStickyTerminalStates: once a decoded frame reaches VALID,
// no further byte changes its status or size until Reset.
func TestPropertyStickyTerminalStates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fields := genFields(t)
		enc, err := NewFrame(make([]byte, MaxFrame))
		require.NoError(t, err)
		if _, err := enc.Encapsulate(fields); err != nil {
			return
		}
		wire := append([]byte{}, enc.Bytes()...)

		dec, err := NewFrame(make([]byte, MaxFrame))
		require.NoError(t, err)
		status := feed(dec, wire)
		require.Equal(t, StatusValid, status)
		size := dec.Size()

		extra := rapid.SliceOfN(rapid.Byte(), 0, 8).Draw(t, "extra")
		for _, b := range extra {
			require.Equal(t, StatusValid, dec.Decode(b))
		}
		require.Equal(t, size, dec.Size())
	})
}

// TestPropertyPreambleInvariance: any run of non-sync bytes prepended to
// a valid wire frame is discarded without affecting the decoded result.
func TestPropertyPreambleInvariance(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fields := genFields(t)
		enc, err := NewFrame(make([]byte, MaxFrame))
		require.NoError(t, err)
		if _, err := enc.Encapsulate(fields); err != nil {
			return
		}
		wire := append([]byte{}, enc.Bytes()...)

		noise := rapid.SliceOfN(rapid.Byte(), 0, 12).
			Filter(func(bs []byte) bool {
				for _, b := range bs {
					if b == Sync {
						return false
					}
				}
				return true
			}).Draw(t, "noise")

		dec, err := NewFrame(make([]byte, MaxFrame))
		require.NoError(t, err)
		feed(dec, noise)
		require.Equal(t, StatusIdle, dec.Status())
		status := feed(dec, wire)
		require.Equal(t, StatusValid, status)
		require.Equal(t, wire, dec.Bytes())
	})
}

// TestPropertyCapacityClamping: Init never reports a capacity outside
// [MinFrame, MaxFrame] regardless of the buffer handed to it.
func TestPropertyCapacityClamping(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.IntRange(MinFrame, MaxFrame+200).Draw(t, "size")
		var f Frame
		n, err := f.Init(make([]byte, size))
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, MinFrame)
		require.LessOrEqual(t, n, MaxFrame)
	})
}

// TestPropertyHashSensitivity: flipping any single bit of a hash-carrying
// frame's covered region changes its decoded status away from VALID.
func TestPropertyHashSensitivity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		edm := byte(rapid.SampledFrom([]int{2, 3, 4, 5}).Draw(t, "edm"))
		dataLen := rapid.IntRange(1, 32).Draw(t, "dataLen")
		data := rapid.SliceOfN(rapid.Byte(), dataLen, dataLen).Draw(t, "data")

		enc, err := NewFrame(make([]byte, MaxFrame))
		require.NoError(t, err)
		_, err = enc.Encapsulate(Fields{Header: Header{EDM: edm}, Data: data})
		require.NoError(t, err)
		wire := append([]byte{}, enc.Bytes()...)

		flipIdx := rapid.IntRange(0, len(wire)-1).Draw(t, "flipIdx")
		flipBit := rapid.IntRange(0, 7).Draw(t, "flipBit")
		corrupted := append([]byte{}, wire...)
		corrupted[flipIdx] ^= 1 << uint(flipBit)
		if string(corrupted) == string(wire) {
			return
		}

		dec, err := NewFrame(make([]byte, MaxFrame))
		require.NoError(t, err)
		status := feed(dec, corrupted)
		// A flipped header bit can change the declared frame length itself
		// (overflow) rather than surviving to a hash mismatch; either
		// outcome is consistent with "not silently accepted as valid with
		// different content", except when the flip lands past where the
		// frame is even read (can't happen here since hash covers the
		// whole prefix) or regenerates the same wire bytes post-padding.
		require.NotEqual(t, StatusValid, status, "corrupting a hash-carrying frame must not silently validate")
	})
}

// TestPropertyNdbInverse: getNdbFromDataSize always returns the smallest
// code whose declared size covers the input, and getDataSizeFromNdb of
// that code is >= the input.
func TestPropertyNdbInverse(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 512).Draw(t, "n")
		code, err := getNdbFromDataSize(n)
		require.NoError(t, err)
		declared := getDataSizeFromNdb(code)
		require.GreaterOrEqual(t, declared, n)
		if code > 0 {
			smaller := getDataSizeFromNdb(code - 1)
			require.Less(t, smaller, n)
		}
	})
}

// TestPropertyAliasingMatchesDisjoint: encoding with Data aliasing the
// destination buffer at its final offset produces byte-identical output
// to encoding the same fields into a disjoint buffer.
func TestPropertyAliasingMatchesDisjoint(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		dataLen := rapid.IntRange(0, 32).Draw(t, "dataLen")
		data := rapid.SliceOfN(rapid.Byte(), dataLen, dataLen).Draw(t, "data")
		h := Header{
			DAB: byte(rapid.IntRange(0, 3).Draw(t, "dab")),
			SAB: byte(rapid.IntRange(0, 3).Draw(t, "sab")),
			PFB: byte(rapid.IntRange(0, 3).Draw(t, "pfb")),
		}

		disjoint, err := NewFrame(make([]byte, MaxFrame))
		require.NoError(t, err)
		status, err := disjoint.Encapsulate(Fields{Header: h, Data: append([]byte{}, data...)})
		if err != nil {
			return
		}
		require.Equal(t, StatusValid, status)

		shared := make([]byte, MaxFrame)
		payloadOffset := 3 + addressWidth(h.DAB) + addressWidth(h.SAB) + addressWidth(h.PFB)
		copy(shared[payloadOffset:], data)

		aliased, err := NewFrame(shared)
		require.NoError(t, err)
		status, err = aliased.Encapsulate(Fields{Header: h, Data: shared[payloadOffset : payloadOffset+len(data) : payloadOffset+len(data)]})
		require.NoError(t, err)
		require.Equal(t, StatusValid, status)

		require.Equal(t, disjoint.Bytes(), aliased.Bytes())
	})
}
