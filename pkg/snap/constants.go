// Package snap implements the S.N.A.P. (Scalable Node Address Protocol)
// framing layer: a byte-oriented link-layer protocol whose two-byte header
// selects, per frame, the widths of the destination address, source
// address, protocol flags, payload, and integrity field.
package snap

const (
	// Sync is the fixed byte marking the start of a frame on the wire.
	Sync = 0x54

	// MinFrame is the smallest possible frame: sync byte plus two header
	// bytes, with every optional field width at zero.
	MinFrame = 3

	// MaxFrame is the largest frame this package will ever produce or
	// accept: sync + header + three 3-byte address/flags fields + 512
	// bytes of payload + a 4-byte hash.
	MaxFrame = 1 + 2 + 3 + 3 + 3 + 512 + 4
)
