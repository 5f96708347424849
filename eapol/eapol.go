// Package eapol implements encoding and decoding of IEEE 802.1X EAPOL frames,
// with a focus on the EAPOL-Key frames which carry the IEEE 802.11 4-way
// handshake.
package eapol

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

var (
	// ErrWrongPacketType is returned when a frame's packet type does not
	// match the type expected by the decoder.
	ErrWrongPacketType = errors.New("unexpected EAPOL packet type")

	// ErrTruncated is returned when a frame ends before all of its fields
	// could be read.
	ErrTruncated = errors.New("EAPOL frame truncated")

	// ErrTrailingBytes is returned when bytes remain after all of a frame's
	// fields have been read.
	ErrTrailingBytes = errors.New("trailing bytes after EAPOL frame")

	// ErrInvalidKeyFrame is returned when a KeyFrame cannot be marshaled
	// because one of its fields does not fit the wire format.
	ErrInvalidKeyFrame = errors.New("invalid EAPOL-Key frame")
)

// A DecodeError describes a failure to decode a specific field of an EAPOL
// frame. Err is one of the package's sentinel errors.
type DecodeError struct {
	Field string
	Err   error
}

// Error implements error.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("eapol: decoding %s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying sentinel error.
func (e *DecodeError) Unwrap() error { return e.Err }

// A PacketType is an EAPOL packet type.
//
// IEEE Std 802.1X-2010, 11.3.2, Table 11-3.
type PacketType uint8

// Possible PacketType values.
const (
	PacketTypeEAP PacketType = iota
	PacketTypeStart
	PacketTypeLogoff
	PacketTypeKey
	PacketTypeASFAlert
	PacketTypeMKA
	PacketTypeAnnouncementGeneric
	PacketTypeAnnouncementSpecific
	PacketTypeAnnouncementRequest
)

// String returns the string representation of a PacketType.
func (t PacketType) String() string {
	switch t {
	case PacketTypeEAP:
		return "EAP"
	case PacketTypeStart:
		return "start"
	case PacketTypeLogoff:
		return "logoff"
	case PacketTypeKey:
		return "key"
	case PacketTypeASFAlert:
		return "ASF alert"
	case PacketTypeMKA:
		return "MKA"
	case PacketTypeAnnouncementGeneric:
		return "announcement (generic)"
	case PacketTypeAnnouncementSpecific:
		return "announcement (specific)"
	case PacketTypeAnnouncementRequest:
		return "announcement request"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// A ProtocolVersion is the version of the 802.1X protocol used by a frame.
type ProtocolVersion uint8

// Possible ProtocolVersion values.
const (
	ProtocolVersion2001 ProtocolVersion = 1
	ProtocolVersion2004 ProtocolVersion = 2
	ProtocolVersion2010 ProtocolVersion = 3
)

// A DescriptorType identifies the format of an EAPOL-Key frame's body.
//
// IEEE Std 802.1X-2010, 11.9, Table 11-5.
type DescriptorType uint8

// Possible DescriptorType values.
const (
	DescriptorTypeRC4        DescriptorType = 1
	DescriptorTypeIEEE802_11 DescriptorType = 2
)

// String returns the string representation of a DescriptorType.
func (t DescriptorType) String() string {
	switch t {
	case DescriptorTypeRC4:
		return "RC4"
	case DescriptorTypeIEEE802_11:
		return "IEEE 802.11"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// HeaderLen is the length of an EAPOL frame header.
const HeaderLen = 4

// A Header is the header common to all EAPOL frames.
//
// IEEE Std 802.1X-2010, 11.3, Figure 11-1.
type Header struct {
	Version          ProtocolVersion
	PacketType       PacketType
	PacketBodyLength uint16
}

// ParseHeader parses the header of an EAPOL frame. Only the first HeaderLen
// bytes of b are inspected, so callers can use the packet type to decide how
// to decode the rest of the frame.
func ParseHeader(b []byte) (Header, error) {
	s := cryptobyte.String(b)

	var (
		h          Header
		ver, ptype uint8
	)
	if !s.ReadUint8(&ver) || !s.ReadUint8(&ptype) || !s.ReadUint16(&h.PacketBodyLength) {
		return Header{}, &DecodeError{Field: "header", Err: ErrTruncated}
	}

	h.Version = ProtocolVersion(ver)
	h.PacketType = PacketType(ptype)
	return h, nil
}
