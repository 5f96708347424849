package eapol

import (
	"bytes"
	"fmt"
	"math"

	"golang.org/x/crypto/cryptobyte"
)

// Fixed field sizes of an EAPOL-Key frame.
const (
	NonceLen    = 32
	IVLen       = 16
	reservedLen = 8

	// keyFrameStaticLen is the length of every fixed-width integer field of
	// a key frame including the EAPOL header and reserved octets, but
	// excluding the nonce, IV, MIC, and key data.
	keyFrameStaticLen = 35
)

// A KeyFrame is an EAPOL-Key frame using the IEEE 802.11 key descriptor.
//
// IEEE Std 802.11-2016, 12.7.2, Figure 12-32.
type KeyFrame struct {
	Version          ProtocolVersion
	PacketType       PacketType
	PacketBodyLength uint16

	DescriptorType DescriptorType
	KeyInfo        KeyInformation
	KeyLength      uint16
	ReplayCounter  uint64
	Nonce          [NonceLen]byte
	IV             [IVLen]byte
	RSC            uint64
	// 8 octets reserved.

	// MIC's size depends on the negotiated AKM and is not encoded in the
	// frame itself.
	MIC []byte

	KeyDataLength uint16
	KeyData       []byte
}

// ParseKeyFrame parses an entire EAPOL-Key frame, including its EAPOL
// header, from b. micSize specifies the length of the frame's MIC field,
// which must be determined from the negotiated AKM.
//
// b must contain exactly one frame: leftover bytes are reported as
// ErrTrailingBytes. The returned KeyFrame does not retain b.
func ParseKeyFrame(b []byte, micSize uint16) (*KeyFrame, error) {
	s := cryptobyte.String(b)

	var (
		f          KeyFrame
		ver, ptype uint8
		desc       uint8
		info       uint16
	)

	if !s.ReadUint8(&ver) {
		return nil, truncated("version")
	}
	f.Version = ProtocolVersion(ver)

	if !s.ReadUint8(&ptype) {
		return nil, truncated("packet type")
	}
	f.PacketType = PacketType(ptype)
	if f.PacketType != PacketTypeKey {
		return nil, &DecodeError{
			Field: "packet type",
			Err:   fmt.Errorf("%w: %s", ErrWrongPacketType, f.PacketType),
		}
	}

	if !s.ReadUint16(&f.PacketBodyLength) {
		return nil, truncated("packet body length")
	}
	if !s.ReadUint8(&desc) {
		return nil, truncated("descriptor type")
	}
	f.DescriptorType = DescriptorType(desc)

	if !s.ReadUint16(&info) {
		return nil, truncated("key information")
	}
	f.KeyInfo = KeyInformation(info)

	if !s.ReadUint16(&f.KeyLength) {
		return nil, truncated("key length")
	}
	if !s.ReadUint64(&f.ReplayCounter) {
		return nil, truncated("key replay counter")
	}
	if !s.CopyBytes(f.Nonce[:]) {
		return nil, truncated("key nonce")
	}
	if !s.CopyBytes(f.IV[:]) {
		return nil, truncated("key IV")
	}
	if !s.ReadUint64(&f.RSC) {
		return nil, truncated("key RSC")
	}
	if !s.Skip(reservedLen) {
		return nil, truncated("reserved")
	}

	var mic []byte
	if !s.ReadBytes(&mic, int(micSize)) {
		return nil, truncated("key MIC")
	}
	f.MIC = bytes.Clone(mic)

	if !s.ReadUint16(&f.KeyDataLength) {
		return nil, truncated("key data length")
	}
	var data []byte
	if !s.ReadBytes(&data, int(f.KeyDataLength)) {
		return nil, truncated("key data")
	}
	f.KeyData = bytes.Clone(data)

	if !s.Empty() {
		return nil, &DecodeError{
			Field: "key data",
			Err:   fmt.Errorf("%w: %d bytes", ErrTrailingBytes, len(s)),
		}
	}

	return &f, nil
}

// Len returns the length of f's wire representation.
func (f *KeyFrame) Len() int {
	return keyFrameStaticLen + NonceLen + IVLen + len(f.MIC) + len(f.KeyData)
}

// Marshal returns the wire representation of f, including its EAPOL header.
//
// If clearMIC is true, the MIC field is written as zeros of the same length
// as f.MIC, which is the form of the frame used as input when computing its
// MIC.
//
// Marshal does not recompute PacketBodyLength or KeyDataLength. KeyDataLength
// must match the length of KeyData, otherwise ErrInvalidKeyFrame is returned.
func (f *KeyFrame) Marshal(clearMIC bool) ([]byte, error) {
	if len(f.MIC) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: MIC length %d exceeds %d bytes",
			ErrInvalidKeyFrame, len(f.MIC), math.MaxUint16)
	}
	if len(f.KeyData) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: key data length %d exceeds %d bytes",
			ErrInvalidKeyFrame, len(f.KeyData), math.MaxUint16)
	}
	if int(f.KeyDataLength) != len(f.KeyData) {
		return nil, fmt.Errorf("%w: key data length field %d does not match key data length %d",
			ErrInvalidKeyFrame, f.KeyDataLength, len(f.KeyData))
	}

	b := cryptobyte.NewFixedBuilder(make([]byte, 0, f.Len()))
	b.AddUint8(uint8(f.Version))
	b.AddUint8(uint8(f.PacketType))
	b.AddUint16(f.PacketBodyLength)
	b.AddUint8(uint8(f.DescriptorType))
	b.AddUint16(f.KeyInfo.Value())
	b.AddUint16(f.KeyLength)
	b.AddUint64(f.ReplayCounter)
	b.AddBytes(f.Nonce[:])
	b.AddBytes(f.IV[:])
	b.AddUint64(f.RSC)
	b.AddUint64(0) // reserved

	if clearMIC {
		b.AddBytes(make([]byte, len(f.MIC)))
	} else {
		b.AddBytes(f.MIC)
	}

	b.AddUint16(f.KeyDataLength)
	b.AddBytes(f.KeyData)

	return b.Bytes()
}

func truncated(field string) error {
	return &DecodeError{Field: field, Err: ErrTruncated}
}
