package rsn

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// suiteLen is the length of a suite selector: an OUI followed by a type.
const suiteLen = 4

// An OUI is an IEEE organizationally unique identifier.
type OUI [3]byte

// IEEE8021OUI is the OUI used for the suite selectors defined by IEEE 802.11.
var IEEE8021OUI = OUI{0x00, 0x0f, 0xac}

// String returns the OUI in the dash-separated form used by IEEE.
func (o OUI) String() string {
	return fmt.Sprintf("%02x-%02x-%02x", o[0], o[1], o[2])
}

// newOUI creates an OUI from b, which must be exactly 3 bytes.
func newOUI(b []byte) (OUI, error) {
	var o OUI
	if len(b) != len(o) {
		return OUI{}, fmt.Errorf("%w: OUI length %d, want %d",
			ErrMalformedSuite, len(b), len(o))
	}

	copy(o[:], b)
	return o, nil
}

// A CipherSuiteType is the type of a cipher suite selector using the
// IEEE8021OUI.
//
// IEEE Std 802.11-2016, 9.4.2.25.2, Table 9-131.
type CipherSuiteType uint8

// Possible CipherSuiteType values. Types 3 and 14-255 are reserved.
const (
	CipherSuiteTypeGroupCipher CipherSuiteType = iota
	CipherSuiteTypeWEP40
	CipherSuiteTypeTKIP
	_
	CipherSuiteTypeCCMP128
	CipherSuiteTypeWEP104
	CipherSuiteTypeBIPCMAC128
	CipherSuiteTypeGroupAddressedTrafficNotAllowed
	CipherSuiteTypeGCMP128
	CipherSuiteTypeGCMP256
	CipherSuiteTypeCCMP256
	CipherSuiteTypeBIPGMAC128
	CipherSuiteTypeBIPGMAC256
	CipherSuiteTypeBIPCMAC256
)

// String returns the string representation of a CipherSuiteType.
func (t CipherSuiteType) String() string {
	switch t {
	case CipherSuiteTypeGroupCipher:
		return "group cipher"
	case CipherSuiteTypeWEP40:
		return "WEP-40"
	case CipherSuiteTypeTKIP:
		return "TKIP"
	case CipherSuiteTypeCCMP128:
		return "CCMP-128"
	case CipherSuiteTypeWEP104:
		return "WEP-104"
	case CipherSuiteTypeBIPCMAC128:
		return "BIP-CMAC-128"
	case CipherSuiteTypeGroupAddressedTrafficNotAllowed:
		return "group addressed traffic not allowed"
	case CipherSuiteTypeGCMP128:
		return "GCMP-128"
	case CipherSuiteTypeGCMP256:
		return "GCMP-256"
	case CipherSuiteTypeCCMP256:
		return "CCMP-256"
	case CipherSuiteTypeBIPGMAC128:
		return "BIP-GMAC-128"
	case CipherSuiteTypeBIPGMAC256:
		return "BIP-GMAC-256"
	case CipherSuiteTypeBIPCMAC256:
		return "BIP-CMAC-256"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// A CipherSuite is a cipher suite selector.
//
// IEEE Std 802.11-2016, 9.4.2.25.2.
type CipherSuite struct {
	OUI  OUI
	Type CipherSuiteType
}

// NewCipherSuite creates a CipherSuite from a 3 byte OUI and a suite type.
func NewCipherSuite(oui []byte, typ uint8) (CipherSuite, error) {
	o, err := newOUI(oui)
	if err != nil {
		return CipherSuite{}, err
	}

	return CipherSuite{OUI: o, Type: CipherSuiteType(typ)}, nil
}

// Uint32 returns the suite selector as a single integer, OUI first, as used by
// nl80211.
func (c CipherSuite) Uint32() uint32 { return selector(c.OUI, uint8(c.Type)) }

// String returns the string representation of a CipherSuite.
func (c CipherSuite) String() string {
	if c.OUI != IEEE8021OUI {
		return fmt.Sprintf("%s:%d", c.OUI, c.Type)
	}
	return c.Type.String()
}

// An AKMSuiteType is the type of an authentication and key management suite
// selector using the IEEE8021OUI.
//
// IEEE Std 802.11-2016, 9.4.2.25.3, Table 9-133.
type AKMSuiteType uint8

// Possible AKMSuiteType values. Types 0 and 14-255 are reserved.
const (
	AKMSuiteType8021X AKMSuiteType = iota + 1
	AKMSuiteTypePSK
	AKMSuiteTypeFT8021X
	AKMSuiteTypeFTPSK
	AKMSuiteType8021XSHA256
	AKMSuiteTypePSKSHA256
	AKMSuiteTypeTDLS
	AKMSuiteTypeSAE
	AKMSuiteTypeFTSAE
	AKMSuiteTypeAPPeerKey
	AKMSuiteType8021XSuiteB
	AKMSuiteType8021XSuiteB192
	AKMSuiteTypeFT8021XSHA384
)

// String returns the string representation of an AKMSuiteType.
func (t AKMSuiteType) String() string {
	switch t {
	case AKMSuiteType8021X:
		return "802.1X"
	case AKMSuiteTypePSK:
		return "PSK"
	case AKMSuiteTypeFT8021X:
		return "FT-802.1X"
	case AKMSuiteTypeFTPSK:
		return "FT-PSK"
	case AKMSuiteType8021XSHA256:
		return "802.1X-SHA256"
	case AKMSuiteTypePSKSHA256:
		return "PSK-SHA256"
	case AKMSuiteTypeTDLS:
		return "TDLS"
	case AKMSuiteTypeSAE:
		return "SAE"
	case AKMSuiteTypeFTSAE:
		return "FT-SAE"
	case AKMSuiteTypeAPPeerKey:
		return "AP PeerKey"
	case AKMSuiteType8021XSuiteB:
		return "802.1X Suite B"
	case AKMSuiteType8021XSuiteB192:
		return "802.1X Suite B 192"
	case AKMSuiteTypeFT8021XSHA384:
		return "FT-802.1X-SHA384"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// An AKMSuite is an authentication and key management suite selector.
//
// IEEE Std 802.11-2016, 9.4.2.25.3.
type AKMSuite struct {
	OUI  OUI
	Type AKMSuiteType
}

// NewAKMSuite creates an AKMSuite from a 3 byte OUI and a suite type.
func NewAKMSuite(oui []byte, typ uint8) (AKMSuite, error) {
	o, err := newOUI(oui)
	if err != nil {
		return AKMSuite{}, err
	}

	return AKMSuite{OUI: o, Type: AKMSuiteType(typ)}, nil
}

// Uint32 returns the suite selector as a single integer, OUI first, as used by
// nl80211.
func (a AKMSuite) Uint32() uint32 { return selector(a.OUI, uint8(a.Type)) }

// String returns the string representation of an AKMSuite.
func (a AKMSuite) String() string {
	if a.OUI != IEEE8021OUI {
		return fmt.Sprintf("%s:%d", a.OUI, a.Type)
	}
	return a.Type.String()
}

func selector(o OUI, typ uint8) uint32 {
	return uint32(o[0])<<24 | uint32(o[1])<<16 | uint32(o[2])<<8 | uint32(typ)
}

// readSuite reads a single suite selector from s and constructs a value of
// the suite's kind using newSuite.
func readSuite[T any](s *cryptobyte.String, field string, newSuite func(oui []byte, typ uint8) (T, error)) (T, error) {
	var (
		zero T
		b    []byte
	)
	if !s.ReadBytes(&b, suiteLen) {
		return zero, truncated(field)
	}

	v, err := newSuite(b[:3], b[3])
	if err != nil {
		return zero, &DecodeError{Field: field, Err: err}
	}

	return v, nil
}

func addSuite(b *cryptobyte.Builder, o OUI, typ uint8) {
	b.AddBytes(o[:])
	b.AddUint8(typ)
}

// PMKIDLen is the length of a PMKID.
const PMKIDLen = 16

// A PMKID is a pairwise master key identifier.
type PMKID [PMKIDLen]byte

// String returns the hexadecimal representation of a PMKID.
func (p PMKID) String() string { return hex.EncodeToString(p[:]) }

func readPMKID(s *cryptobyte.String) (PMKID, error) {
	var p PMKID
	if !s.CopyBytes(p[:]) {
		return PMKID{}, truncated("PMKID")
	}

	return p, nil
}
