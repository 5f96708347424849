// Package rsn implements encoding and decoding of the IEEE 802.11 RSN
// (Robust Security Network) element.
package rsn

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/crypto/cryptobyte"
)

// ElementID is the element ID of an RSN element.
const ElementID = 48

// headerLen is the length of an element's ID and length fields.
const headerLen = 2

var (
	// ErrTruncated is returned when an element ends within a field.
	ErrTruncated = errors.New("RSN element truncated")

	// ErrTrailingBytes is returned when bytes remain after the final field
	// of an element.
	ErrTrailingBytes = errors.New("trailing bytes after RSN element")

	// ErrMalformedList is returned when a count-prefixed list claims more
	// entries than the element holds. It is always accompanied by
	// ErrTruncated.
	ErrMalformedList = errors.New("malformed RSN element list")

	// ErrMalformedSuite is returned when a suite selector cannot be
	// constructed.
	ErrMalformedSuite = errors.New("malformed suite selector")

	// ErrInvalidElement is returned when an Element cannot be marshaled.
	ErrInvalidElement = errors.New("invalid RSN element")
)

// A DecodeError describes a failure to decode a specific field of an RSN
// element.
type DecodeError struct {
	Field string
	Err   error
}

// Error implements error.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("rsn: decoding %s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error { return e.Err }

// An Element is an RSN element.
//
// Every field following Version is optional on the wire, but may only be
// omitted if all of the fields after it are omitted too. Absent suites are
// nil, and absent lists are nil, while a list present with a count of zero is
// empty but non-nil.
//
// IEEE Std 802.11-2016, 9.4.2.25.1.
type Element struct {
	ID      uint8
	Length  uint8
	Version uint16

	GroupDataCipherSuite *CipherSuite
	PairwiseCipherSuites []CipherSuite
	AKMSuites            []AKMSuite

	// Capabilities is zero both when it is absent and when it is present
	// with a value of zero.
	Capabilities Capabilities

	PMKIDs               []PMKID
	GroupMgmtCipherSuite *CipherSuite
}

// Parse parses an RSN element, including its element ID and length, from b.
//
// Optional fields are parsed only while bytes remain in b; once b is
// exhausted the remaining fields are left at their zero values. b must not
// contain any bytes beyond the element's final field.
func Parse(b []byte) (*Element, error) {
	s := cryptobyte.String(b)

	var e Element
	if !s.ReadUint8(&e.ID) {
		return nil, truncated("element ID")
	}
	if !s.ReadUint8(&e.Length) {
		return nil, truncated("length")
	}
	if !readUint16LE(&s, &e.Version) {
		return nil, truncated("version")
	}

	if !s.Empty() {
		c, err := readSuite(&s, "group data cipher suite", NewCipherSuite)
		if err != nil {
			return nil, err
		}
		e.GroupDataCipherSuite = &c
	}

	var err error
	if !s.Empty() {
		e.PairwiseCipherSuites, err = readList(&s, "pairwise cipher suites", suiteLen,
			func(s *cryptobyte.String) (CipherSuite, error) {
				return readSuite(s, "pairwise cipher suite", NewCipherSuite)
			},
		)
		if err != nil {
			return nil, err
		}
	}

	if !s.Empty() {
		e.AKMSuites, err = readList(&s, "AKM suites", suiteLen,
			func(s *cryptobyte.String) (AKMSuite, error) {
				return readSuite(s, "AKM suite", NewAKMSuite)
			},
		)
		if err != nil {
			return nil, err
		}
	}

	if !s.Empty() {
		var caps uint16
		if !readUint16LE(&s, &caps) {
			return nil, truncated("RSN capabilities")
		}
		e.Capabilities = Capabilities(caps)
	}

	if !s.Empty() {
		e.PMKIDs, err = readList(&s, "PMKIDs", PMKIDLen, readPMKID)
		if err != nil {
			return nil, err
		}
	}

	if !s.Empty() {
		c, err := readSuite(&s, "group management cipher suite", NewCipherSuite)
		if err != nil {
			return nil, err
		}
		e.GroupMgmtCipherSuite = &c
	}

	if !s.Empty() {
		return nil, &DecodeError{
			Field: "element",
			Err:   fmt.Errorf("%w: %d bytes", ErrTrailingBytes, len(s)),
		}
	}

	return &e, nil
}

// Marshal returns the wire representation of e.
//
// The element ID is always ElementID and the length is computed from the
// fields written, ignoring e.ID and e.Length. Optional fields are written up
// to and including the last one present in e. A zero Capabilities is written
// only when a field following it is present.
//
// Because a zero Capabilities is indistinguishable from an absent one, round
// tripping is lossy for an element whose last field is a zero capabilities
// field: Marshal omits those two bytes and the length shrinks accordingly.
//
// ErrInvalidElement is returned if a later field is present while
// GroupDataCipherSuite is not, or if the element would exceed the maximum
// element length.
func (e *Element) Marshal() ([]byte, error) {
	last := e.lastField()
	if last > fieldGroupData && e.GroupDataCipherSuite == nil {
		return nil, fmt.Errorf("%w: group data cipher suite is required by later fields",
			ErrInvalidElement)
	}

	n := e.bodyLen(last)
	if n > math.MaxUint8 {
		return nil, fmt.Errorf("%w: element length %d exceeds %d bytes",
			ErrInvalidElement, n, math.MaxUint8)
	}

	b := cryptobyte.NewFixedBuilder(make([]byte, 0, headerLen+n))
	b.AddUint8(ElementID)
	b.AddUint8(uint8(n))
	addUint16LE(b, e.Version)

	if last >= fieldGroupData {
		addSuite(b, e.GroupDataCipherSuite.OUI, uint8(e.GroupDataCipherSuite.Type))
	}
	if last >= fieldPairwise {
		addUint16LE(b, uint16(len(e.PairwiseCipherSuites)))
		for _, c := range e.PairwiseCipherSuites {
			addSuite(b, c.OUI, uint8(c.Type))
		}
	}
	if last >= fieldAKM {
		addUint16LE(b, uint16(len(e.AKMSuites)))
		for _, a := range e.AKMSuites {
			addSuite(b, a.OUI, uint8(a.Type))
		}
	}
	if last >= fieldCapabilities {
		addUint16LE(b, uint16(e.Capabilities))
	}
	if last >= fieldPMKIDs {
		addUint16LE(b, uint16(len(e.PMKIDs)))
		for _, p := range e.PMKIDs {
			b.AddBytes(p[:])
		}
	}
	if last >= fieldGroupMgmt {
		addSuite(b, e.GroupMgmtCipherSuite.OUI, uint8(e.GroupMgmtCipherSuite.Type))
	}

	return b.Bytes()
}

// Optional fields of an Element, in wire order.
const (
	fieldVersion = iota
	fieldGroupData
	fieldPairwise
	fieldAKM
	fieldCapabilities
	fieldPMKIDs
	fieldGroupMgmt
)

// lastField returns the last optional field present in e.
func (e *Element) lastField() int {
	switch {
	case e.GroupMgmtCipherSuite != nil:
		return fieldGroupMgmt
	case e.PMKIDs != nil:
		return fieldPMKIDs
	case e.Capabilities != 0:
		return fieldCapabilities
	case e.AKMSuites != nil:
		return fieldAKM
	case e.PairwiseCipherSuites != nil:
		return fieldPairwise
	case e.GroupDataCipherSuite != nil:
		return fieldGroupData
	default:
		return fieldVersion
	}
}

// bodyLen returns the length of e's body when written up to field last.
func (e *Element) bodyLen(last int) int {
	n := 2 // version
	if last >= fieldGroupData {
		n += suiteLen
	}
	if last >= fieldPairwise {
		n += 2 + suiteLen*len(e.PairwiseCipherSuites)
	}
	if last >= fieldAKM {
		n += 2 + suiteLen*len(e.AKMSuites)
	}
	if last >= fieldCapabilities {
		n += 2
	}
	if last >= fieldPMKIDs {
		n += 2 + PMKIDLen*len(e.PMKIDs)
	}
	if last >= fieldGroupMgmt {
		n += suiteLen
	}

	return n
}

// readList reads a little-endian count followed by that many entries of size
// bytes each, using read to decode each entry.
func readList[T any](s *cryptobyte.String, field string, size int, read func(*cryptobyte.String) (T, error)) ([]T, error) {
	var n uint16
	if !readUint16LE(s, &n) {
		return nil, truncated(field + " count")
	}

	if len(*s) < int(n)*size {
		return nil, &DecodeError{
			Field: field,
			Err: fmt.Errorf("%w: %w: %d entries need %d bytes, %d remain",
				ErrMalformedList, ErrTruncated, n, int(n)*size, len(*s)),
		}
	}

	out := make([]T, 0, n)
	for i := 0; i < int(n); i++ {
		v, err := read(s)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}

	return out, nil
}

// readUint16LE reads a little-endian uint16 from s. cryptobyte only handles
// big-endian integers.
func readUint16LE(s *cryptobyte.String, out *uint16) bool {
	var b []byte
	if !s.ReadBytes(&b, 2) {
		return false
	}

	*out = uint16(b[0]) | uint16(b[1])<<8
	return true
}

func addUint16LE(b *cryptobyte.Builder, v uint16) {
	b.AddUint8(uint8(v))
	b.AddUint8(uint8(v >> 8))
}

func truncated(field string) error {
	return &DecodeError{Field: field, Err: ErrTruncated}
}
