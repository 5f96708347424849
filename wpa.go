// Package wpa provides access to WPA key management on Linux WiFi
// interfaces using nl80211, built on the eapol and rsn codecs.
package wpa

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/mdlayher/wpa/rsn"
)

// errInvalidIE is returned when one or more IEs are malformed.
var errInvalidIE = errors.New("invalid 802.11 information element")

// An InterfaceType is the operating mode of an Interface. Its values match
// nl80211's interface type constants.
type InterfaceType int

// Possible InterfaceType values.
const (
	InterfaceTypeUnspecified InterfaceType = iota
	InterfaceTypeAdHoc
	InterfaceTypeStation
	InterfaceTypeAP
	InterfaceTypeAPVLAN
	InterfaceTypeWDS
	InterfaceTypeMonitor
	InterfaceTypeMeshPoint
	InterfaceTypeP2PClient
	InterfaceTypeP2PGroupOwner
	InterfaceTypeP2PDevice
	InterfaceTypeOCB
	InterfaceTypeNAN
)

// String returns the string representation of an InterfaceType.
func (t InterfaceType) String() string {
	switch t {
	case InterfaceTypeUnspecified:
		return "unspecified"
	case InterfaceTypeAdHoc:
		return "ad-hoc"
	case InterfaceTypeStation:
		return "station"
	case InterfaceTypeAP:
		return "access point"
	case InterfaceTypeAPVLAN:
		return "access point/VLAN"
	case InterfaceTypeWDS:
		return "wireless distribution"
	case InterfaceTypeMonitor:
		return "monitor"
	case InterfaceTypeMeshPoint:
		return "mesh point"
	case InterfaceTypeP2PClient:
		return "P2P client"
	case InterfaceTypeP2PGroupOwner:
		return "P2P group owner"
	case InterfaceTypeP2PDevice:
		return "P2P device"
	case InterfaceTypeOCB:
		return "outside context of BSS"
	case InterfaceTypeNAN:
		return "near-me area network"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// An Interface is a WiFi network interface.
type Interface struct {
	Index        int
	Name         string
	HardwareAddr net.HardwareAddr

	// PHY is the physical device the interface belongs to, and Device is the
	// interface's virtual device number within that PHY.
	PHY    int
	Device int

	Type InterfaceType

	// Frequency is the operating frequency in MHz.
	Frequency int
}

// A BSS is an 802.11 basic service set seen by an Interface.
type BSS struct {
	SSID string

	// BSSID is the hardware address of the access point in infrastructure
	// mode.
	BSSID net.HardwareAddr

	// Frequency is in MHz.
	Frequency int

	BeaconInterval time.Duration

	// LastSeen is the age of the scan result.
	LastSeen time.Duration

	Status BSSStatus

	// RSN is the BSS's advertised RSN element, or nil if the BSS does not
	// advertise one or advertises a malformed one.
	RSN *rsn.Element
}

// A BSSStatus indicates the current status of a client within a BSS.
type BSSStatus int

// Possible BSSStatus values. The first three match nl80211's BSS status
// constants.
const (
	BSSStatusAuthenticated BSSStatus = iota
	BSSStatusAssociated
	BSSStatusIBSSJoined

	// BSSStatusNotAssociated is reported for scan results which carry no
	// status at all.
	BSSStatusNotAssociated
)

// String returns the string representation of a BSSStatus.
func (s BSSStatus) String() string {
	switch s {
	case BSSStatusAuthenticated:
		return "authenticated"
	case BSSStatusAssociated:
		return "associated"
	case BSSStatusIBSSJoined:
		return "IBSS joined"
	case BSSStatusNotAssociated:
		return "unassociated"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// List of 802.11 Information Element types.
const (
	ieSSID = 0
	ieRSN  = rsn.ElementID
)

// An ie is an 802.11 information element.
type ie struct {
	ID uint8
	// Length field implied by length of data
	Data []byte
}

// element returns the IE in its wire form, ID and length included.
func (e ie) element() []byte {
	b := make([]byte, 0, 2+len(e.Data))
	b = append(b, e.ID, uint8(len(e.Data)))
	return append(b, e.Data...)
}

// parseIEs parses zero or more ies from a byte slice.
func parseIEs(b []byte) ([]ie, error) {
	var ies []ie
	for len(b) > 0 {
		if len(b) < 2 {
			return nil, errInvalidIE
		}

		id, l := b[0], int(b[1])
		b = b[2:]
		if len(b) < l {
			return nil, errInvalidIE
		}

		ies = append(ies, ie{
			ID:   id,
			Data: b[:l],
		})
		b = b[l:]
	}

	return ies, nil
}
