package eapol

import (
	"errors"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// errNoEAPOLLayer is returned when a packet does not contain an EAPOL layer.
var errNoEAPOLLayer = errors.New("packet does not contain an EAPOL layer")

// ParsePacket parses an EAPOL-Key frame from the EAPOL layer of a decoded
// packet, such as one read from a capture of a monitor mode interface.
//
// Link layer padding following the EAPOL packet body is discarded before the
// frame is passed to ParseKeyFrame.
func ParsePacket(p gopacket.Packet, micSize uint16) (*KeyFrame, error) {
	l, ok := p.Layer(layers.LayerTypeEAPOL).(*layers.EAPOL)
	if !ok {
		return nil, errNoEAPOLLayer
	}

	contents, payload := l.LayerContents(), l.LayerPayload()
	b := make([]byte, 0, len(contents)+len(payload))
	b = append(b, contents...)
	b = append(b, payload...)

	h, err := ParseHeader(b)
	if err != nil {
		return nil, err
	}

	if n := HeaderLen + int(h.PacketBodyLength); len(b) > n {
		b = b[:n]
	}

	return ParseKeyFrame(b, micSize)
}
