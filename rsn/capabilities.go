package rsn

// Capabilities is the RSN Capabilities field of an RSN element.
//
// IEEE Std 802.11-2016, 9.4.2.25.4, Figure 9-257.
type Capabilities uint16

const (
	capPreAuth        Capabilities = 1 << 0
	capNoPairwise     Capabilities = 1 << 1
	capPTKSAReplay    Capabilities = 3 << 2
	capGTKSAReplay    Capabilities = 3 << 4
	capMFPRequired    Capabilities = 1 << 6
	capMFPCapable     Capabilities = 1 << 7
	capPeerKeyEnabled Capabilities = 1 << 9
	capExtendedKeyID  Capabilities = 1 << 13
	capOCVCapable     Capabilities = 1 << 14
)

// PreAuth reports whether the station supports RSN preauthentication.
func (c Capabilities) PreAuth() bool { return c&capPreAuth != 0 }

// NoPairwise reports whether the station cannot use WEP default keys alongside
// pairwise keys.
func (c Capabilities) NoPairwise() bool { return c&capNoPairwise != 0 }

// PTKSAReplayCounters returns the number of PTKSA replay counters supported.
func (c Capabilities) PTKSAReplayCounters() int { return replayCounters(uint16(c&capPTKSAReplay) >> 2) }

// GTKSAReplayCounters returns the number of GTKSA replay counters supported.
func (c Capabilities) GTKSAReplayCounters() int { return replayCounters(uint16(c&capGTKSAReplay) >> 4) }

// MFPRequired reports whether management frame protection is required.
func (c Capabilities) MFPRequired() bool { return c&capMFPRequired != 0 }

// MFPCapable reports whether management frame protection is supported.
func (c Capabilities) MFPCapable() bool { return c&capMFPCapable != 0 }

// PeerKeyEnabled reports whether the PeerKey handshake is supported.
func (c Capabilities) PeerKeyEnabled() bool { return c&capPeerKeyEnabled != 0 }

// ExtendedKeyID reports whether extended key IDs for individually addressed
// frames are supported.
func (c Capabilities) ExtendedKeyID() bool { return c&capExtendedKeyID != 0 }

// OCVCapable reports whether operating channel validation is supported.
func (c Capabilities) OCVCapable() bool { return c&capOCVCapable != 0 }

// replayCounters maps the 2-bit replay counter subfield to a counter count.
func replayCounters(v uint16) int {
	switch v {
	case 0:
		return 1
	case 1:
		return 2
	case 2:
		return 4
	default:
		return 16
	}
}
