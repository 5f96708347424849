//go:build linux
// +build linux

package wpa

import (
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"github.com/mdlayher/wpa/eapol"
	"github.com/mdlayher/wpa/rsn"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/sys/unix"
)

var _ osClient = &client{}

// A client is the Linux implementation of osClient, which makes use of
// netlink, generic netlink, and nl80211 to drive WPA key management.
type client struct {
	c             *genetlink.Conn
	familyID      uint16
	familyVersion uint8

	// scan serializes calls to Scan.
	scan sync.Mutex
}

// newClient dials a generic netlink connection and verifies that nl80211
// is available for use by this package.
func newClient() (*client, error) {
	c, err := genetlink.Dial(nil)
	if err != nil {
		return nil, err
	}

	// Make a best effort to apply the strict options set to provide better
	// errors and validation. Older kernels may reject them.
	for _, o := range []netlink.ConnOption{
		netlink.ExtendedAcknowledge,
		netlink.GetStrictCheck,
	} {
		_ = c.SetOption(o, true)
	}

	return initClient(c)
}

func initClient(c *genetlink.Conn) (*client, error) {
	family, err := c.GetFamily(unix.NL80211_GENL_NAME)
	if err != nil {
		// Ensure the genl socket is closed on error to avoid leaking file
		// descriptors.
		_ = c.Close()
		return nil, err
	}

	return &client{
		c:             c,
		familyID:      family.ID,
		familyVersion: family.Version,
	}, nil
}

// Close closes the client's generic netlink connection.
func (c *client) Close() error { return c.c.Close() }

// Interfaces requests that nl80211 return a list of all WiFi interfaces present
// on this system.
func (c *client) Interfaces() ([]*Interface, error) {
	msgs, err := c.get(
		unix.NL80211_CMD_GET_INTERFACE,
		netlink.Dump,
		nil,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return parseInterfaces(msgs)
}

// Connect starts connecting the interface to the specified open network.
func (c *client) Connect(ifi *Interface, ssid string) error {
	_, err := c.get(
		unix.NL80211_CMD_CONNECT,
		netlink.Acknowledge,
		ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Bytes(unix.NL80211_ATTR_SSID, []byte(ssid))
			ae.Uint32(unix.NL80211_ATTR_AUTH_TYPE, unix.NL80211_AUTHTYPE_OPEN_SYSTEM)
		},
	)
	return err
}

// Disconnect disconnects the interface.
func (c *client) Disconnect(ifi *Interface) error {
	_, err := c.get(
		unix.NL80211_CMD_DISCONNECT,
		netlink.Acknowledge,
		ifi,
		nil,
	)
	return err
}

// wpa2PSK is the RSN element offered when connecting with a preshared key:
// CCMP-128 for all traffic and PSK key management.
var wpa2PSK = &rsn.Element{
	Version: 1,
	GroupDataCipherSuite: &rsn.CipherSuite{
		OUI:  rsn.IEEE8021OUI,
		Type: rsn.CipherSuiteTypeCCMP128,
	},
	PairwiseCipherSuites: []rsn.CipherSuite{{
		OUI:  rsn.IEEE8021OUI,
		Type: rsn.CipherSuiteTypeCCMP128,
	}},
	AKMSuites: []rsn.AKMSuite{{
		OUI:  rsn.IEEE8021OUI,
		Type: rsn.AKMSuiteTypePSK,
	}},
}

// ConnectWPAPSK starts connecting the interface to the specified SSID using
// WPA2-Personal, with the 4-way handshake offloaded to the device.
func (c *client) ConnectWPAPSK(ifi *Interface, ssid, psk string) error {
	if err := c.requireExtFeature(ifi, unix.NL80211_EXT_FEATURE_4WAY_HANDSHAKE_STA_PSK); err != nil {
		return err
	}

	encodeRSN, err := rsnParams(wpa2PSK)
	if err != nil {
		return err
	}

	_, err = c.get(
		unix.NL80211_CMD_CONNECT,
		netlink.Acknowledge,
		ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Bytes(unix.NL80211_ATTR_SSID, []byte(ssid))
			encodeRSN(ae)
			ae.Flag(unix.NL80211_ATTR_WANT_1X_4WAY_HS, true)
			ae.Bytes(
				unix.NL80211_ATTR_PMK,
				wpaPassphrase([]byte(ssid), []byte(psk)),
			)
			ae.Uint32(unix.NL80211_ATTR_AUTH_TYPE, unix.NL80211_AUTHTYPE_OPEN_SYSTEM)
		},
	)
	return err
}

// ConnectRSN starts connecting the interface to the specified SSID using the
// suites in e, and asks nl80211 to deliver the connection's EAPOL frames over
// this client's socket.
func (c *client) ConnectRSN(ifi *Interface, ssid string, e *rsn.Element) error {
	if err := c.requireExtFeature(ifi, unix.NL80211_EXT_FEATURE_CONTROL_PORT_OVER_NL80211); err != nil {
		return err
	}

	encodeRSN, err := rsnParams(e)
	if err != nil {
		return err
	}

	_, err = c.get(
		unix.NL80211_CMD_CONNECT,
		netlink.Acknowledge,
		ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Bytes(unix.NL80211_ATTR_SSID, []byte(ssid))
			encodeRSN(ae)
			ae.Flag(unix.NL80211_ATTR_CONTROL_PORT, true)
			ae.Uint16(unix.NL80211_ATTR_CONTROL_PORT_ETHERTYPE, EtherTypeEAPOL)
			ae.Flag(unix.NL80211_ATTR_CONTROL_PORT_OVER_NL80211, true)
			// The kernel tears down the connection if this socket closes.
			ae.Flag(unix.NL80211_ATTR_SOCKET_OWNER, true)
			ae.Uint32(unix.NL80211_ATTR_AUTH_TYPE, unix.NL80211_AUTHTYPE_OPEN_SYSTEM)
		},
	)
	return err
}

// SendEAPOL transmits f to dst using the nl80211 control port.
func (c *client) SendEAPOL(ifi *Interface, dst net.HardwareAddr, f *eapol.KeyFrame) error {
	if len(dst) != 6 {
		return fmt.Errorf("wpa: invalid EAPOL destination address %q", dst.String())
	}

	if err := c.requireExtFeature(ifi, unix.NL80211_EXT_FEATURE_CONTROL_PORT_OVER_NL80211); err != nil {
		return err
	}

	b, err := f.Marshal(false)
	if err != nil {
		return err
	}

	_, err = c.get(
		unix.NL80211_CMD_CONTROL_PORT_FRAME,
		netlink.Acknowledge,
		ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Bytes(unix.NL80211_ATTR_FRAME, b)
			ae.Bytes(unix.NL80211_ATTR_MAC, dst)
			ae.Uint16(unix.NL80211_ATTR_CONTROL_PORT_ETHERTYPE, EtherTypeEAPOL)
		},
	)
	return err
}

// rsnParams validates that e selects the suites nl80211 needs to connect and
// returns a function which encodes them, along with e itself, as connect
// attributes.
func rsnParams(e *rsn.Element) (func(ae *netlink.AttributeEncoder), error) {
	if e == nil || e.GroupDataCipherSuite == nil ||
		len(e.PairwiseCipherSuites) == 0 || len(e.AKMSuites) == 0 {
		return nil, fmt.Errorf("wpa: element lacks suites required to connect: %w",
			rsn.ErrInvalidElement)
	}

	ie, err := e.Marshal()
	if err != nil {
		return nil, err
	}

	group := e.GroupDataCipherSuite.Uint32()
	pairwise := suiteSelectors(e.PairwiseCipherSuites)
	akms := suiteSelectors(e.AKMSuites)

	return func(ae *netlink.AttributeEncoder) {
		ae.Uint32(unix.NL80211_ATTR_WPA_VERSIONS, unix.NL80211_WPA_VERSION_2)
		ae.Uint32(unix.NL80211_ATTR_CIPHER_SUITE_GROUP, group)
		ae.Bytes(unix.NL80211_ATTR_CIPHER_SUITES_PAIRWISE, pairwise)
		ae.Bytes(unix.NL80211_ATTR_AKM_SUITES, akms)
		ae.Bytes(unix.NL80211_ATTR_IE, ie)
	}, nil
}

// suiteSelectors packs suite selectors into the u32 array form nl80211 uses
// for suite list attributes.
func suiteSelectors[T interface{ Uint32() uint32 }](suites []T) []byte {
	b := make([]byte, 0, 4*len(suites))
	for _, s := range suites {
		b = append(b, nlenc.Uint32Bytes(s.Uint32())...)
	}

	return b
}

// wpaPassphrase computes a WPA passphrase given an SSID and preshared key.
func wpaPassphrase(ssid, psk []byte) []byte {
	return pbkdf2.Key(psk, ssid, 4096, 32, sha1.New)
}

// BSS requests that nl80211 return the BSS for the specified Interface.
func (c *client) BSS(ifi *Interface) (*BSS, error) {
	msgs, err := c.get(
		unix.NL80211_CMD_GET_SCAN,
		netlink.Dump,
		ifi,
		func(ae *netlink.AttributeEncoder) {
			if ifi.HardwareAddr != nil {
				ae.Bytes(unix.NL80211_ATTR_MAC, ifi.HardwareAddr)
			}
		},
	)
	if err != nil {
		return nil, err
	}

	return parseBSS(msgs)
}

// AccessPoints requests that nl80211 return all currently known BSS
// from the specified Interface.
func (c *client) AccessPoints(ifi *Interface) ([]*BSS, error) {
	msgs, err := c.get(
		unix.NL80211_CMD_GET_SCAN,
		netlink.Dump,
		ifi,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return parseAccessPoints(msgs)
}

// Scan triggers a scan for access points on the specified Interface and
// blocks until the kernel reports new results or ctx is done. Scan
// notifications arrive on a multicast group, so a second connection is
// dialed for the duration of the call.
//
// Use AccessPoints to retrieve the results.
func (c *client) Scan(ctx context.Context, ifi *Interface) error {
	c.scan.Lock()
	defer c.scan.Unlock()

	conn, err := genetlink.Dial(&netlink.Config{Strict: true})
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return err
		}
	}

	family, err := conn.GetFamily(unix.NL80211_GENL_NAME)
	if err != nil {
		return err
	}

	group, ok := scanGroup(family.Groups)
	if !ok {
		return ErrScanGroupNotFound
	}
	if err := conn.JoinGroup(group); err != nil {
		return err
	}
	defer func() { _ = conn.LeaveGroup(group) }()

	ae := netlink.NewAttributeEncoder()
	ifi.encode(ae)
	// A single empty SSID requests a wildcard scan.
	ae.Nested(unix.NL80211_ATTR_SCAN_SSIDS, func(nae *netlink.AttributeEncoder) error {
		nae.Bytes(unix.NL80211_SCHED_SCAN_MATCH_ATTR_SSID, nlenc.Bytes(""))
		return nil
	})

	data, err := ae.Encode()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := make(chan error, 1)
	go func() {
		defer close(result)
		result <- waitScan(ctx, conn, ifi.Index, family.Version)
	}()

	_, err = conn.Send(
		genetlink.Message{
			Header: genetlink.Header{
				Command: unix.NL80211_CMD_TRIGGER_SCAN,
				Version: family.Version,
			},
			Data: data,
		},
		family.ID,
		netlink.Request|netlink.Acknowledge,
	)
	if err != nil {
		cancel()
		// Unblock the pending Receive.
		_ = conn.SetReadDeadline(time.Now())
	}

	return errors.Join(err, <-result)
}

// scanGroup returns the ID of the nl80211 scan multicast group.
func scanGroup(groups []genetlink.MulticastGroup) (uint32, bool) {
	for _, g := range groups {
		if g.Name == unix.NL80211_MULTICAST_GROUP_SCAN {
			return g.ID, true
		}
	}

	return 0, false
}

// waitScan receives scan notifications from conn until the scan on the
// interface with index ifiIndex completes or is aborted.
//
// The caller must not receive on conn concurrently and is responsible for
// closing it.
func waitScan(ctx context.Context, conn *genetlink.Conn, ifiIndex int, version uint8) error {
	for ctx.Err() == nil {
		msgs, _, err := conn.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		done, err := scanDone(msgs, ifiIndex, version)
		if done || err != nil {
			return err
		}
	}

	return ctx.Err()
}

// scanDone reports whether msgs finish the scan on the interface with index
// ifiIndex. Notifications for other interfaces and acknowledgements are
// ignored.
func scanDone(msgs []genetlink.Message, ifiIndex int, version uint8) (bool, error) {
	for _, m := range msgs {
		if m.Header.Version != version {
			continue
		}

		switch m.Header.Command {
		case unix.NL80211_CMD_NEW_SCAN_RESULTS, unix.NL80211_CMD_SCAN_ABORTED:
		default:
			continue
		}

		attrs, err := netlink.UnmarshalAttributes(m.Data)
		if err != nil {
			return true, errors.Join(ErrScanValidation, err)
		}

		var ifi Interface
		if err := ifi.parseAttributes(attrs); err != nil {
			return true, errors.Join(ErrScanValidation, err)
		}
		if ifi.Index != ifiIndex {
			continue
		}

		if m.Header.Command == unix.NL80211_CMD_SCAN_ABORTED {
			return true, ErrScanAborted
		}
		return true, nil
	}

	return false, nil
}

// SetDeadline sets the read and write deadlines associated with the connection.
func (c *client) SetDeadline(t time.Time) error {
	return c.c.SetDeadline(t)
}

// SetReadDeadline sets the read deadline associated with the connection.
func (c *client) SetReadDeadline(t time.Time) error {
	return c.c.SetReadDeadline(t)
}

// SetWriteDeadline sets the write deadline associated with the connection.
func (c *client) SetWriteDeadline(t time.Time) error {
	return c.c.SetWriteDeadline(t)
}

// get performs a request/response interaction with nl80211.
func (c *client) get(
	cmd uint8,
	flags netlink.HeaderFlags,
	ifi *Interface,
	// May be nil; used to apply optional parameters.
	params func(ae *netlink.AttributeEncoder),
) ([]genetlink.Message, error) {
	ae := netlink.NewAttributeEncoder()
	ifi.encode(ae)
	if params != nil {
		params(ae)
	}

	return c.execute(cmd, flags, ae)
}

// execute executes the specified command with additional header flags and input
// netlink request attributes. The netlink.Request header flag is automatically
// set.
func (c *client) execute(
	cmd uint8,
	flags netlink.HeaderFlags,
	ae *netlink.AttributeEncoder,
) ([]genetlink.Message, error) {
	b, err := ae.Encode()
	if err != nil {
		return nil, err
	}

	return c.c.Execute(
		genetlink.Message{
			Header: genetlink.Header{
				Command: cmd,
				Version: c.familyVersion,
			},
			Data: b,
		},
		// Always pass the genetlink family ID and request flag.
		c.familyID,
		netlink.Request|flags,
	)
}

// requireExtFeature returns ErrNotSupported if ifi's PHY lacks feature.
func (c *client) requireExtFeature(ifi *Interface, feature uint) error {
	ok, err := c.checkExtFeature(ifi, feature)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("wpa: extended feature %d: %w", feature, ErrNotSupported)
	}

	return nil
}

// checkExtFeature checks if a physical interface supports an extended feature.
func (c *client) checkExtFeature(ifi *Interface, feature uint) (bool, error) {
	msgs, err := c.get(
		unix.NL80211_CMD_GET_WIPHY,
		netlink.Dump,
		ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Flag(unix.NL80211_ATTR_SPLIT_WIPHY_DUMP, true)
		},
	)
	if err != nil {
		return false, err
	}

	var features []byte
found:
	for i := range msgs {
		attrs, err := netlink.UnmarshalAttributes(msgs[i].Data)
		if err != nil {
			return false, err
		}
		for _, a := range attrs {
			if a.Type == unix.NL80211_ATTR_EXT_FEATURES {
				features = a.Data
				break found
			}
		}
	}

	if feature/8 >= uint(len(features)) {
		return false, nil
	}

	return features[feature/8]&(1<<(feature%8)) != 0, nil
}

// parseInterfaces parses zero or more Interfaces from nl80211 interface
// messages.
func parseInterfaces(msgs []genetlink.Message) ([]*Interface, error) {
	ifis := make([]*Interface, 0, len(msgs))
	for _, m := range msgs {
		attrs, err := netlink.UnmarshalAttributes(m.Data)
		if err != nil {
			return nil, err
		}

		var ifi Interface
		if err := (&ifi).parseAttributes(attrs); err != nil {
			return nil, err
		}

		ifis = append(ifis, &ifi)
	}

	return ifis, nil
}

// encode provides an encoding function for ifi's attributes. If ifi is nil,
// encode is a no-op.
func (ifi *Interface) encode(ae *netlink.AttributeEncoder) {
	if ifi == nil {
		return
	}

	// Mandatory.
	ae.Uint32(unix.NL80211_ATTR_IFINDEX, uint32(ifi.Index))
}

// idAttrs returns the netlink attributes required from an Interface to retrieve
// more data about it.
func (ifi *Interface) idAttrs() []netlink.Attribute {
	return []netlink.Attribute{
		{
			Type: unix.NL80211_ATTR_IFINDEX,
			Data: nlenc.Uint32Bytes(uint32(ifi.Index)),
		},
		{
			Type: unix.NL80211_ATTR_MAC,
			Data: ifi.HardwareAddr,
		},
	}
}

// parseAttributes parses netlink attributes into an Interface's fields.
func (ifi *Interface) parseAttributes(attrs []netlink.Attribute) error {
	for _, a := range attrs {
		switch a.Type {
		case unix.NL80211_ATTR_IFINDEX:
			ifi.Index = int(nlenc.Uint32(a.Data))
		case unix.NL80211_ATTR_IFNAME:
			ifi.Name = nlenc.String(a.Data)
		case unix.NL80211_ATTR_MAC:
			ifi.HardwareAddr = net.HardwareAddr(a.Data)
		case unix.NL80211_ATTR_WIPHY:
			ifi.PHY = int(nlenc.Uint32(a.Data))
		case unix.NL80211_ATTR_IFTYPE:
			ifi.Type = InterfaceType(nlenc.Uint32(a.Data))
		case unix.NL80211_ATTR_WDEV:
			ifi.Device = int(nlenc.Uint64(a.Data))
		case unix.NL80211_ATTR_WIPHY_FREQ:
			ifi.Frequency = int(nlenc.Uint32(a.Data))
		}
	}

	return nil
}

// parseBSS parses the single BSS carrying a status attribute from nl80211
// scan result messages.
func parseBSS(msgs []genetlink.Message) (*BSS, error) {
	var found *BSS
	err := eachBSS(msgs, func(attrs []netlink.Attribute) error {
		// Only the BSS associated with an interface has a status.
		if found != nil || !attrsContain(attrs, unix.NL80211_BSS_STATUS) {
			return nil
		}

		var bss BSS
		if err := (&bss).parseAttributes(attrs); err != nil {
			return err
		}

		found = &bss
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, os.ErrNotExist
	}

	return found, nil
}

// parseAccessPoints parses every BSS from nl80211 scan result messages.
// Entries with malformed information elements are skipped.
func parseAccessPoints(msgs []genetlink.Message) ([]*BSS, error) {
	bsss := make([]*BSS, 0, len(msgs))
	err := eachBSS(msgs, func(attrs []netlink.Attribute) error {
		bss := BSS{Status: BSSStatusNotAssociated}
		if err := (&bss).parseAttributes(attrs); err != nil {
			return nil
		}

		bsss = append(bsss, &bss)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return bsss, nil
}

// eachBSS invokes fn with the nested attributes of every BSS attribute in
// msgs.
func eachBSS(msgs []genetlink.Message, fn func(attrs []netlink.Attribute) error) error {
	for _, m := range msgs {
		attrs, err := netlink.UnmarshalAttributes(m.Data)
		if err != nil {
			return err
		}

		for _, a := range attrs {
			if a.Type != unix.NL80211_ATTR_BSS {
				continue
			}

			nattrs, err := netlink.UnmarshalAttributes(a.Data)
			if err != nil {
				return err
			}

			if err := fn(nattrs); err != nil {
				return err
			}
		}
	}

	return nil
}

// parseAttributes parses netlink attributes into a BSS's fields.
func (b *BSS) parseAttributes(attrs []netlink.Attribute) error {
	for _, a := range attrs {
		switch a.Type {
		case unix.NL80211_BSS_BSSID:
			b.BSSID = net.HardwareAddr(a.Data)
		case unix.NL80211_BSS_FREQUENCY:
			b.Frequency = int(nlenc.Uint32(a.Data))
		case unix.NL80211_BSS_BEACON_INTERVAL:
			// Raw value is in Time Units of 1024 microseconds.
			b.BeaconInterval = time.Duration(nlenc.Uint16(a.Data)) * 1024 * time.Microsecond
		case unix.NL80211_BSS_SEEN_MS_AGO:
			b.LastSeen = time.Duration(nlenc.Uint32(a.Data)) * time.Millisecond
		case unix.NL80211_BSS_STATUS:
			b.Status = BSSStatus(nlenc.Uint32(a.Data))
		case unix.NL80211_BSS_INFORMATION_ELEMENTS:
			ies, err := parseIEs(a.Data)
			if err != nil {
				return err
			}

			for _, ie := range ies {
				switch ie.ID {
				case ieSSID:
					b.SSID = decodeSSID(ie.Data)
				case ieRSN:
					e, err := rsn.Parse(ie.element())
					if err != nil {
						continue // This IE is malformed
					}
					b.RSN = e
				}
			}
		}
	}

	return nil
}

// attrsContain checks if a slice of netlink attributes contains an attribute
// with the specified type.
func attrsContain(attrs []netlink.Attribute, typ uint16) bool {
	for _, a := range attrs {
		if a.Type == typ {
			return true
		}
	}

	return false
}

// decodeSSID safely parses a byte slice into UTF-8 runes, and returns the
// resulting string from the runes.
func decodeSSID(b []byte) string {
	buf := bytes.NewBuffer(nil)
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		b = b[size:]

		buf.WriteRune(r)
	}

	return buf.String()
}
