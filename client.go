package wpa

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/mdlayher/wpa/eapol"
	"github.com/mdlayher/wpa/rsn"
)

// ErrNotSupported is returned when the kernel or driver lacks a feature an
// operation depends on.
var ErrNotSupported = errors.New("not supported")

// Errors returned by Scan.
var (
	ErrScanGroupNotFound = errors.New("scan multicast group unavailable")
	ErrScanAborted       = errors.New("scan aborted by the kernel")
	ErrScanValidation    = errors.New("scan validation failed")
)

// EtherTypeEAPOL is the EtherType of EAPOL frames sent over the control port.
const EtherTypeEAPOL = 0x888e

// A Client is a type which can perform WPA key management operations on WiFi
// devices using operating system-specific operations.
type Client struct {
	c osClient
}

// New creates a new Client.
func New() (*Client, error) {
	c, err := newClient()
	if err != nil {
		return nil, err
	}

	return &Client{
		c: c,
	}, nil
}

// Close releases resources used by a Client.
func (c *Client) Close() error {
	return c.c.Close()
}

// Interfaces returns a list of the system's WiFi network interfaces.
func (c *Client) Interfaces() ([]*Interface, error) {
	return c.c.Interfaces()
}

// BSS retrieves the BSS associated with a WiFi interface. If the interface is
// not associated, an error compatible with os.ErrNotExist is returned.
func (c *Client) BSS(ifi *Interface) (*BSS, error) {
	return c.c.BSS(ifi)
}

// AccessPoints retrieves every BSS currently known to a WiFi interface,
// including those it is not associated with.
func (c *Client) AccessPoints(ifi *Interface) ([]*BSS, error) {
	return c.c.AccessPoints(ifi)
}

// Scan triggers a scan for access points on a WiFi interface and blocks until
// it completes, fails, or ctx is done. Use context.WithTimeout to bound it.
//
// If a scan is already running on the device the kernel reports EBUSY. A scan
// aborted by the kernel returns ErrScanAborted. Use AccessPoints to retrieve
// the results.
func (c *Client) Scan(ctx context.Context, ifi *Interface) error {
	return c.c.Scan(ctx, ifi)
}

// Connect starts connecting the interface to the specified open network.
func (c *Client) Connect(ifi *Interface, ssid string) error {
	return c.c.Connect(ifi, ssid)
}

// ConnectWPAPSK starts connecting the interface to the specified SSID using
// WPA2-Personal. The 4-way handshake is offloaded to the device, which must
// support it or ErrNotSupported is returned.
func (c *Client) ConnectWPAPSK(ifi *Interface, ssid, psk string) error {
	return c.c.ConnectWPAPSK(ifi, ssid, psk)
}

// ConnectRSN starts connecting the interface to the specified SSID using the
// suites selected in e, which is also sent to the access point in the
// association request. EAPOL frames for the connection are exchanged over
// nl80211 rather than a network socket: send them using SendEAPOL.
//
// e must carry a group data cipher suite, at least one pairwise cipher suite,
// and at least one AKM suite. The device must support the control port over
// nl80211 or ErrNotSupported is returned.
func (c *Client) ConnectRSN(ifi *Interface, ssid string, e *rsn.Element) error {
	return c.c.ConnectRSN(ifi, ssid, e)
}

// Disconnect disconnects the interface.
func (c *Client) Disconnect(ifi *Interface) error {
	return c.c.Disconnect(ifi)
}

// SendEAPOL transmits an EAPOL-Key frame to dst over the interface's control
// port. The frame's MIC is sent as-is.
func (c *Client) SendEAPOL(ifi *Interface, dst net.HardwareAddr, f *eapol.KeyFrame) error {
	return c.c.SendEAPOL(ifi, dst, f)
}

// SetDeadline sets the read and write deadlines associated with the connection.
func (c *Client) SetDeadline(t time.Time) error {
	return c.c.SetDeadline(t)
}

// SetReadDeadline sets the read deadline associated with the connection.
func (c *Client) SetReadDeadline(t time.Time) error {
	return c.c.SetReadDeadline(t)
}

// SetWriteDeadline sets the write deadline associated with the connection.
func (c *Client) SetWriteDeadline(t time.Time) error {
	return c.c.SetWriteDeadline(t)
}

// An osClient is the operating system-specific implementation of Client.
type osClient interface {
	Close() error
	Interfaces() ([]*Interface, error)
	BSS(ifi *Interface) (*BSS, error)
	AccessPoints(ifi *Interface) ([]*BSS, error)
	Scan(ctx context.Context, ifi *Interface) error
	Connect(ifi *Interface, ssid string) error
	ConnectWPAPSK(ifi *Interface, ssid, psk string) error
	ConnectRSN(ifi *Interface, ssid string, e *rsn.Element) error
	Disconnect(ifi *Interface) error
	SendEAPOL(ifi *Interface, dst net.HardwareAddr, f *eapol.KeyFrame) error
	SetDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}
