//go:build !linux
// +build !linux

package wpa

import (
	"context"
	"fmt"
	"net"
	"runtime"
	"time"

	"github.com/mdlayher/wpa/eapol"
	"github.com/mdlayher/wpa/rsn"
)

// errUnimplemented is returned by all functions on platforms that
// do not have package wpa implemented.
var errUnimplemented = fmt.Errorf("wpa: not implemented on %s", runtime.GOOS)

var _ osClient = &client{}

// A client is the no-op implementation of osClient.
type client struct{}

func newClient() (*client, error) { return nil, errUnimplemented }

func (*client) Close() error                                  { return errUnimplemented }
func (*client) Interfaces() ([]*Interface, error)             { return nil, errUnimplemented }
func (*client) BSS(_ *Interface) (*BSS, error)                { return nil, errUnimplemented }
func (*client) AccessPoints(_ *Interface) ([]*BSS, error)     { return nil, errUnimplemented }
func (*client) Connect(_ *Interface, _ string) error          { return errUnimplemented }
func (*client) Scan(_ context.Context, _ *Interface) error    { return errUnimplemented }
func (*client) ConnectWPAPSK(_ *Interface, _, _ string) error { return errUnimplemented }
func (*client) ConnectRSN(_ *Interface, _ string, _ *rsn.Element) error {
	return errUnimplemented
}
func (*client) Disconnect(_ *Interface) error { return errUnimplemented }
func (*client) SendEAPOL(_ *Interface, _ net.HardwareAddr, _ *eapol.KeyFrame) error {
	return errUnimplemented
}
func (*client) SetDeadline(_ time.Time) error      { return errUnimplemented }
func (*client) SetReadDeadline(_ time.Time) error  { return errUnimplemented }
func (*client) SetWriteDeadline(_ time.Time) error { return errUnimplemented }
