// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Kind identifies which transport family an Endpoint addresses.
type Kind uint8

const (
	// KindTCP is a reliable stream transport over TCP.
	KindTCP Kind = iota
	// KindUnix is a reliable stream transport over a Unix domain
	// socket.
	KindUnix
	// KindDatagram is a best-effort, boundary-preserving UDP transport.
	// See DESIGN.md: this mode is documented weak, per spec.
	KindDatagram
)

func (k Kind) String() string {
	switch k {
	case KindTCP:
		return "tcp"
	case KindUnix:
		return "unix"
	case KindDatagram:
		return "datagram"
	default:
		return "unknown"
	}
}

// Endpoint is a parsed ROMP endpoint URI: one of
//
//	tcpromp://host:port   (alias: romp://host:port)
//	udpromp://host:port
//	unixromp:///absolute/path
//
// An empty Host is only valid server-side (Listen on all interfaces);
// Dial rejects it with ErrEmptyHost.
type Endpoint struct {
	Kind Kind
	Host string
	Port int
	Path string
}

// String renders ep back into its canonical URI form.
func (ep Endpoint) String() string {
	switch ep.Kind {
	case KindUnix:
		return "unixromp://" + ep.Path
	case KindDatagram:
		return fmt.Sprintf("udpromp://%s:%d", ep.Host, ep.Port)
	default:
		return fmt.Sprintf("tcpromp://%s:%d", ep.Host, ep.Port)
	}
}

// Network returns the net package network name for ep ("tcp", "udp", or
// "unix").
func (ep Endpoint) Network() string {
	switch ep.Kind {
	case KindUnix:
		return "unix"
	case KindDatagram:
		return "udp"
	default:
		return "tcp"
	}
}

// Address returns the net package address string for ep: "host:port"
// for TCP/UDP, the socket path for Unix.
func (ep Endpoint) Address() string {
	if ep.Kind == KindUnix {
		return ep.Path
	}
	return net.JoinHostPort(ep.Host, strconv.Itoa(ep.Port))
}

// ParseEndpoint parses a ROMP endpoint URI.
//
// Recognized schemes: "tcpromp", "romp" (alias for tcpromp), "udpromp",
// "unixromp". Any other scheme, or a URI that fails to parse, yields
// ErrInvalidEndpoint.
func ParseEndpoint(uri string) (Endpoint, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}

	scheme := strings.ToLower(u.Scheme)
	switch scheme {
	case "unixromp":
		path := u.Path
		if path == "" && u.Opaque != "" {
			path = u.Opaque
		}
		if path == "" {
			return Endpoint{}, fmt.Errorf("%w: unixromp URI has no path", ErrInvalidEndpoint)
		}
		return Endpoint{Kind: KindUnix, Path: path}, nil
	case "tcpromp", "romp", "udpromp":
		host := u.Hostname()
		portStr := u.Port()
		if portStr == "" {
			return Endpoint{}, fmt.Errorf("%w: missing port in %q", ErrInvalidEndpoint, uri)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil || port < 0 || port > 65535 {
			return Endpoint{}, fmt.Errorf("%w: invalid port in %q", ErrInvalidEndpoint, uri)
		}
		kind := KindTCP
		if scheme == "udpromp" {
			kind = KindDatagram
		}
		return Endpoint{Kind: kind, Host: host, Port: port}, nil
	default:
		return Endpoint{}, fmt.Errorf("%w: unknown scheme %q", ErrInvalidEndpoint, u.Scheme)
	}
}
