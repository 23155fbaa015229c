/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package protocol names the network families the reactor's listener and dialer
// accept, matching the strings Go's net package expects ("tcp", "tcp4", "tcp6",
// "unix"...).
package protocol

import "strings"

// NetworkProtocol identifies a socket address family / transport pair.
type NetworkProtocol uint8

const (
	NetworkEmpty NetworkProtocol = iota
	NetworkTCP
	NetworkTCP4
	NetworkTCP6
	NetworkUDP
	NetworkUDP4
	NetworkUDP6
	NetworkUnix
	NetworkUnixGram
)

// String renders the protocol using the literal net.Dial/net.Listen network name.
func (n NetworkProtocol) String() string {
	switch n {
	case NetworkTCP:
		return "tcp"
	case NetworkTCP4:
		return "tcp4"
	case NetworkTCP6:
		return "tcp6"
	case NetworkUDP:
		return "udp"
	case NetworkUDP4:
		return "udp4"
	case NetworkUDP6:
		return "udp6"
	case NetworkUnix:
		return "unix"
	case NetworkUnixGram:
		return "unixgram"
	default:
		return ""
	}
}

// IsTCP reports whether the protocol is one of the TCP family.
func (n NetworkProtocol) IsTCP() bool {
	switch n {
	case NetworkTCP, NetworkTCP4, NetworkTCP6:
		return true
	default:
		return false
	}
}

// IsUDP reports whether the protocol is one of the UDP family.
func (n NetworkProtocol) IsUDP() bool {
	switch n {
	case NetworkUDP, NetworkUDP4, NetworkUDP6:
		return true
	default:
		return false
	}
}

// Parse resolves a net.Dial/net.Listen network string into a NetworkProtocol.
func Parse(s string) NetworkProtocol {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tcp":
		return NetworkTCP
	case "tcp4":
		return NetworkTCP4
	case "tcp6":
		return NetworkTCP6
	case "udp":
		return NetworkUDP
	case "udp4":
		return NetworkUDP4
	case "udp6":
		return NetworkUDP6
	case "unix":
		return NetworkUnix
	case "unixgram":
		return NetworkUnixGram
	default:
		return NetworkEmpty
	}
}

// MarshalJSON renders the protocol as its literal network-name string.
func (n NetworkProtocol) MarshalJSON() ([]byte, error) {
	return []byte(`"` + n.String() + `"`), nil
}

// UnmarshalJSON accepts the literal network-name string ("tcp", "tcp4"...).
func (n *NetworkProtocol) UnmarshalJSON(b []byte) error {
	*n = Parse(strings.Trim(string(b), `"`))
	return nil
}
