/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

//go:build !windows
// +build !windows

package hooksyslog

import (
	"fmt"
	"net"

	libptc "github.com/nabbar/reactonet/network/protocol"
)

// systemSyslog discovers the local syslog daemon's Unix domain socket, probing
// the well-known locations the same way the standard library's syslog package
// does. It returns the network and address to dial.
func systemSyslog() (libptc.NetworkProtocol, string, error) {
	logTypes := []libptc.NetworkProtocol{libptc.NetworkUnixGram, libptc.NetworkUnix}
	logPaths := []string{"/dev/log", "/var/run/syslog", "/var/run/log"}

	for _, network := range logTypes {
		for _, path := range logPaths {
			if conn, err := net.Dial(network.String(), path); err == nil {
				_ = conn.Close()
				return network, path, nil
			}
		}
	}

	return libptc.NetworkEmpty, "", fmt.Errorf("hooksyslog: local syslog endpoint not found")
}
