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

// Package hooksyslog provides a logrus hook writing log entries to a syslog
// endpoint, local or remote.
//
// Each entry is rendered with the configured logrus formatter, wrapped into an
// RFC 5424 message (priority, timestamp, hostname, tag, pid) and handed to a
// shared, buffered aggregator. Hooks targeting the same endpoint (same
// protocol and address) share one network connection and one aggregator; the
// connection is reference-counted and released when the last hook closes.
//
// The endpoint is dialed with the standard net package. When no host is
// configured, the local syslog daemon is auto-discovered by probing the
// well-known Unix domain socket paths (Unix only; on Windows a remote endpoint
// must be configured). Failed writes trigger one reconnect attempt before the
// error is surfaced, and a hook whose aggregator has been closed re-registers
// itself transparently on the next write.
//
// The hook is registered through the logger configuration
// (logcfg.OptionsSyslog); see New for the supported options.
package hooksyslog
