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

// Package size provides a human-readable byte count type used for the buffer and
// message size knobs throughout the reactor, socket and httpconn packages
// (receive_buffer_size, merge_limit, max_http_message_size, max_header_line_size...).
package size

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is a byte count that marshals to/from human-readable strings such as "16KiB".
type Size int64

const (
	Octet Size = 1
	KiB        = Octet * 1024
	MiB        = KiB * 1024
	GiB        = MiB * 1024
	TiB        = GiB * 1024
)

var units = []struct {
	suffix string
	unit   Size
}{
	{"TiB", TiB},
	{"GiB", GiB},
	{"MiB", MiB},
	{"KiB", KiB},
}

// Int64 returns the size as a plain byte count.
func (s Size) Int64() int64 {
	return int64(s)
}

// Int returns the size as a plain byte count, truncated to int.
func (s Size) Int() int {
	return int(s)
}

// String renders the size using the largest unit that divides it evenly, falling
// back to a plain octet count.
func (s Size) String() string {
	for _, u := range units {
		if s != 0 && s%u.unit == 0 {
			return fmt.Sprintf("%d%s", int64(s/u.unit), u.suffix)
		}
	}
	return fmt.Sprintf("%dB", int64(s))
}

// MarshalJSON renders the size as its quoted human-readable string form.
func (s Size) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(s.String())), nil
}

// UnmarshalJSON accepts either a quoted human-readable string ("16KiB") or a raw
// byte count (16384).
func (s *Size) UnmarshalJSON(b []byte) error {
	str := strings.Trim(string(b), `"`)
	v, err := Parse(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Parse reads a human-readable size such as "16KiB", "2MiB" or a bare integer
// (interpreted as a byte count).
func Parse(s string) (Size, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			n, err := strconv.ParseInt(strings.TrimSuffix(s, u.suffix), 10, 64)
			if err != nil {
				return 0, fmt.Errorf("size: invalid value %q: %w", s, err)
			}
			return Size(n) * u.unit, nil
		}
	}

	if strings.HasSuffix(s, "B") {
		s = strings.TrimSuffix(s, "B")
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("size: invalid value %q: %w", s, err)
	}
	return Size(n), nil
}
