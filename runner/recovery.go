/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

package runner

import (
	"fmt"
	"os"
	"strings"
)

// RecoveryCaller logs a recovered panic without re-raising it. It is used at the
// boundary of every goroutine that must never take the whole process down with it:
// the logger's file/background hooks, and the TLS delegated-task executor.
func RecoveryCaller(caller string, rec any, context ...string) {
	if rec == nil {
		return
	}

	msg := fmt.Sprintf("recovered panic in %s", caller)
	if len(context) > 0 {
		msg += " (" + strings.Join(context, ", ") + ")"
	}

	_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", msg, rec)
}
