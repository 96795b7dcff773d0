package utils

import (
	"io"
)

// maxDrain bounds how much of an unread body is discarded before closing,
// so a misbehaving server cannot keep us reading forever.
const maxDrain = 64 << 10

// DrainClose discards what is left of an HTTP response body and closes it,
// which lets the transport reuse the connection.
func DrainClose(rc io.ReadCloser) {
	if rc == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, maxDrain))
	_ = rc.Close()
}
