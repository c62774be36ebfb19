package winsvc

import "unicode/utf16"

// maxArgLen bounds the number of UTF-16 units scanned per service
// argument. The SCM hands the entry point raw NUL-terminated string
// pointers with no length; a missing terminator must not turn into an
// unbounded memory scan.
const maxArgLen = 32 * 1024

// decodeArg decodes one service argument from a bounded UTF-16 window.
// The argument ends at the first NUL; if none is present within the
// window the truncated value is returned.
func decodeArg(buf []uint16) string {
	for i, c := range buf {
		if c == 0 {
			buf = buf[:i]
			break
		}
	}
	return string(utf16.Decode(buf))
}
