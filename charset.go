package gomysql

import "github.com/gomysql/gomysql/internal/connstate"

// Charset describes a character set / collation pairing. BytesPerChar
// is the charset's maximum character width in bytes; the SQL formatter
// walks string literals byte by byte and does not read it.
type Charset = connstate.Charset

// Commonly used character sets, with their default collation IDs.
var (
	CharsetUtf8mb4 = Charset{Name: "utf8mb4", CollationID: 45, BytesPerChar: 4}
	CharsetUtf8    = Charset{Name: "utf8", CollationID: 33, BytesPerChar: 3}
	CharsetLatin1  = Charset{Name: "latin1", CollationID: 8, BytesPerChar: 1}
	CharsetASCII   = Charset{Name: "ascii", CollationID: 11, BytesPerChar: 1}
	CharsetBinary  = Charset{Name: "binary", CollationID: 63, BytesPerChar: 1}
)

// DefaultCollation is the connection collation used when ConnectParams
// leaves it unset (utf8mb4_general_ci).
const DefaultCollation uint8 = 45

// charsetForCollation maps the collation IDs this package knows back to
// their charset descriptor, so the connection's current charset can be
// initialized from the configured collation after the handshake.
func charsetForCollation(id uint8) *Charset {
	for _, cs := range []Charset{CharsetUtf8mb4, CharsetUtf8, CharsetLatin1, CharsetASCII, CharsetBinary} {
		if cs.CollationID == uint16(id) {
			c := cs
			return &c
		}
	}
	return &Charset{CollationID: uint16(id), BytesPerChar: 1}
}
