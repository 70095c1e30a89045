// Package codec implements the Canonical Codec: a deterministic byte
// encoding for values built from integers, strings, booleans, ordered
// sequences, and string-keyed mappings, plus the SHA-256 fingerprint over
// that encoding.
//
// This is a hand-rolled encoder rather than a dependency on
// github.com/gowebpki/jcs (RFC 8785). RFC 8785 canonicalizes JSON numbers
// by round-tripping them through IEEE-754 float64, which cannot be
// trusted to preserve large or negative integer cents values exactly, and
// this codec's one job is exact, float-free, byte-identical reproduction
// across platforms. See DESIGN.md for the full justification.
package codec

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Value is the closed set of types the Canonical Codec accepts: nil,
// bool, int64, string, []Value, and map[string]Value. Constructing a
// Value outside these shapes via the helpers below is the only supported
// path; Marshal also accepts a plain int and rejects anything else.
type Value interface{}

// Null is the canonical null literal.
var Null Value = nil

// Bool wraps a boolean as a Value.
func Bool(b bool) Value { return b }

// Int wraps a signed integer as a Value. Integers are always encoded in
// decimal without leading zeros.
func Int(n int64) Value { return n }

// Str wraps a string as a Value.
func Str(s string) Value { return s }

// Arr builds an ordered sequence Value. Order is preserved as given;
// callers are responsible for any sequence-level ordering the format
// requires (e.g. sorted event IDs).
func Arr(items ...Value) Value {
	out := make([]Value, len(items))
	copy(out, items)
	return out
}

// Obj builds a mapping Value. Keys are sorted lexicographically at
// encoding time regardless of the order m is constructed in.
func Obj(m map[string]Value) Value { return m }

// Marshal produces the canonical byte form of v: mapping keys sorted
// lexicographically, no insignificant whitespace, integers in decimal
// without leading zeros, strings with standard JSON escaping, booleans as
// the fixed literals true/false.
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := write(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Fingerprint returns the lowercase hex SHA-256 digest of v's canonical
// encoding, along with the encoding itself.
func Fingerprint(v Value) (hexDigest string, canonical []byte, err error) {
	canonical, err = Marshal(v)
	if err != nil {
		return "", nil, err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), canonical, nil
}

func write(buf *bytes.Buffer, v Value) error {
	switch x := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if x {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case int64:
		fmt.Fprintf(buf, "%d", x)
	case int:
		fmt.Fprintf(buf, "%d", x)
	case string:
		return writeString(buf, x)
	case []Value:
		buf.WriteByte('[')
		for i, item := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := write(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]Value:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := write(buf, x[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("codec: unsupported value type %T", v)
	}
	return nil
}

// writeString reuses encoding/json's string escaping (backslash/quote/
// control-character escaping per RFC 8259), which is a fixed,
// deterministic function of the input and matches the "standard
// escaping" wording in the codec's contract.
func writeString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
