package chunk

import (
	"github.com/tidwall/gjson"
)

// Estimate returns the approximate character length of entry when serialized
// with ", " and ": " separators and non-ASCII text left unescaped. The result
// depends only on the entry's content, not on its formatting or key order.
func Estimate(entry []byte) int {
	return measure(gjson.ParseBytes(entry))
}

func measure(v gjson.Result) int {
	switch v.Type {
	case gjson.String:
		return quotedLen(v.Str)
	case gjson.Number:
		return len([]rune(v.Raw))
	case gjson.True, gjson.Null:
		return 4
	case gjson.False:
		return 5
	}

	if !v.IsObject() && !v.IsArray() {
		return 0
	}
	n := 2 // brackets
	first := true
	object := v.IsObject()
	v.ForEach(func(key, value gjson.Result) bool {
		if !first {
			n += 2 // ", "
		}
		first = false
		if object {
			n += quotedLen(key.Str) + 2 // ": "
		}
		n += measure(value)
		return true
	})
	return n
}

// quotedLen is the length of s as a JSON string literal, quotes included.
func quotedLen(s string) int {
	n := 2
	for _, r := range s {
		switch {
		case r == '"' || r == '\\':
			n += 2
		case r == '\n' || r == '\r' || r == '\t' || r == '\b' || r == '\f':
			n += 2
		case r < 0x20:
			n += 6
		default:
			n++
		}
	}
	return n
}
