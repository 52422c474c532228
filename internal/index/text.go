package index

import (
	"strings"

	"github.com/tidwall/gjson"
)

const maxTextSize = 8 * 1024 // 8KB per entry for the FTS index

// EntryText collects the string values of an entry, depth first, one per
// line. Keys and non-string values are left out of the search text.
func EntryText(raw []byte) string {
	var parts []string
	collectStrings(gjson.ParseBytes(raw), &parts)
	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if len(text) > maxTextSize {
		text = strings.ToValidUTF8(text[:maxTextSize], "")
	}
	return text
}

func collectStrings(v gjson.Result, parts *[]string) {
	switch {
	case v.Type == gjson.String:
		if s := strings.TrimSpace(v.Str); s != "" {
			*parts = append(*parts, s)
		}
	case v.IsObject() || v.IsArray():
		v.ForEach(func(_, value gjson.Result) bool {
			collectStrings(value, parts)
			return true
		})
	}
}
