package engine

import (
	"encoding/json"
	"unicode/utf16"
)

// Checksum folds the JSON encoding of s, with the checksum field left out,
// into a 32-bit rolling hash: h = h*31 + unit over UTF-16 code units,
// wrapping on overflow. s itself is not modified.
func Checksum(s *Snapshot) (int32, error) {
	c := *s
	c.Checksum = 0
	data, err := json.Marshal(&c)
	if err != nil {
		return 0, err
	}
	return foldHash(string(data)), nil
}

func foldHash(text string) int32 {
	var h int32
	for _, unit := range utf16.Encode([]rune(text)) {
		h = (h << 5) - h + int32(unit)
	}
	return h
}
