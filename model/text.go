package model

import "golang.org/x/text/encoding/unicode"

var utf16 = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)

// Text interprets the string as PDF text: UTF-16BE when the byte
// order mark is present, raw bytes otherwise. Used for diagnostics
// only; no PDFDocEncoding mapping is attempted.
func (s String) Text() string {
	if len(s.Val) >= 2 && s.Val[0] == 0xFE && s.Val[1] == 0xFF {
		if out, err := utf16.NewDecoder().Bytes(s.Val); err == nil {
			return string(out)
		}
	}
	return string(s.Val)
}
