package filters

import (
	"bytes"
	"fmt"
	"io"

	"github.com/vasekp/pdfbreak/reader/parser/tokenizer"
)

// asciiHexReader decodes an ASCIIHexDecode stream. Data ends at the
// > marker or at the end of input; an odd trailing digit is padded
// with a zero nibble and whitespace between digits is ignored.
func asciiHexReader(r io.Reader) (io.Reader, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	out, err := asciiHexDecode(src)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(out), nil
}

func asciiHexDecode(src []byte) ([]byte, error) {
	out := make([]byte, 0, len(src)/2)
	var d byte
	odd := false
	for i := 0; i < len(src); i++ {
		b := src[i]
		if b == '>' {
			break
		}
		if v, ok := hexVal(b); ok {
			d = 16*d + v
			if odd {
				out = append(out, d)
				d = 0
			}
			odd = !odd
			continue
		}
		if tokenizer.IsWhitespace(b) {
			continue
		}
		return nil, &DecodeError{Component: "asciihex", Msg: fmt.Sprintf("invalid character %q", b), Pos: int64(i)}
	}
	if odd {
		out = append(out, 16*d)
	}
	return out, nil
}

func hexVal(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	}
	return 0, false
}
