package filters

import (
	"bytes"
	"io"
)

// runLengthReader decodes a RunLengthDecode stream: a length byte
// below 128 copies that many plus one literal bytes, above 128 the
// following byte is repeated 257 minus length times, 128 ends the
// data. A missing end marker is tolerated.
func runLengthReader(r io.Reader) (io.Reader, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	out, err := runLengthDecode(src)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(out), nil
}

func runLengthDecode(src []byte) ([]byte, error) {
	var out []byte
	for i := 0; i < len(src); {
		l := int(src[i])
		i++
		switch {
		case l == 128:
			return out, nil
		case l < 128:
			if i+l+1 > len(src) {
				return nil, &DecodeError{Component: "runlength", Msg: "unexpected end of data", Pos: int64(i - 1)}
			}
			out = append(out, src[i:i+l+1]...)
			i += l + 1
		default:
			if i >= len(src) {
				return nil, &DecodeError{Component: "runlength", Msg: "unexpected end of data", Pos: int64(i - 1)}
			}
			out = append(out, bytes.Repeat(src[i:i+1], 257-l)...)
			i++
		}
	}
	return out, nil
}
