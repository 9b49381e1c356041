package filters

import (
	"bytes"
	"encoding/ascii85"
	"io"
)

// ascii85Reader decodes an ASCII85Decode stream up to its ~> marker.
func ascii85Reader(r io.Reader) (io.Reader, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if i := bytes.Index(src, []byte("~>")); i >= 0 {
		src = src[:i]
	}
	out, err := io.ReadAll(ascii85.NewDecoder(bytes.NewReader(src)))
	if err != nil {
		return nil, decodeErr("ascii85", err, -1)
	}
	return bytes.NewReader(out), nil
}
