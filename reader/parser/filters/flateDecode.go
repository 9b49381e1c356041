package filters

import (
	"compress/zlib"
	"io"
)

// flateReader decodes a FlateDecode (RFC 1950) stream.
func flateReader(r io.Reader) (io.Reader, error) {
	in := &countReader{src: r}
	z, err := zlib.NewReader(in)
	if err != nil {
		return nil, decodeErr("zlib", err, in.totalRead)
	}
	return &decodeReader{src: z, component: "zlib", in: in}, nil
}
