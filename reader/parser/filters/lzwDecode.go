package filters

import (
	"io"

	"github.com/hhrutter/lzw"

	"github.com/vasekp/pdfbreak/model"
)

// lzwReader decodes an LZWDecode stream. The only parameter honored
// is /EarlyChange, written as an integer with default 1 (on).
func lzwReader(r io.Reader, parms model.Dictionary) io.Reader {
	earlyChange := true
	if n, ok := parms.Lookup("EarlyChange").(model.Numeric); ok && n.Integral() && n.Val == 0 {
		earlyChange = false
	}
	in := &countReader{src: r}
	return &decodeReader{src: lzw.NewReader(in, earlyChange), component: "lzw", in: in}
}
