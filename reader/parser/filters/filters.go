// Package filters decodes the binary payload of stream objects
// according to the /Filter entry of their dictionary. See also 7.4
// in the PDF spec.
//
// A Chain describes the whole pipeline of one stream. Filters this
// package cannot decode do not make the chain unusable: decoding
// applies the supported leading part and the first remaining filter
// name is reported, which is enough to give the salvaged payload a
// sensible file type.
package filters

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/vasekp/pdfbreak/model"
)

// PDF defines the following filters. See also 7.4 in the PDF spec.
const (
	ASCII85   = "ASCII85Decode"
	ASCIIHex  = "ASCIIHexDecode"
	RunLength = "RunLengthDecode"
	LZW       = "LZWDecode"
	Flate     = "FlateDecode"
	DCT       = "DCTDecode"
	JPX       = "JPXDecode"
	JBIG2     = "JBIG2Decode"
	CCITTFax  = "CCITTFaxDecode"
	Crypt     = "Crypt"
)

// ErrInvalidFilter means the /Filter entry is neither absent, a name,
// nor an array of names.
var ErrInvalidFilter = errors.New("Invalid /Filter")

// DecodeError describes malformed data inside an encoded stream.
type DecodeError struct {
	Component string // codec that raised the error
	Msg       string
	Pos       int64 // position in the codec's input, -1 when unknown
}

func (e *DecodeError) Error() string {
	if e.Pos < 0 {
		return fmt.Sprintf("%s: %s", e.Component, e.Msg)
	}
	return fmt.Sprintf("%s: %s at position %d", e.Component, e.Msg, e.Pos)
}

// decodeErr normalizes err into a DecodeError unless it is one
// already, coming from an inner pipeline stage.
func decodeErr(component string, err error, pos int64) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Component: component, Msg: err.Error(), Pos: pos}
}

// A Chain is the decoding pipeline of one stream.
type Chain struct {
	stages []stage
	rest   []string
}

type stage struct {
	name  string
	parms model.Dictionary
}

// NewChain reads the filter list of dict and splits it into the
// leading run this package can decode and the remaining names.
func NewChain(dict model.Dictionary) (*Chain, error) {
	var names []string
	switch f := dict.Lookup("Filter").(type) {
	case nil:
	case model.Name:
		names = []string{string(f)}
	case model.Array:
		for _, it := range f.Items {
			n, ok := it.(model.Name)
			if !ok {
				return nil, ErrInvalidFilter
			}
			names = append(names, string(n))
		}
	default:
		return nil, ErrInvalidFilter
	}

	c := &Chain{}
	parms := dict.Lookup("DecodeParms")
	for i, name := range names {
		if !supported(name) {
			c.rest = names[i:]
			break
		}
		c.stages = append(c.stages, stage{name: name, parms: parmsAt(parms, i)})
	}
	return c, nil
}

func supported(name string) bool {
	switch name {
	case ASCII85, ASCIIHex, RunLength, LZW, Flate:
		return true
	}
	return false
}

// parmsAt extracts the parameter dictionary of the i-th filter.
// /DecodeParms may be a single dictionary, an array with null
// placeholders, or absent; anything unusable counts as no
// parameters.
func parmsAt(parms model.Object, i int) model.Dictionary {
	switch p := parms.(type) {
	case model.Dictionary:
		if i == 0 {
			return p
		}
	case model.Array:
		if i < len(p.Items) {
			if d, ok := p.Items[i].(model.Dictionary); ok {
				return d
			}
		}
	}
	return model.Dictionary{}
}

// Complete reports whether the whole pipeline is decoded.
func (c *Chain) Complete() bool { return len(c.rest) == 0 }

// Remaining returns the filter the pipeline stops at, "" when the
// chain is complete.
func (c *Chain) Remaining() string {
	if len(c.rest) == 0 {
		return ""
	}
	return c.rest[0]
}

// Extension suggests a file type for the decoded output: the image
// format when the remaining filter wraps a self-contained codec, a
// generic one otherwise.
func (c *Chain) Extension() string {
	switch c.Remaining() {
	case DCT:
		return "jpg"
	case JBIG2:
		return "jbig2"
	case JPX:
		return "jpx"
	}
	return "data"
}

// Decode stacks the supported decoders onto r in filter order. Reads
// from the returned reader yield a DecodeError on malformed data.
func (c *Chain) Decode(r io.Reader) (io.Reader, error) {
	var err error
	for _, s := range c.stages {
		switch s.name {
		case Flate:
			r, err = flateReader(r)
		case LZW:
			r = lzwReader(r, s.parms)
		case ASCIIHex:
			r, err = asciiHexReader(r)
		case ASCII85:
			r, err = ascii85Reader(r)
		case RunLength:
			r, err = runLengthReader(r)
		}
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DecodeBytes runs data through the whole pipeline at once.
func (c *Chain) DecodeBytes(data []byte) ([]byte, error) {
	r, err := c.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// countReader tracks how many bytes a decoder consumed from its
// input, for error positions.
type countReader struct {
	src       io.Reader
	totalRead int64
}

func (c *countReader) Read(p []byte) (int, error) {
	n, err := c.src.Read(p)
	c.totalRead += int64(n)
	return n, err
}

// decodeReader attributes read errors to the codec raising them.
// Due to buffering the reported position may point slightly past
// the offending byte.
type decodeReader struct {
	src       io.Reader
	component string
	in        *countReader
}

func (d *decodeReader) Read(p []byte) (int, error) {
	n, err := d.src.Read(p)
	if err != nil && err != io.EOF {
		err = decodeErr(d.component, err, d.in.totalRead)
	}
	return n, err
}
