// Package reader processes a PDF file at the level of its top-level
// constructs: named objects, cross-reference tables, trailer
// dictionaries and startxref markers, in the order they appear in the
// file and independently of the cross-reference data.
//
// Damage is contained, never fatal: a broken construct comes back as
// Invalid (or as a partial object with an error annotation) and the
// caller decides whether to resynchronize with SkipToEndobj and go
// on reading.
package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/log"

	"github.com/vasekp/pdfbreak/model"
	"github.com/vasekp/pdfbreak/reader/parser"
	"github.com/vasekp/pdfbreak/reader/parser/tokenizer"
)

// ErrNoHeader means the input does not start with a %PDF-M.m line.
var ErrNoHeader = errors.New("pdf: no file header")

// Reader reads the sequence of top-level constructs of a PDF file.
type Reader struct {
	tokens  *tokenizer.Tokenizer
	objects *parser.Parser
}

// NewReader returns a reader consuming src from its current position.
func NewReader(src tokenizer.ByteSource) *Reader {
	tk := tokenizer.NewTokenizer(src)
	return &Reader{tokens: tk, objects: parser.NewParserFromTokenizer(tk)}
}

// ReadVersion reads the %PDF-M.m header line. When the input does not
// begin with a percent sign nothing is consumed; otherwise the whole
// line is, even if it does not carry a well-formed version.
func (r *Reader) ReadVersion() (model.Version, error) {
	src := r.tokens.Source()
	b, err := src.ReadByte()
	if err != nil {
		return model.Version{}, ErrNoHeader
	}
	src.UnreadByte()
	if b != '%' {
		return model.Version{}, ErrNoHeader
	}
	line := tokenizer.ReadRawLine(src)
	v, err := model.ParseVersion(string(line))
	if err != nil {
		return model.Version{}, ErrNoHeader
	}
	log.Read.Printf("ReadVersion: %s\n", v)
	return v, nil
}

// Next reads the next top-level construct. At the end of input it
// returns Null; a construct that cannot be identified at all yields
// Invalid with the offending token left unconsumed, so the caller
// must advance (typically with SkipToEndobj) before calling Next
// again.
func (r *Reader) Next() model.TopLevelObject {
	t := r.tokens.Peek()
	if t == "" {
		return model.Null{}
	} else if model.NewNumeric(t).IsUint() {
		return r.parseNamedObject()
	} else if t == "xref" {
		return r.parseXRefTable()
	} else if t == "trailer" {
		return r.parseTrailer()
	} else if t == "startxref" {
		return r.parseStartXRef()
	}
	log.Read.Printf("Next: garbage token <%s>\n", t)
	return model.Invalid{Err: fmt.Sprintf("Garbage or unexpected token at %d", r.tokens.LastPos())}
}

func (r *Reader) parseNamedObject() model.TopLevelObject {
	num := model.NewNumeric(r.tokens.Read())
	if !num.IsUint() {
		return model.Invalid{Err: fmt.Sprintf("Misshaped named object header (num) at %d", r.tokens.LastPos())}
	}
	gen := model.NewNumeric(r.tokens.Read())
	if !gen.IsUint() {
		return model.Invalid{Err: fmt.Sprintf("Misshaped named object header (gen) at %d", r.tokens.LastPos())}
	}
	if t := r.tokens.Read(); t != "obj" {
		return model.Invalid{Err: fmt.Sprintf("Misshaped named object header (obj) at %d", r.tokens.LastPos())}
	}
	log.Read.Printf("parseNamedObject: %d %d obj\n", num.Uint(), gen.Uint())
	contents := r.objects.ParseObject()
	if dict, ok := contents.(model.Dictionary); ok && r.tokens.Peek() == "stream" {
		contents = r.parseStream(dict)
	}
	var errStr string
	if t := r.tokens.Read(); t != "endobj" {
		if t == "" {
			errStr = "End of input where endobj expected"
		} else {
			errStr = fmt.Sprintf("endobj not found at %d", r.tokens.LastPos())
		}
	}
	return model.NamedObject{Num: num.Uint(), Gen: gen.Uint(), Contents: contents, Err: errStr}
}

// parseStream reads the payload after a stream keyword. With a usable
// /Length entry exactly that many bytes are taken; otherwise the
// payload is delimited by scanning for the endstream keyword, and one
// line terminator before it is not part of the data.
func (r *Reader) parseStream(dict model.Dictionary) model.Object {
	r.tokens.Read()
	src := r.tokens.Source()
	tokenizer.SkipToLF(src)
	var data []byte
	var errStr string
	if oLen, ok := dict.Lookup("Length").(model.Numeric); ok && oLen.IsUint() {
		length := oLen.Uint()
		data = make([]byte, length)
		n, _ := io.ReadFull(src, data)
		log.Read.Printf("parseStream: length %d, read %d\n", length, n)
		if uint64(n) < length {
			data = data[:n]
			errStr = fmt.Sprintf("End of input during reading stream data, read %d bytes", n)
		} else if t := r.tokens.Read(); t != "endstream" {
			errStr = fmt.Sprintf("endstream not found at %d", r.tokens.LastPos())
		}
	} else {
		sep := []byte("endstream")
		var line []byte
		for line = tokenizer.ReadRawLine(src); len(line) > 0; line = tokenizer.ReadRawLine(src) {
			// The keyword need not be alone on its line, especially in
			// a file that is broken anyway.
			off := bytes.Index(line, sep)
			if off < 0 {
				data = append(data, line...)
				continue
			}
			data = append(data, line[:off]...)
			if off+len(sep) == len(line) {
				break
			}
			src.Seek(int64(off+len(sep)-len(line)), io.SeekCurrent)
			if b, err := src.ReadByte(); err == nil {
				src.UnreadByte()
				if tokenizer.IsRegular(b) {
					// False alarm, the keyword continues as a longer
					// token. Keep it as data and carry on.
					data = append(data, sep...)
					continue
				}
			}
			break
		}
		if len(line) == 0 {
			errStr = "End of input during reading stream data"
		}
		data = tokenizer.TrimEOL(data)
		log.Read.Printf("parseStream: scanned %d bytes\n", len(data))
	}
	return model.Stream{Dict: dict, Data: data, Err: errStr}
}

func (r *Reader) parseXRefTable() model.TopLevelObject {
	r.tokens.Read()
	src := r.tokens.Source()
	tokenizer.SkipLine(src)
	var sections []model.XRefSection
	for {
		t := r.tokens.Peek()
		if t == "" {
			return model.Invalid{Err: "End of input while reading xref table"}
		}
		if t == "trailer" {
			break
		}
		r.tokens.Read()
		start := model.NewNumeric(t)
		if !start.IsUint() {
			return model.Invalid{Err: fmt.Sprintf("Broken xref subsection header (start) at %d", r.tokens.LastPos())}
		}
		count := model.NewNumeric(r.tokens.Read())
		if !count.IsUint() {
			return model.Invalid{Err: fmt.Sprintf("Broken xref subsection header (count) at %d", r.tokens.LastPos())}
		}
		tokenizer.SkipLine(src)
		data := make([]byte, 20*count.Uint())
		if n, _ := io.ReadFull(src, data); n < len(data) {
			return model.Invalid{Err: "End of input while reading xref table"}
		}
		log.Read.Printf("parseXRefTable: section %d+%d\n", start.Uint(), count.Uint())
		sections = append(sections, model.XRefSection{Start: start.Uint(), Count: count.Uint(), Data: data})
	}
	return model.XRefTable{Sections: sections}
}

// parseTrailer records the offset of the dictionary, not of the
// trailer keyword.
func (r *Reader) parseTrailer() model.TopLevelObject {
	r.tokens.Read()
	r.tokens.Peek()
	start := r.tokens.LastPos()
	return model.Trailer{Dict: r.objects.ParseObject(), Start: start}
}

func (r *Reader) parseStartXRef() model.TopLevelObject {
	r.tokens.Read()
	num := model.NewNumeric(r.tokens.Read())
	if !num.IsUint() {
		return model.Invalid{Err: fmt.Sprintf("Broken startxref at %d", r.tokens.LastPos())}
	}
	return model.StartXRef{Offset: int64(num.Uint())}
}

// SkipToEndobj scans forward for an endobj keyword and leaves the
// input positioned just behind it. A pending unconsumed token is
// rescanned, so a stray endobj that stopped Next is swallowed here.
// Reports whether the keyword was found before the end of input.
func (r *Reader) SkipToEndobj() bool {
	src := r.tokens.Source()
	sep := []byte("endobj")
	for line := tokenizer.ReadRawLine(src); len(line) > 0; line = tokenizer.ReadRawLine(src) {
		off := bytes.Index(line, sep)
		if off < 0 {
			continue
		}
		if off+len(sep) == len(line) {
			return true
		}
		src.Seek(int64(off+len(sep)-len(line)), io.SeekCurrent)
		if b, err := src.ReadByte(); err == nil {
			src.UnreadByte()
			if tokenizer.IsRegular(b) {
				continue
			}
		}
		return true
	}
	return false
}
