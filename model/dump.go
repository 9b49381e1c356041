package model

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Dump writes the canonical serialization of obj to w, starting at
// indentation level 0.
func Dump(w io.Writer, obj Object) error {
	d := newDumper(w)
	obj.write(d, 0)
	return d.flush()
}

// DumpTopLevel writes the serialization of a file-level construct to
// w, including the trailing newline.
func DumpTopLevel(w io.Writer, tlo TopLevelObject) error {
	d := newDumper(w)
	tlo.writeTopLevel(d)
	return d.flush()
}

// dumper buffers output and latches the first write error, so the
// per-variant writers stay free of error plumbing.
type dumper struct {
	w   *bufio.Writer
	err error
}

func newDumper(w io.Writer) *dumper {
	return &dumper{w: bufio.NewWriter(w)}
}

func (d *dumper) flush() error {
	if d.err != nil {
		return d.err
	}
	return d.w.Flush()
}

func (d *dumper) raw(b []byte) {
	if d.err == nil {
		_, d.err = d.w.Write(b)
	}
}

func (d *dumper) str(s string) {
	if d.err == nil {
		_, d.err = d.w.WriteString(s)
	}
}

func (d *dumper) printf(format string, args ...interface{}) {
	if d.err == nil {
		_, d.err = fmt.Fprintf(d.w, format, args...)
	}
}

// offset writes text preceded by two spaces per indentation level.
func (d *dumper) offset(indent int, text string) {
	d.str(strings.Repeat("  ", indent))
	d.str(text)
}

func (Null) write(d *dumper, indent int) {
	d.offset(indent, "null")
}

func (o Invalid) write(d *dumper, indent int) {
	d.offset(indent, "null")
	d.str("\n")
	d.offset(indent, "% !!! "+o.Err)
}

func (o Boolean) write(d *dumper, indent int) {
	if o {
		d.offset(indent, "true")
	} else {
		d.offset(indent, "false")
	}
}

func (n Numeric) write(d *dumper, indent int) {
	d.offset(indent, n.String())
}

func (s String) write(d *dumper, indent int) {
	if s.Hex {
		d.offset(indent, "< ")
		for _, c := range s.Val {
			d.printf("%02X ", c)
		}
		d.str(">")
	} else {
		d.offset(indent, "(")
		for _, c := range s.Val {
			if c >= 32 && c <= 127 && c != '(' && c != ')' && c != '\\' {
				d.raw([]byte{c})
			} else {
				d.printf("\\%03o", c)
			}
		}
		d.str(")")
	}
	if s.Err != "" {
		d.str("\n")
		d.offset(indent, "% !!! "+s.Err)
	}
}

func (n Name) write(d *dumper, indent int) {
	d.offset(indent, "/"+string(n))
}

func (a Array) write(d *dumper, indent int) {
	d.offset(indent, "[\n")
	for _, o := range a.Items {
		o.write(d, indent+1)
		d.str("\n")
	}
	if a.Err != "" {
		d.offset(indent+1, "% !!! "+a.Err+"\n")
	}
	d.offset(indent, "]")
}

func (o Dictionary) write(d *dumper, indent int) {
	d.offset(indent, "<<\n")
	keys := make([]Name, 0, len(o.Entries))
	for k := range o.Entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		d.offset(indent+1, "/"+string(k)+"\n")
		o.Entries[k].write(d, indent+2)
		d.str("\n")
	}
	if o.Err != "" {
		d.offset(indent+1, "% !!! "+o.Err+"\n")
	}
	d.offset(indent, ">>")
}

func (s Stream) write(d *dumper, indent int) {
	s.Dict.write(d, indent)
	d.str("\n")
	d.offset(indent, "stream\n")
	d.raw(s.Data)
	d.str("\n")
	d.offset(indent, "endstream")
	if s.Err != "" {
		d.str("\n")
		d.offset(indent, "% !!! "+s.Err)
	}
}

func (o Indirect) write(d *dumper, indent int) {
	d.offset(indent, "")
	d.printf("%d %d R", o.Num, o.Gen)
}

func (Null) writeTopLevel(d *dumper) {
	d.str("null\n")
}

func (o Invalid) writeTopLevel(d *dumper) {
	o.write(d, 0)
	d.str("\n")
}

func (n NamedObject) writeTopLevel(d *dumper) {
	d.printf("%d %d obj\n", n.Num, n.Gen)
	n.Contents.write(d, 1)
	d.str("\n")
	if n.Err != "" {
		d.str("% !!! " + n.Err + "\n")
	}
	d.str("endobj\n")
}

func (t XRefTable) writeTopLevel(d *dumper) {
	d.str("xref\n")
	for _, s := range t.Sections {
		d.printf("%d %d\n", s.Start, s.Count)
		d.raw(s.Data)
	}
}

func (t Trailer) writeTopLevel(d *dumper) {
	d.str("trailer\n")
	t.Dict.write(d, 1)
	d.str("\n")
}

func (s StartXRef) writeTopLevel(d *dumper) {
	d.printf("startxref\n%d\n%%%%EOF\n", s.Offset)
}
