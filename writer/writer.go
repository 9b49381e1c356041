// Package writer reassembles top-level constructs into a single well
// formed file: the named objects of all inputs in order, one fresh
// cross-reference table covering them, a trailer and the startxref
// epilogue. Cross-reference tables and startxref markers of the
// inputs are dropped, their offsets being meaningless after
// reassembly; the last trailer dictionary seen is carried over with
// its /Size refreshed.
package writer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/log"

	"github.com/vasekp/pdfbreak/model"
)

// An Assembler writes constructs to dst as they are added and keeps
// the bookkeeping needed to synthesize the file epilogue. Write
// errors are latched: once one occurs all further output is dropped
// and Close reports it.
type Assembler struct {
	dst     io.Writer
	err     error
	written int64

	offsets map[model.ObjRef]int64
	trailer model.Object
}

func New(dst io.Writer) *Assembler {
	return &Assembler{dst: dst, offsets: make(map[model.ObjRef]int64)}
}

// Write counts and forwards to the underlying writer, so the model
// serializers can be pointed at the assembler directly.
func (a *Assembler) Write(p []byte) (int, error) {
	if a.err != nil {
		return 0, a.err
	}
	n, err := a.dst.Write(p)
	a.written += int64(n)
	if err != nil {
		a.err = err
	}
	return n, err
}

// WriteHeader emits the version line and the binary comment. Call it
// once, before the first Add.
func (a *Assembler) WriteHeader(v model.Version) {
	if a.err != nil {
		return
	}
	if err := model.WriteHeader(a, v); err != nil {
		a.err = err
	}
}

// Add appends one construct to the output. Named objects are written
// and their offsets recorded under (number, generation); a repeated
// pair keeps the last occurrence. A trailer is held back until Close,
// replacing any earlier one. Cross-reference tables and startxref
// markers are dropped.
func (a *Assembler) Add(obj model.TopLevelObject) {
	switch o := obj.(type) {
	case model.NamedObject:
		a.offsets[o.Ref()] = a.written
		log.Write.Printf("Add: %d %d obj at %d\n", o.Num, o.Gen, a.written)
		model.DumpTopLevel(a, o)
		a.Write([]byte("\n"))
	case model.Trailer:
		log.Write.Printf("Add: keeping trailer dictionary\n")
		a.trailer = o.Dict
	case model.XRefTable, model.StartXRef:
		log.Write.Printf("Add: dropping stale %T\n", o)
	case model.Invalid:
		log.Write.Printf("Add: dropping invalid construct (%s)\n", o.Err)
	case model.Null:
	}
}

// Close synthesizes the cross-reference table, the trailer and the
// startxref epilogue, and reports the first error of the whole run.
// The underlying writer is left open.
func (a *Assembler) Close() error {
	start := a.written

	// One table entry per object number. When a number was written
	// under several generations the highest one is listed; all bodies
	// are in the file regardless.
	type entry struct {
		offset int64
		gen    uint64
	}
	var maxNum uint64
	best := make(map[uint64]entry)
	for ref, off := range a.offsets {
		if ref.Num > maxNum {
			maxNum = ref.Num
		}
		if e, ok := best[ref.Num]; !ok || ref.Gen > e.gen {
			best[ref.Num] = entry{offset: off, gen: ref.Gen}
		}
	}
	size := maxNum + 1

	// Unlisted numbers become free entries forming the customary
	// linked list: each holds the next free number, the last one
	// loops back to object 0. Entry 0 is always free.
	links := make(map[uint64]uint64)
	next := uint64(0)
	for num := maxNum; num > 0; num-- {
		if _, ok := best[num]; !ok {
			links[num] = next
			next = num
		}
	}
	links[0] = next

	var b bytes.Buffer
	for num := uint64(0); num <= maxNum; num++ {
		if e, ok := best[num]; ok && num != 0 {
			fmt.Fprintf(&b, "%010d %05d n \n", e.offset, e.gen)
		} else {
			fmt.Fprintf(&b, "%010d 65535 f \n", links[num])
		}
	}
	model.DumpTopLevel(a, model.XRefTable{Sections: []model.XRefSection{
		{Start: 0, Count: size, Data: b.Bytes()},
	}})
	model.DumpTopLevel(a, model.Trailer{Dict: a.trailerDict(size)})
	model.DumpTopLevel(a, model.StartXRef{Offset: start})
	log.Write.Printf("Close: %d objects, xref at %d\n", len(a.offsets), start)
	return a.err
}

// trailerDict returns the dictionary for the output trailer: the one
// kept from the inputs with /Size refreshed, or a minimal one when
// none was seen. A trailer that did not parse into a dictionary is
// passed through untouched.
func (a *Assembler) trailerDict(size uint64) model.Object {
	sizeEntry := model.Numeric{Val: int64(size)}
	switch d := a.trailer.(type) {
	case nil:
		return model.Dictionary{Entries: map[model.Name]model.Object{"Size": sizeEntry}}
	case model.Dictionary:
		entries := make(map[model.Name]model.Object, len(d.Entries)+1)
		for k, v := range d.Entries {
			entries[k] = v
		}
		entries["Size"] = sizeEntry
		return model.Dictionary{Entries: entries, Err: d.Err}
	default:
		return a.trailer
	}
}
