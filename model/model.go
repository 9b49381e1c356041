// Package model defines the object graph produced by the parser and
// its canonical text serialization.
//
// Object covers the values appearing inside PDF bodies (booleans,
// numbers, strings, names, arrays, dictionaries, streams, indirect
// references). TopLevelObject covers the file-level constructs
// (named objects, cross-reference tables, trailers, the startxref
// epilogue). Both are closed sums: nodes outside this package cannot
// implement them.
//
// Nodes are tolerant by construction. A malformed piece of input
// does not abort parsing; instead the enclosing node carries a
// position-annotated error string and Failed reports true. Such
// nodes still serialize, with the error attached as a "% !!! "
// comment.
package model

import "strconv"

// Object is a single PDF object.
type Object interface {
	// Failed reports whether the node carries a parse error.
	Failed() bool

	write(d *dumper, indent int)
}

// Null is the PDF null object. It doubles as the end-of-input
// sentinel when returned in top-level position.
type Null struct{}

// Boolean is the PDF true/false object.
type Boolean bool

// Numeric is a PDF number, stored as a scaled integer: Val holds the
// digits with the decimal point removed and Dp counts the digits
// belonging to the fractional part. Dp == 0 means the number is
// integral; Dp < 0 marks a failed construction.
type Numeric struct {
	Val int64
	Dp  int
}

// NewNumeric parses a number token. Empty input, stray characters or
// a second decimal point yield the failed state.
func NewNumeric(tok string) Numeric {
	if tok == "" {
		return Numeric{Dp: -1}
	}
	digits := tok
	dp := 0
	for i := 0; i < len(tok); i++ {
		if tok[i] == '.' {
			digits = tok[:i] + tok[i+1:]
			dp = len(tok) - i - 1
			break
		}
	}
	val, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return Numeric{Dp: -1}
	}
	return Numeric{Val: val, Dp: dp}
}

// Integral reports whether the number has no fractional digits.
func (n Numeric) Integral() bool { return n.Dp == 0 }

// IsUint reports whether the number is a non-negative integer.
func (n Numeric) IsUint() bool { return n.Dp == 0 && n.Val >= 0 }

// Uint returns the value as an unsigned integer. Only meaningful
// when IsUint reports true.
func (n Numeric) Uint() uint64 { return uint64(n.Val) }

// String formats the number in PDF surface syntax. The zero padding
// guarantees at least one digit before the decimal point.
func (n Numeric) String() string {
	s := strconv.FormatInt(n.Val, 10)
	if n.Dp <= 0 {
		return s
	}
	digits := len(s)
	if n.Val < 0 {
		digits--
	}
	for ; digits <= n.Dp; digits++ {
		if n.Val < 0 {
			s = s[:1] + "0" + s[1:]
		} else {
			s = "0" + s
		}
	}
	pos := len(s) - n.Dp
	return s[:pos] + "." + s[pos:]
}

// String is a PDF string. Val holds the decoded bytes; Hex records
// whether the source used the hexadecimal form, which is preserved
// on output.
type String struct {
	Val []byte
	Hex bool
	Err string
}

// Name is a PDF name, stored without the leading slash.
type Name string

// Array is a PDF array. A failed element is kept in Items; Err then
// records where parsing stopped.
type Array struct {
	Items []Object
	Err   string
}

// Dictionary is a PDF dictionary. Keys are unique; on a duplicate
// the first entry wins and Err records the collision.
type Dictionary struct {
	Entries map[Name]Object
	Err     string
}

// Lookup returns the value stored under key, or nil when absent.
func (d Dictionary) Lookup(key Name) Object {
	return d.Entries[key]
}

// Stream is a dictionary with an attached raw payload. Data holds
// the undecoded bytes exactly as they appeared between the stream
// and endstream keywords.
type Stream struct {
	Dict Dictionary
	Data []byte
	Err  string
}

// Indirect is the "num gen R" reference form.
type Indirect struct {
	Num, Gen uint64
}

// Invalid marks a construct that could not be parsed at all. It
// serializes as null with the error attached as a comment.
type Invalid struct {
	Err string
}

func (Null) Failed() bool { return false }

func (Boolean) Failed() bool { return false }

func (n Numeric) Failed() bool { return n.Dp < 0 }

func (s String) Failed() bool { return s.Err != "" }

func (Name) Failed() bool { return false }

func (a Array) Failed() bool { return a.Err != "" }

func (d Dictionary) Failed() bool { return d.Err != "" }

func (s Stream) Failed() bool { return s.Dict.Failed() || s.Err != "" }

func (Indirect) Failed() bool { return false }

func (Invalid) Failed() bool { return true }

// ObjRef identifies a named object by number and generation.
type ObjRef struct {
	Num, Gen uint64
}

// TopLevelObject is a file-level construct: one of NamedObject,
// XRefTable, Trailer, StartXRef, Invalid, or Null at end of input.
type TopLevelObject interface {
	Failed() bool

	writeTopLevel(d *dumper)
}

// NamedObject is the "num gen obj ... endobj" construct. Err records
// a missing or misplaced endobj; Contents is still usable then.
type NamedObject struct {
	Num, Gen uint64
	Contents Object
	Err      string
}

// Ref returns the object's identity.
func (n NamedObject) Ref() ObjRef { return ObjRef{n.Num, n.Gen} }

func (n NamedObject) Failed() bool { return n.Contents.Failed() || n.Err != "" }

// XRefSection is one subsection of a cross-reference table. Data
// holds the 20-byte entries verbatim; the entries themselves are
// never interpreted.
type XRefSection struct {
	Start, Count uint64
	Data         []byte
}

// XRefTable is a cross-reference table.
type XRefTable struct {
	Sections []XRefSection
}

func (XRefTable) Failed() bool { return false }

// Trailer is a trailer dictionary together with the byte offset of
// the dictionary in the source.
type Trailer struct {
	Dict  Object
	Start int64
}

func (t Trailer) Failed() bool { return t.Dict.Failed() }

// StartXRef is the startxref epilogue.
type StartXRef struct {
	Offset int64
}

func (StartXRef) Failed() bool { return false }
