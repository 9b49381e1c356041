package reader

import (
	"bytes"
	"errors"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/log"

	"github.com/vasekp/pdfbreak/model"
	"github.com/vasekp/pdfbreak/reader/parser"
	"github.com/vasekp/pdfbreak/reader/parser/filters"
	"github.com/vasekp/pdfbreak/reader/parser/tokenizer"
)

var (
	errStreamUnpack = errors.New("Couldn't unpack object stream")
	errStreamFields = errors.New("Object stream lacks required fields")
	errStreamHeader = errors.New("Broken object stream header")
)

// ObjStream gives access to the objects embedded in an object stream
// (/Type /ObjStm, see 7.5.7 in the PDF spec). The stream payload is
// decoded once and the object number table read from its head; the
// embedded objects themselves are parsed lazily, one per Read call.
//
// The offsets listed in the header are ignored: objects are read in
// sequence, which tolerates slightly damaged headers as long as the
// objects themselves are well formed.
type ObjStream struct {
	stm     model.Stream
	first   uint64
	nums    []uint64
	tokens  *tokenizer.Tokenizer
	objects *parser.Parser
	ix      int
	failed  bool
}

// NewObjStream decodes stm and reads the embedded object numbers from
// its header. The filter chain must be fully supported and the
// dictionary must carry integral /N and /First entries.
func NewObjStream(stm model.Stream) (*ObjStream, error) {
	o := &ObjStream{stm: stm}
	data, err := o.unpack()
	if err != nil {
		return nil, err
	}
	count, okN := uintEntry(stm.Dict, "N")
	first, okF := uintEntry(stm.Dict, "First")
	if !okN || !okF {
		return nil, errStreamFields
	}
	o.first = first
	o.tokens = tokenizer.NewTokenizer(bytes.NewReader(data))
	o.objects = parser.NewParserFromTokenizer(o.tokens)
	for i := uint64(0); i < 2*count; i++ {
		v := model.NewNumeric(o.tokens.Read())
		if !v.IsUint() {
			return nil, errStreamHeader
		}
		// Only the object numbers are kept, the offsets in between
		// are not needed for sequential reading.
		if i%2 == 0 {
			o.nums = append(o.nums, v.Uint())
		}
	}
	log.Read.Printf("NewObjStream: %d objects, first at %d\n", len(o.nums), first)
	return o, nil
}

func (o *ObjStream) unpack() ([]byte, error) {
	chain, err := filters.NewChain(o.stm.Dict)
	if err != nil || !chain.Complete() {
		return nil, errStreamUnpack
	}
	data, err := chain.DecodeBytes(o.stm.Data)
	if err != nil {
		return nil, errStreamUnpack
	}
	return data, nil
}

func uintEntry(d model.Dictionary, key model.Name) (uint64, bool) {
	n, ok := d.Lookup(key).(model.Numeric)
	if !ok || !n.IsUint() {
		return 0, false
	}
	return n.Uint(), true
}

// Read returns the next embedded object, wrapped in a NamedObject
// with the number announced by the header and generation 0. Past the
// last object it returns Null, repeatedly. A parse failure renders
// the rest of the stream unreadable: the broken object is returned
// and every later call yields Invalid.
func (o *ObjStream) Read() model.TopLevelObject {
	if o.failed {
		return model.Invalid{Err: "Read on a failed ObjStream"}
	}
	if o.ix == len(o.nums) {
		return model.Null{}
	}
	obj := o.objects.ParseObject()
	if obj.Failed() {
		log.Read.Printf("ObjStream.Read: object %d broken, giving up\n", o.nums[o.ix])
		o.failed = true
		return model.NamedObject{Num: o.nums[o.ix], Contents: obj}
	}
	num := o.nums[o.ix]
	o.ix++
	return model.NamedObject{Num: num, Contents: obj}
}

// Rewind re-decodes the stream and positions it at its first object,
// clearing a failure state. Unlike sequential reading this honours
// the /First entry.
func (o *ObjStream) Rewind() error {
	data, err := o.unpack()
	if err != nil {
		return err
	}
	src := bytes.NewReader(data)
	if _, err := src.Seek(int64(o.first), io.SeekStart); err != nil {
		return errStreamHeader
	}
	o.tokens = tokenizer.NewTokenizer(src)
	o.objects = parser.NewParserFromTokenizer(o.tokens)
	o.ix = 0
	o.failed = false
	return nil
}
