// Package parser assembles PDF objects from the token stream produced
// by the tokenizer.
//
// Parsing is tolerant. Malformed input never aborts the parse: the
// damaged object (or its innermost reachable part) is returned with an
// error annotation describing what went wrong and where, and the token
// stream is left positioned for recovery. See 7.3 in the PDF spec for
// the object grammar.
package parser

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/log"

	"github.com/vasekp/pdfbreak/model"
	"github.com/vasekp/pdfbreak/reader/parser/tokenizer"
)

type (
	Object     = model.Object
	Null       = model.Null
	Boolean    = model.Boolean
	Numeric    = model.Numeric
	String     = model.String
	Name       = model.Name
	Array      = model.Array
	Dictionary = model.Dictionary
	Indirect   = model.Indirect
	Invalid    = model.Invalid
)

// Parser reads objects from a token stream. Successive ParseObject
// calls return successive objects; a damaged region is consumed only
// as far as its syntax allows, so a caller wanting the next intact
// construct must recover itself.
type Parser struct {
	tokens *tokenizer.Tokenizer
}

// NewParser returns a parser reading from src, starting at its
// current position.
func NewParser(src tokenizer.ByteSource) *Parser {
	return &Parser{tokens: tokenizer.NewTokenizer(src)}
}

// NewParserFromTokenizer returns a parser sharing tk. Tokens consumed
// or unread through either are seen by both.
func NewParserFromTokenizer(tk *tokenizer.Tokenizer) *Parser {
	return &Parser{tokens: tk}
}

// ParseObject parses the first object encoded in data.
func ParseObject(data []byte) Object {
	return NewParser(bytes.NewReader(data)).ParseObject()
}

// ParseObject reads one object from the token stream.
//
// The end of input yields Invalid with message "End of input"; an
// unrecognized token yields Invalid and leaves the token unconsumed.
func (p *Parser) ParseObject() Object {
	t := p.tokens.Peek()
	switch t {
	case "":
		return Invalid{Err: "End of input"}
	case "/":
		return p.parseName()
	case "(":
		return p.parseStringLiteral()
	case "<":
		return p.parseStringHex()
	case "<<":
		return p.parseDict()
	case "[":
		return p.parseArray()
	case "null":
		p.tokens.Read()
		log.Parse.Println("ParseObject: value = null")
		return Null{}
	case "true", "false":
		p.tokens.Read()
		log.Parse.Printf("ParseObject: value = Bool: %s\n", t)
		return Boolean(t == "true")
	}
	if n := model.NewNumeric(t); !n.Failed() {
		p.tokens.Read()
		return p.parseNumericOrIndirect(n)
	}
	log.Parse.Printf("ParseObject: garbage token <%s>\n", t)
	return Invalid{Err: fmt.Sprintf("Garbage or unexpected token at %d", p.tokens.LastPos())}
}

// parseName reads the token after a solidus. The token is consumed
// even when it does not form a proper name.
func (p *Parser) parseName() Object {
	p.tokens.Read()
	t := p.tokens.Read()
	if t == "" || !tokenizer.IsRegular(t[0]) {
		return Invalid{Err: fmt.Sprintf("/ not followed by a proper name at %d", p.tokens.LastPos())}
	}
	log.Parse.Printf("parseName: /%s\n", t)
	return Name(t)
}

// parseNumericOrIndirect disambiguates a number from an indirect
// reference by looking ahead two tokens. When the lookahead does not
// complete a reference the extra tokens are unread, restoring their
// original order.
func (p *Parser) parseNumericOrIndirect(n1 Numeric) Object {
	t2 := p.tokens.Read()
	if n2 := model.NewNumeric(t2); n1.IsUint() && n2.IsUint() {
		t3 := p.tokens.Read()
		if t3 == "R" {
			log.Parse.Printf("parseNumericOrIndirect: reference %d %d R\n", n1.Uint(), n2.Uint())
			return Indirect{Num: n1.Uint(), Gen: n2.Uint()}
		}
		p.tokens.Unread(t3)
	}
	p.tokens.Unread(t2)
	log.Parse.Printf("parseNumericOrIndirect: value = Numeric: %s\n", n1)
	return n1
}

func (p *Parser) parseStringLiteral() Object {
	p.tokens.Read()
	src := p.tokens.Source()
	var val []byte
	var errStr string
	parens := 0

Loop:
	for {
		b, err := src.ReadByte()
		if err != nil {
			errStr = "End of input while reading string"
			break
		}
		switch b {
		case ')':
			if parens == 0 {
				break Loop
			}
			parens--
			val = append(val, b)
		case '(':
			parens++
			val = append(val, b)
		case '\\':
			b, err = src.ReadByte()
			if err != nil {
				errStr = "End of input while reading string"
				break Loop
			}
			switch b {
			case 'n':
				val = append(val, '\n')
			case 'r':
				val = append(val, '\r')
			case 't':
				val = append(val, '\t')
			case 'b':
				val = append(val, '\b')
			case 'f':
				val = append(val, '\f')
			case '(', ')', '\\':
				val = append(val, b)
			case '\r':
				// Line continuation; a CRLF pair is dropped whole.
				if b, err = src.ReadByte(); err == nil && b != '\n' {
					src.UnreadByte()
				}
			case '\n':
				// Line continuation.
			case '0', '1', '2', '3', '4', '5', '6', '7':
				d := int(b - '0')
				for i := 0; i < 2; i++ {
					b, err = src.ReadByte()
					if err != nil {
						errStr = "End of input while reading string"
						break Loop
					}
					if b < '0' || b > '7' {
						src.UnreadByte()
						break
					}
					d = 8*d + int(b-'0')
				}
				if d > 255 {
					errStr = fmt.Sprintf("Invalid octal value at %d", p.tokens.Pos()-4)
					break Loop
				}
				val = append(val, byte(d))
			default:
				errStr = fmt.Sprintf("Invalid character in string at %d", p.tokens.Pos()-1)
				break Loop
			}
		default:
			val = append(val, b)
		}
	}
	log.Parse.Printf("parseStringLiteral: %d bytes\n", len(val))
	return String{Val: val, Err: errStr}
}

func (p *Parser) parseStringHex() Object {
	p.tokens.Read()
	src := p.tokens.Source()
	var val []byte
	var errStr string
	var d byte
	odd := false

	for {
		b, err := src.ReadByte()
		if err != nil {
			errStr = "End of input while reading string"
			break
		}
		if b == '>' {
			// An odd digit count is padded with a zero nibble.
			if odd {
				val = append(val, 16*d)
			}
			break
		}
		if v, ok := hexDigit(b); ok {
			d = 16*d + v
			if odd {
				val = append(val, d)
				d = 0
			}
			odd = !odd
			continue
		}
		if tokenizer.IsWhitespace(b) {
			continue
		}
		errStr = fmt.Sprintf("Invalid character in string at %d", p.tokens.Pos()-1)
		break
	}
	log.Parse.Printf("parseStringHex: %d bytes\n", len(val))
	return String{Val: val, Hex: true, Err: errStr}
}

func hexDigit(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	}
	return 0, false
}

func (p *Parser) parseArray() Object {
	p.tokens.Read()
	var items []Object
	var errStr string
	for p.tokens.Peek() != "]" {
		o := p.ParseObject()
		failed := o.Failed()
		// A failed element is kept as the last item.
		items = append(items, o)
		if failed {
			errStr = fmt.Sprintf("Error reading array element at %d", p.tokens.LastPos())
			break
		}
	}
	if p.tokens.Peek() == "]" {
		p.tokens.Read()
	}
	log.Parse.Printf("parseArray: %d items\n", len(items))
	return Array{Items: items, Err: errStr}
}

func (p *Parser) parseDict() Object {
	p.tokens.Read()
	entries := map[Name]Object{}
	var errStr string
	for p.tokens.Peek() != ">>" {
		oKey := p.ParseObject()
		if oKey.Failed() {
			errStr = fmt.Sprintf("Error reading key at %d", p.tokens.LastPos())
			break
		}
		key, ok := oKey.(Name)
		if !ok {
			errStr = fmt.Sprintf("Key not a name at %d", p.tokens.LastPos())
			break
		}
		if _, dup := entries[key]; dup {
			// The first entry wins; its value is left untouched.
			errStr = fmt.Sprintf("Duplicate key /%s at %d", key, p.tokens.LastPos())
			break
		}
		var oVal Object
		if p.tokens.Peek() == ">>" {
			oVal = Invalid{Err: fmt.Sprintf("Value not present at %d", p.tokens.LastPos())}
		} else {
			oVal = p.ParseObject()
		}
		failed := oVal.Failed()
		// A failed value still lands in the map under its key.
		entries[key] = oVal
		log.Parse.Printf("parseDict: dict[%s]=%v\n", key, oVal)
		if failed {
			errStr = fmt.Sprintf("Error reading value at %d", p.tokens.LastPos())
			break
		}
	}
	if p.tokens.Peek() == ">>" {
		p.tokens.Read()
	}
	log.Parse.Printf("parseDict: %d entries\n", len(entries))
	return Dictionary{Entries: entries, Err: errStr}
}
