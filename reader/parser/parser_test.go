package parser

import (
	"reflect"
	"testing"
)

func doTestParseObject(s string, want Object, t *testing.T) {
	got := ParseObject([]byte(s))
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parse of %q: expected %#v, got %#v", s, want, got)
	}
}

func TestParseScalars(t *testing.T) {
	doTestParseObject("null", Null{}, t)
	doTestParseObject("true", Boolean(true), t)
	doTestParseObject("false", Boolean(false), t)
	doTestParseObject("42", Numeric{Val: 42}, t)
	doTestParseObject("-17", Numeric{Val: -17}, t)
	doTestParseObject("3.14", Numeric{Val: 314, Dp: 2}, t)
	doTestParseObject("-2.5", Numeric{Val: -25, Dp: 1}, t)
	doTestParseObject(".5", Numeric{Val: 5, Dp: 1}, t)
	doTestParseObject("7 0 R", Indirect{Num: 7, Gen: 0}, t)
	doTestParseObject("7 0 X", Numeric{Val: 7}, t)
}

func TestParseGarbage(t *testing.T) {
	doTestParseObject("", Invalid{Err: "End of input"}, t)
	doTestParseObject("foo", Invalid{Err: "Garbage or unexpected token at 0"}, t)
	doTestParseObject("  )", Invalid{Err: "Garbage or unexpected token at 2"}, t)
	doTestParseObject("1.2.3", Invalid{Err: "Garbage or unexpected token at 0"}, t)
}

func TestParseName(t *testing.T) {
	doTestParseObject("/Name", Name("Name"), t)
	doTestParseObject("/Name#20x", Name("Name#20x"), t)
	doTestParseObject("/ x", Name("x"), t)
	doTestParseObject("//", Invalid{Err: "/ not followed by a proper name at 1"}, t)
	doTestParseObject("/", Invalid{Err: "/ not followed by a proper name at 1"}, t)
}

func TestParseStringLiteral(t *testing.T) {
	doTestParseObject("(simple)", String{Val: []byte("simple")}, t)
	doTestParseObject("()", String{}, t)
	doTestParseObject(`(a(b\(c)d)`, String{Val: []byte("a(b(c)d")}, t)
	doTestParseObject(`(\n\r\t\b\f\\\(\))`, String{Val: []byte("\n\r\t\b\f\\()")}, t)
	doTestParseObject(`(\101\12\7x)`, String{Val: []byte{'A', 012, 07, 'x'}}, t)
	doTestParseObject("(a\\\nb)", String{Val: []byte("ab")}, t)
	doTestParseObject("(a\\\r\nb)", String{Val: []byte("ab")}, t)
	doTestParseObject("(a\\\rb)", String{Val: []byte("ab")}, t)
	doTestParseObject("(ab", String{Val: []byte("ab"), Err: "End of input while reading string"}, t)
	doTestParseObject("(()", String{Val: []byte("()"), Err: "End of input while reading string"}, t)
	doTestParseObject(`(\477)`, String{Err: "Invalid octal value at 1"}, t)
	doTestParseObject(`(a\yz)`, String{Val: []byte("a"), Err: "Invalid character in string at 3"}, t)
}

func TestParseStringHex(t *testing.T) {
	doTestParseObject("<48656C6C6F>", String{Val: []byte("Hello"), Hex: true}, t)
	doTestParseObject("<48 65\r\n6c>", String{Val: []byte("Hel"), Hex: true}, t)
	doTestParseObject("<4\x008>", String{Val: []byte("H"), Hex: true}, t)
	doTestParseObject("<5>", String{Val: []byte{0x50}, Hex: true}, t)
	doTestParseObject("<>", String{Hex: true}, t)
	doTestParseObject("<4g>", String{Hex: true, Err: "Invalid character in string at 2"}, t)
	doTestParseObject("<48", String{Val: []byte("H"), Hex: true, Err: "End of input while reading string"}, t)
}

func TestParseArray(t *testing.T) {
	doTestParseObject("[]", Array{}, t)
	doTestParseObject("[1 2 3 4 R 5]", Array{Items: []Object{
		Numeric{Val: 1},
		Numeric{Val: 2},
		Indirect{Num: 3, Gen: 4},
		Numeric{Val: 5},
	}}, t)
	doTestParseObject("[[1]/N]", Array{Items: []Object{
		Array{Items: []Object{Numeric{Val: 1}}},
		Name("N"),
	}}, t)
	doTestParseObject("[1 foo]", Array{
		Items: []Object{
			Numeric{Val: 1},
			Invalid{Err: "Garbage or unexpected token at 3"},
		},
		Err: "Error reading array element at 3",
	}, t)
	doTestParseObject("[1 2", Array{
		Items: []Object{
			Numeric{Val: 1},
			Numeric{Val: 2},
			Invalid{Err: "End of input"},
		},
		Err: "Error reading array element at 4",
	}, t)
}

func TestParseDict(t *testing.T) {
	doTestParseObject("<<>>", Dictionary{Entries: map[Name]Object{}}, t)
	doTestParseObject("<< /Type /Page /Count 3 >>", Dictionary{Entries: map[Name]Object{
		"Type":  Name("Page"),
		"Count": Numeric{Val: 3},
	}}, t)
	doTestParseObject("<</Kids [4 0 R]>>", Dictionary{Entries: map[Name]Object{
		"Kids": Array{Items: []Object{Indirect{Num: 4}}},
	}}, t)
	doTestParseObject("<</A>>", Dictionary{
		Entries: map[Name]Object{
			"A": Invalid{Err: "Value not present at 4"},
		},
		Err: "Error reading value at 4",
	}, t)
	doTestParseObject("<</A 1 /A 2>>", Dictionary{
		Entries: map[Name]Object{"A": Numeric{Val: 1}},
		Err:     "Duplicate key /A at 8",
	}, t)
	doTestParseObject("<<1 2>>", Dictionary{
		Entries: map[Name]Object{},
		Err:     "Key not a name at 5",
	}, t)
	doTestParseObject("<</A 1", Dictionary{
		Entries: map[Name]Object{"A": Numeric{Val: 1}},
		Err:     "Error reading key at 6",
	}, t)
	doTestParseObject("<</A (x", Dictionary{
		Entries: map[Name]Object{
			"A": String{Val: []byte("x"), Err: "End of input while reading string"},
		},
		Err: "Error reading value at 7",
	}, t)
}
