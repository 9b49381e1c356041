package reader

import (
	"bytes"
	"os"
	"reflect"
	"testing"

	"github.com/phpdave11/gofpdf"

	"github.com/vasekp/pdfbreak/model"
	"github.com/vasekp/pdfbreak/reader/parser/tokenizer"
)

func newReader(s string) *Reader {
	return NewReader(bytes.NewReader([]byte(s)))
}

func doTestNext(src string, want []model.TopLevelObject, t *testing.T) {
	t.Helper()
	r := newReader(src)
	for i, exp := range want {
		got := r.Next()
		if !reflect.DeepEqual(got, exp) {
			t.Errorf("source %q construct %d: expected %v, got %v", src, i, exp, got)
		}
	}
}

func TestReadVersion(t *testing.T) {
	r := newReader("%PDF-1.7\nhello\n")
	v, err := r.ReadVersion()
	if err != nil || v != (model.Version{Major: 1, Minor: 7}) {
		t.Errorf("expected 1.7, got %v (%v)", v, err)
	}
	// The header line is consumed exactly, the next construct starts
	// right behind it.
	if got := r.Next(); !reflect.DeepEqual(got, model.Invalid{Err: "Garbage or unexpected token at 9"}) {
		t.Errorf("unexpected follow-up: %v", got)
	}

	r = newReader("%PDF-1.4\r\n1 0 obj 5 endobj")
	v, err = r.ReadVersion()
	if err != nil || v != (model.Version{Major: 1, Minor: 4}) {
		t.Errorf("expected 1.4, got %v (%v)", v, err)
	}
	want := model.NamedObject{Num: 1, Contents: model.Numeric{Val: 5}}
	if got := r.Next(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	// No header: nothing is consumed.
	r = newReader("1 0 obj 5 endobj")
	if _, err = r.ReadVersion(); err != ErrNoHeader {
		t.Errorf("expected ErrNoHeader, got %v", err)
	}
	if got := r.Next(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	// A comment that is not a version line is skipped over.
	r = newReader("%PDX-0.0\nrest")
	if _, err = r.ReadVersion(); err != ErrNoHeader {
		t.Errorf("expected ErrNoHeader, got %v", err)
	}
	if got := r.Next(); !reflect.DeepEqual(got, model.Invalid{Err: "Garbage or unexpected token at 9"}) {
		t.Errorf("unexpected follow-up: %v", got)
	}

	r = newReader("")
	if _, err = r.ReadVersion(); err != ErrNoHeader {
		t.Errorf("expected ErrNoHeader, got %v", err)
	}
}

func TestNamedObject(t *testing.T) {
	doTestNext("1 0 obj\n(Hello, world!)\nendobj\n", []model.TopLevelObject{
		model.NamedObject{Num: 1, Contents: model.String{Val: []byte("Hello, world!")}},
		model.Null{},
	}, t)
	doTestNext("12 3 obj [1 2] endobj", []model.TopLevelObject{
		model.NamedObject{Num: 12, Gen: 3, Contents: model.Array{
			Items: []model.Object{model.Numeric{Val: 1}, model.Numeric{Val: 2}},
		}},
	}, t)
}

func TestNamedObjectHeader(t *testing.T) {
	doTestNext("12 x obj", []model.TopLevelObject{
		model.Invalid{Err: "Misshaped named object header (gen) at 3"},
	}, t)
	doTestNext("7 0 xobj", []model.TopLevelObject{
		model.Invalid{Err: "Misshaped named object header (obj) at 4"},
	}, t)
	doTestNext("1 0 obj 5", []model.TopLevelObject{
		model.NamedObject{Num: 1, Contents: model.Numeric{Val: 5},
			Err: "End of input where endobj expected"},
	}, t)
}

func TestMissingEndobj(t *testing.T) {
	// The bad token is consumed by the endobj check, the following
	// object is read undisturbed.
	doTestNext("2 0 obj\n42\ngarbage\n3 0 obj\n99\nendobj\n", []model.TopLevelObject{
		model.NamedObject{Num: 2, Contents: model.Numeric{Val: 42},
			Err: "endobj not found at 11"},
		model.NamedObject{Num: 3, Contents: model.Numeric{Val: 99}},
		model.Null{},
	}, t)
}

func TestGarbageRecovery(t *testing.T) {
	r := newReader("qwe rty\n1 0 obj 5 endobj\n2 0 obj 7 endobj\n")
	want := model.Invalid{Err: "Garbage or unexpected token at 0"}
	if got := r.Next(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	// Recovery swallows everything up to the nearest endobj, at the
	// cost of the object it belonged to.
	if !r.SkipToEndobj() {
		t.Fatal("SkipToEndobj failed")
	}
	wantObj := model.NamedObject{Num: 2, Contents: model.Numeric{Val: 7}}
	if got := r.Next(); !reflect.DeepEqual(got, wantObj) {
		t.Errorf("expected %v, got %v", wantObj, got)
	}
	if got := r.Next(); !reflect.DeepEqual(got, model.Null{}) {
		t.Errorf("expected Null, got %v", got)
	}

	r = newReader("nothing to be found here")
	r.Next()
	if r.SkipToEndobj() {
		t.Error("SkipToEndobj out of thin air")
	}
}

func streamObj(num uint64, dict model.Dictionary, data, streamErr, objErr string) model.NamedObject {
	return model.NamedObject{Num: num, Err: objErr,
		Contents: model.Stream{Dict: dict, Data: []byte(data), Err: streamErr}}
}

func lengthDict(n int64) model.Dictionary {
	return model.Dictionary{Entries: map[model.Name]model.Object{
		"Length": model.Numeric{Val: n},
	}}
}

func emptyDict() model.Dictionary {
	return model.Dictionary{Entries: map[model.Name]model.Object{}}
}

func TestStreamWithLength(t *testing.T) {
	doTestNext("4 0 obj\n<< /Length 10 >>\nstream\n0123456789\nendstream endobj\n",
		[]model.TopLevelObject{
			streamObj(4, lengthDict(10), "0123456789", "", ""),
			model.Null{},
		}, t)
	// Length pointing past endstream: the bytes are taken literally
	// and the delimiter check trips on whatever follows.
	doTestNext("4 0 obj << /Length 14 >> stream\nabcd\nendstream x\n",
		[]model.TopLevelObject{
			streamObj(4, lengthDict(14), "abcd\nendstream",
				"endstream not found at 47",
				"End of input where endobj expected"),
		}, t)
}

func TestStreamShortRead(t *testing.T) {
	doTestNext("5 0 obj << /Length 100 >> stream\nabc", []model.TopLevelObject{
		streamObj(5, lengthDict(100), "abc",
			"End of input during reading stream data, read 3 bytes",
			"End of input where endobj expected"),
	}, t)
}

func TestStreamScan(t *testing.T) {
	doTestNext("7 0 obj << >> stream\nline one\nline two\nendstream endobj\n",
		[]model.TopLevelObject{
			streamObj(7, emptyDict(), "line one\nline two", "", ""),
			model.Null{},
		}, t)
	// endstream alone on its line.
	doTestNext("7 0 obj <<>> stream\ndata\nendstream\nendobj",
		[]model.TopLevelObject{
			streamObj(7, emptyDict(), "data", "", ""),
		}, t)
}

func TestStreamScanFalseMatch(t *testing.T) {
	// The delimiter appears inside the payload as a prefix of a longer
	// token; the scanner keeps it as data and finds the real one.
	payload := "bin\x01endstreamZtail"
	doTestNext("9 0 obj <<>> stream\n"+payload+"\nendstream endobj\n",
		[]model.TopLevelObject{
			streamObj(9, emptyDict(), payload, "", ""),
			model.Null{},
		}, t)
}

func TestStreamScanEOF(t *testing.T) {
	doTestNext("8 0 obj <<>> stream\nabc\ndef", []model.TopLevelObject{
		streamObj(8, emptyDict(), "abc\ndef",
			"End of input during reading stream data",
			"End of input where endobj expected"),
	}, t)
}

func TestXRefTable(t *testing.T) {
	entries := "0000000000 65535 f \n" + "0000000015 00000 n \n"
	src := "xref\n0 2\n" + entries +
		"trailer\n<< /Size 2 /Root 1 0 R >>\nstartxref\n416\n%%EOF\n"
	doTestNext(src, []model.TopLevelObject{
		model.XRefTable{Sections: []model.XRefSection{
			{Start: 0, Count: 2, Data: []byte(entries)},
		}},
		model.Trailer{Start: 57, Dict: model.Dictionary{Entries: map[model.Name]model.Object{
			"Size": model.Numeric{Val: 2},
			"Root": model.Indirect{Num: 1},
		}}},
		model.StartXRef{Offset: 416},
		model.Null{},
	}, t)
}

func TestXRefTableMultiSection(t *testing.T) {
	e1 := "0000000000 65535 f \n"
	e2 := "0000000123 00000 n \n" + "0000000456 00001 n \n"
	src := "xref\n0 1\n" + e1 + "7 2\n" + e2 + "trailer\n<<>>"
	doTestNext(src, []model.TopLevelObject{
		model.XRefTable{Sections: []model.XRefSection{
			{Start: 0, Count: 1, Data: []byte(e1)},
			{Start: 7, Count: 2, Data: []byte(e2)},
		}},
		model.Trailer{Start: 81, Dict: emptyDict()},
	}, t)
}

func TestXRefTableBroken(t *testing.T) {
	doTestNext("xref\nabc 2\n", []model.TopLevelObject{
		model.Invalid{Err: "Broken xref subsection header (start) at 5"},
	}, t)
	doTestNext("xref\n0 two\n", []model.TopLevelObject{
		model.Invalid{Err: "Broken xref subsection header (count) at 7"},
	}, t)
	doTestNext("xref\n", []model.TopLevelObject{
		model.Invalid{Err: "End of input while reading xref table"},
	}, t)
	doTestNext("xref\n0 5\n0000000000 65535 f \n", []model.TopLevelObject{
		model.Invalid{Err: "End of input while reading xref table"},
	}, t)
}

func TestTrailerStart(t *testing.T) {
	doTestNext("trailer << /Size 1 >>", []model.TopLevelObject{
		model.Trailer{Start: 8, Dict: model.Dictionary{Entries: map[model.Name]model.Object{
			"Size": model.Numeric{Val: 1},
		}}},
	}, t)
}

func TestStartXRefBroken(t *testing.T) {
	doTestNext("startxref\nabc", []model.TopLevelObject{
		model.Invalid{Err: "Broken startxref at 10"},
	}, t)
	doTestNext("startxref", []model.TopLevelObject{
		model.Invalid{Err: "Broken startxref at 9"},
	}, t)
}

// TestReadWholeFile runs the reader over a file produced by a real
// generator and expects every construct to come out clean.
func TestReadWholeFile(t *testing.T) {
	if err := os.MkdirAll("datatest", 0755); err != nil {
		t.Fatal(err)
	}
	fn := "datatest/generated.pdf"
	g := gofpdf.New("", "", "", "")
	g.AddPage()
	g.SetFont("Helvetica", "", 12)
	g.Text(20, 20, "Hello, world!")
	if err := g.OutputFileAndClose(fn); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(fn)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	r := NewReader(tokenizer.NewFileSource(f))
	if _, err := r.ReadVersion(); err != nil {
		t.Fatalf("ReadVersion: %v", err)
	}
	counts := make(map[string]int)
	for {
		obj := r.Next()
		if _, ok := obj.(model.Null); ok {
			break
		}
		if obj.Failed() {
			t.Fatalf("broken construct: %v", obj)
		}
		switch o := obj.(type) {
		case model.NamedObject:
			counts["obj"]++
		case model.XRefTable:
			counts["xref"]++
		case model.Trailer:
			counts["trailer"]++
			dict, ok := o.Dict.(model.Dictionary)
			if !ok {
				t.Fatal("trailer contents not a dictionary")
			}
			if _, ok := dict.Lookup("Root").(model.Indirect); !ok {
				t.Error("trailer lacks a /Root reference")
			}
		case model.StartXRef:
			counts["startxref"]++
		}
	}
	if counts["obj"] < 4 || counts["xref"] != 1 || counts["trailer"] != 1 || counts["startxref"] != 1 {
		t.Errorf("unexpected construct counts: %v", counts)
	}
}
