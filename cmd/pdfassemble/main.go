// Command pdfassemble concatenates the top-level constructs of its
// inputs, whole PDF files and single-construct files alike, into one
// output with a freshly synthesized cross-reference table, trailer
// and startxref epilogue. Input cross-reference data is dropped; the
// last trailer dictionary wins.
package main

import (
	"flag"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/log"
	"golang.org/x/exp/errors/fmt"

	"github.com/vasekp/pdfbreak/model"
	"github.com/vasekp/pdfbreak/reader"
	"github.com/vasekp/pdfbreak/reader/parser/tokenizer"
	"github.com/vasekp/pdfbreak/writer"
)

func check(err error) {
	if err != nil {
		fmt.Println("fatal error", err)
		os.Exit(1)
	}
}

func main() {
	out := flag.String("o", "out.pdf", "output `file`")
	ver := flag.String("pdf", "1.7", "header `version` of the output")
	verbose := flag.Bool("verbose", false, "trace assembly to stderr")
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [-o out.pdf] input.pdf|input.obj ...\n", os.Args[0])
		os.Exit(2)
	}
	var version model.Version
	if _, err := fmt.Sscanf(*ver, "%d.%d", &version.Major, &version.Minor); err != nil {
		fmt.Fprintln(os.Stderr, "malformed -pdf version:", *ver)
		os.Exit(2)
	}
	if *verbose {
		log.SetDefaultLoggers()
	}

	f, err := os.Create(*out)
	check(err)
	a := writer.New(f)
	a.WriteHeader(version)
	for _, fname := range flag.Args() {
		in, err := os.Open(fname)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Can't open %s for reading.\n", fname)
			continue
		}
		addFile(a, in, fname)
		in.Close()
	}
	check(a.Close())
	check(f.Close())
}

func addFile(a *writer.Assembler, in *os.File, fname string) {
	r := reader.NewReader(tokenizer.NewFileSource(in))
	// Single-construct files have no header line.
	r.ReadVersion()
	for {
		tlo := r.Next()
		if _, done := tlo.(model.Null); done {
			return
		}
		if inv, bad := tlo.(model.Invalid); bad {
			fmt.Fprintf(os.Stderr, "%s: %s, rest of file skipped\n", fname, inv.Err)
			return
		}
		a.Add(tlo)
	}
}
