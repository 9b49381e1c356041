// Command pdfbreak splits PDF files into their top-level constructs,
// one file per construct, in the order they appear and without
// consulting the cross-reference data. Damaged constructs are
// written with their error annotations, reported, and skipped over.
//
// Each named object becomes <num>-<gen>.obj. With -decode the
// payload of every stream object is additionally run through its
// filter chain into <num>-<gen>.<ext>, the extension reflecting the
// first filter the chain could not undo. With -unpack the objects
// embedded in /Type /ObjStm streams are expanded as well.
// Cross-reference tables, trailers and startxref markers become
// xref-<k>.obj, trailer-<k>.obj and startxref-<k>.obj. With several
// inputs each gets its own subdirectory and they are processed
// concurrently.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/log"
	"golang.org/x/exp/errors/fmt"
	"golang.org/x/sync/semaphore"

	"github.com/vasekp/pdfbreak/model"
	"github.com/vasekp/pdfbreak/reader"
	"github.com/vasekp/pdfbreak/reader/parser/filters"
	"github.com/vasekp/pdfbreak/reader/parser/tokenizer"
)

func main() {
	cfg := NewDefaultConfig()
	flag.StringVar(&cfg.OutDir, "out", cfg.OutDir, "output `directory`")
	flag.BoolVar(&cfg.Decode, "decode", false, "also write decoded stream payloads")
	flag.BoolVar(&cfg.Unpack, "unpack", false, "also expand objects embedded in object streams")
	flag.IntVar(&cfg.MaxConcurrentInputs, "j", cfg.MaxConcurrentInputs, "`number` of inputs processed at once")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "trace processing to stderr")
	strict := flag.Bool("strict", false, "exit nonzero when any construct is damaged")
	flag.Parse()
	if *strict {
		cfg.Mode = Strict
	}
	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [options] input.pdf ...\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(2)
	}
	if cfg.Verbose {
		log.SetDefaultLoggers()
	}

	sem := semaphore.NewWeighted(int64(cfg.MaxConcurrentInputs))
	var wg sync.WaitGroup
	var mu sync.Mutex
	clean := true
	for _, fname := range flag.Args() {
		if err := sem.Acquire(context.Background(), 1); err != nil {
			break
		}
		wg.Add(1)
		go func(fname string) {
			defer wg.Done()
			defer sem.Release(1)
			ok, err := breakFile(cfg, fname, flag.NArg() > 1)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", fname, err)
			}
			if err != nil || !ok {
				mu.Lock()
				clean = false
				mu.Unlock()
			}
		}(fname)
	}
	wg.Wait()
	if cfg.Mode == Strict && !clean {
		os.Exit(1)
	}
}

// breakFile writes one file per construct of fname into the output
// directory and reports whether every construct came out clean.
func breakFile(cfg *Config, fname string, subdir bool) (bool, error) {
	f, err := os.Open(fname)
	if err != nil {
		return false, err
	}
	defer f.Close()

	dir := cfg.OutDir
	if subdir {
		base := filepath.Base(fname)
		dir = filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base)))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, err
	}

	b := breaker{cfg: cfg, dir: dir, fname: fname, clean: true}
	b.run(reader.NewReader(tokenizer.NewFileSource(f)))
	return b.clean, nil
}

type breaker struct {
	cfg    *Config
	dir    string
	fname  string
	counts map[string]int
	clean  bool
}

func (b *breaker) run(r *reader.Reader) {
	if _, err := r.ReadVersion(); err != nil {
		// A warning only: a construct stream has no header and the
		// file may still be readable.
		fmt.Fprintf(os.Stderr, "%s: %v, reading on\n", b.fname, err)
	}
	b.counts = make(map[string]int)
	for {
		tlo := r.Next()
		switch o := tlo.(type) {
		case model.Null:
			return
		case model.NamedObject:
			b.namedObject(o)
		case model.XRefTable:
			b.saveNumbered("xref", tlo)
		case model.Trailer:
			b.saveNumbered("trailer", tlo)
		case model.StartXRef:
			b.saveNumbered("startxref", tlo)
		case model.Invalid:
			b.broken(o.Err)
			if !r.SkipToEndobj() {
				return
			}
		}
		if tlo.Failed() {
			b.clean = false
		}
	}
}

func (b *breaker) namedObject(o model.NamedObject) {
	b.save(fmt.Sprintf("%d-%d.obj", o.Num, o.Gen), o)
	if dict, ok := o.Contents.(model.Dictionary); ok {
		b.textEntries(o.Ref(), dict)
	}
	stm, ok := o.Contents.(model.Stream)
	if !ok {
		return
	}
	if b.cfg.Decode {
		b.decodeStream(o.Ref(), stm)
	}
	if name, ok := stm.Dict.Lookup("Type").(model.Name); ok && name == "ObjStm" && b.cfg.Unpack {
		b.unpackStream(o.Ref(), stm)
	}
}

// textEntries surfaces the UTF-16 metadata strings of Info-like
// dictionaries in verbose runs.
func (b *breaker) textEntries(ref model.ObjRef, dict model.Dictionary) {
	for _, key := range []model.Name{"Title", "Author", "Subject", "Producer", "Creator"} {
		if s, ok := dict.Lookup(key).(model.String); ok {
			log.CLI.Printf("%s: object %d %d: /%s %q\n", b.fname, ref.Num, ref.Gen, key, s.Text())
		}
	}
}

func (b *breaker) decodeStream(ref model.ObjRef, stm model.Stream) {
	chain, err := filters.NewChain(stm.Dict)
	if err != nil {
		b.broken(fmt.Sprintf("object %d %d: %v", ref.Num, ref.Gen, err))
		return
	}
	data, err := chain.DecodeBytes(stm.Data)
	if err != nil {
		// Fall back to the raw payload, clearly marked as such.
		b.broken(fmt.Sprintf("object %d %d: %v", ref.Num, ref.Gen, err))
		b.saveRaw(fmt.Sprintf("%d-%d.raw", ref.Num, ref.Gen), stm.Data)
		return
	}
	b.saveRaw(fmt.Sprintf("%d-%d.%s", ref.Num, ref.Gen, chain.Extension()), data)
}

func (b *breaker) unpackStream(ref model.ObjRef, stm model.Stream) {
	embedded, err := reader.NewObjStream(stm)
	if err != nil {
		b.broken(fmt.Sprintf("object %d %d: %v", ref.Num, ref.Gen, err))
		return
	}
	for {
		tlo := embedded.Read()
		if _, done := tlo.(model.Null); done {
			return
		}
		o, ok := tlo.(model.NamedObject)
		if !ok {
			b.broken(fmt.Sprintf("object %d %d: damaged object stream", ref.Num, ref.Gen))
			return
		}
		b.save(fmt.Sprintf("%d-%d.obj", o.Num, o.Gen), o)
		if o.Failed() {
			b.clean = false
		}
	}
}

func (b *breaker) saveNumbered(kind string, tlo model.TopLevelObject) {
	b.save(fmt.Sprintf("%s-%d.obj", kind, b.counts[kind]), tlo)
	b.counts[kind]++
}

func (b *breaker) save(name string, tlo model.TopLevelObject) {
	f, err := os.Create(filepath.Join(b.dir, name))
	if err != nil {
		b.broken(err.Error())
		return
	}
	err = model.DumpTopLevel(f, tlo)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		b.broken(fmt.Sprintf("writing %s: %v", name, err))
	}
}

func (b *breaker) saveRaw(name string, data []byte) {
	if err := os.WriteFile(filepath.Join(b.dir, name), data, 0644); err != nil {
		b.broken(err.Error())
	}
}

func (b *breaker) broken(msg string) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", b.fname, msg)
	b.clean = false
}
