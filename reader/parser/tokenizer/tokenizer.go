// Package tokenizer implements the lowest level of processing of PDF
// files: splitting a byte stream into the tokens defined by the PDF
// syntax rules (section 7.2 of the PDF spec).
//
// A token is either a run of regular characters or a single delimiter,
// with `<<` and `>>` forming two-character tokens. Comments are
// skipped, whitespace separates but is never returned, and the end of
// input is reported as an empty token. Higher layers that need the raw
// bytes between tokens (string and stream contents, xref entries)
// borrow the underlying source via Source and hand it back implicitly
// by resuming token reads.
package tokenizer

import "io"

// ByteSource is the input the tokenizer consumes: byte-at-a-time
// reads with single-byte lookahead, bulk reads for embedded data, and
// seeks for position reporting and recovery. A bytes.Reader satisfies
// it directly; use NewFileSource to wrap an os.File or any other
// io.ReadSeeker.
type ByteSource interface {
	io.Reader
	io.ByteScanner
	io.Seeker
}

// IsWhitespace reports whether b separates tokens (7.2.2 in the PDF
// spec). NUL counts as whitespace.
func IsWhitespace(b byte) bool {
	switch b {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

// IsDelimiter reports whether b terminates a token by itself.
func IsDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// IsRegular reports whether b may appear inside a multi-character
// token.
func IsRegular(b byte) bool {
	return !IsWhitespace(b) && !IsDelimiter(b)
}

// A Tokenizer splits a ByteSource into PDF tokens. It supports
// one-token lookahead through Peek and restoring tokens through
// Unread; the number parser pushes back up to two.
//
// The zero Tokenizer is not usable, call NewTokenizer.
type Tokenizer struct {
	src     ByteSource
	pending []string // pushback stack, top is the last element
	lastLen int64    // byte length of the last token lexed from src
}

// NewTokenizer returns a tokenizer reading from src, starting at its
// current position.
func NewTokenizer(src ByteSource) *Tokenizer {
	return &Tokenizer{src: src}
}

// Read returns the next token, consuming it. At the end of input it
// returns the empty token.
func (tk *Tokenizer) Read() string {
	if n := len(tk.pending); n > 0 {
		tok := tk.pending[n-1]
		tk.pending = tk.pending[:n-1]
		return tok
	}
	return tk.lex()
}

// Peek returns the next token without consuming it. Repeated calls
// return the same token and touch the source at most once.
func (tk *Tokenizer) Peek() string {
	if len(tk.pending) == 0 {
		tk.pending = append(tk.pending, tk.lex())
	}
	return tk.pending[len(tk.pending)-1]
}

// Unread pushes tok back so that the next Read or Peek returns it
// again. Tokens unread most recently are returned first.
func (tk *Tokenizer) Unread(tok string) {
	tk.pending = append(tk.pending, tok)
}

// Pos returns the current offset of the underlying source. With a
// peeked or unread token pending this points past that token, not
// before it.
func (tk *Tokenizer) Pos() int64 {
	off, _ := tk.src.Seek(0, io.SeekCurrent)
	return off
}

// LastPos returns the offset at which the last token lexed from the
// source began. Leading whitespace and comments are not counted.
func (tk *Tokenizer) LastPos() int64 {
	return tk.Pos() - tk.lastLen
}

// Source hands out the underlying byte source for raw access. A
// pending token is first restored by seeking back over it, so the
// source is positioned exactly after the last token actually
// consumed. At most one pending token can be restored this way.
//
// The tokenizer forgets its lookahead state; resuming Read or Peek
// after raw reads is safe.
func (tk *Tokenizer) Source() ByteSource {
	tk.Release()
	return tk.src
}

// Release drops the pushback state, seeking back over a pending
// token as described at Source.
func (tk *Tokenizer) Release() {
	if len(tk.pending) > 0 {
		tk.src.Seek(-tk.lastLen, io.SeekCurrent)
	}
	tk.pending = tk.pending[:0]
	tk.lastLen = 0
}

// Reset drops the pushback state without touching the source
// position. Used after raw reads that themselves consumed the
// region a pending token came from.
func (tk *Tokenizer) Reset() {
	tk.pending = tk.pending[:0]
	tk.lastLen = 0
}

// lex reads the next token from the source proper.
func (tk *Tokenizer) lex() string {
	tk.lastLen = 0
	var c byte
	for {
		b, err := tk.src.ReadByte()
		if err != nil {
			return ""
		}
		if !IsWhitespace(b) {
			c = b
			break
		}
	}
	if c == '%' {
		SkipLine(tk.src)
		return tk.lex()
	}
	if IsDelimiter(c) {
		if c == '<' || c == '>' {
			b, err := tk.src.ReadByte()
			if err == nil {
				if b == c {
					tk.lastLen = 2
					return string([]byte{c, c})
				}
				tk.src.UnreadByte()
			}
		}
		tk.lastLen = 1
		return string([]byte{c})
	}
	buf := []byte{c}
	for {
		b, err := tk.src.ReadByte()
		if err != nil {
			break
		}
		if !IsRegular(b) {
			tk.src.UnreadByte()
			break
		}
		buf = append(buf, b)
	}
	tk.lastLen = int64(len(buf))
	return string(buf)
}

// SkipLine advances src just past the next line terminator. LF, CR
// and CRLF all terminate. At the end of input it simply stops.
func SkipLine(src io.ByteScanner) {
	for {
		b, err := src.ReadByte()
		if err != nil || b == '\n' {
			return
		}
		if b == '\r' {
			b, err = src.ReadByte()
			if err == nil && b != '\n' {
				src.UnreadByte()
			}
			return
		}
	}
}

// SkipToLF advances src just past the next LF byte. Unlike SkipLine a
// lone CR does not stop it; the stream keyword is followed by either
// LF or CRLF and this skips both forms alike.
func SkipToLF(src io.ByteReader) {
	for {
		b, err := src.ReadByte()
		if err != nil || b == '\n' {
			return
		}
	}
}

// ReadRawLine reads the next line including its terminator. Only LF
// and CRLF terminate; a lone CR is data and does not end the line.
// At the end of input the remaining bytes are returned, nil if there
// are none.
func ReadRawLine(src io.ByteScanner) []byte {
	var line []byte
	for {
		b, err := src.ReadByte()
		if err != nil {
			return line
		}
		line = append(line, b)
		if b == '\n' {
			return line
		}
		if b == '\r' {
			b, err = src.ReadByte()
			if err != nil {
				return line
			}
			if b == '\n' {
				return append(line, b)
			}
			src.UnreadByte()
		}
	}
}

// TrimEOL removes one trailing LF, CRLF or CR from line.
func TrimEOL(line []byte) []byte {
	if n := len(line); n > 0 {
		switch line[n-1] {
		case '\r':
			return line[:n-1]
		case '\n':
			if n > 1 && line[n-2] == '\r' {
				return line[:n-2]
			}
			return line[:n-1]
		}
	}
	return line
}
