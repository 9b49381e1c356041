package tokenizer

import "io"

const sourceBufSize = 4096

// fileSource adapts an io.ReadSeeker to the ByteSource interface
// with an internal read buffer, so that tokenizing an os.File does
// not issue one syscall per byte. Seeks within the buffered window
// are served without touching the underlying reader.
type fileSource struct {
	r   io.ReadSeeker
	buf []byte
	off int   // read position within buf
	abs int64 // offset of buf[0] in the underlying reader
}

// NewFileSource wraps r in a buffered ByteSource. The underlying
// reader must not be used directly afterwards. Reading starts at
// r's current position.
func NewFileSource(r io.ReadSeeker) ByteSource {
	abs, _ := r.Seek(0, io.SeekCurrent)
	return &fileSource{r: r, buf: make([]byte, 0, sourceBufSize), abs: abs}
}

// fill refreshes the window. The underlying reader is always
// positioned at abs+len(buf).
func (s *fileSource) fill() error {
	s.abs += int64(len(s.buf))
	s.off = 0
	n, err := s.r.Read(s.buf[:cap(s.buf)])
	s.buf = s.buf[:n]
	if n > 0 {
		return nil
	}
	if err == nil {
		err = io.EOF
	}
	return err
}

func (s *fileSource) ReadByte() (byte, error) {
	if s.off == len(s.buf) {
		if err := s.fill(); err != nil {
			return 0, err
		}
	}
	b := s.buf[s.off]
	s.off++
	return b, nil
}

func (s *fileSource) UnreadByte() error {
	if s.off > 0 {
		s.off--
		return nil
	}
	_, err := s.Seek(-1, io.SeekCurrent)
	return err
}

func (s *fileSource) Read(p []byte) (int, error) {
	if s.off < len(s.buf) {
		n := copy(p, s.buf[s.off:])
		s.off += n
		return n, nil
	}
	if len(p) >= cap(s.buf) {
		// Large reads bypass the buffer.
		n, err := s.r.Read(p)
		s.abs += int64(len(s.buf)) + int64(n)
		s.buf = s.buf[:0]
		s.off = 0
		return n, err
	}
	if err := s.fill(); err != nil {
		return 0, err
	}
	n := copy(p, s.buf)
	s.off = n
	return n, nil
}

func (s *fileSource) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = s.abs + int64(s.off) + offset
	default:
		end, err := s.r.Seek(offset, io.SeekEnd)
		if err != nil {
			return 0, err
		}
		s.abs = end
		s.buf = s.buf[:0]
		s.off = 0
		return end, nil
	}
	if target >= s.abs && target <= s.abs+int64(len(s.buf)) {
		s.off = int(target - s.abs)
		return target, nil
	}
	pos, err := s.r.Seek(target, io.SeekStart)
	s.abs = pos
	s.buf = s.buf[:0]
	s.off = 0
	return pos, err
}
