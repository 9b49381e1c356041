package model

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
)

// Version is the PDF version advertised by the file header.
type Version struct {
	Major, Minor int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

var errBadHeader = errors.New("missing or malformed %PDF-m.n header")

// ParseVersion extracts the version from the first line of a file.
// The line must start with exactly "%PDF-m.n" where m and n are
// single digits; anything after those eight bytes is ignored.
func ParseVersion(line string) (Version, error) {
	if len(line) < 8 || !strings.HasPrefix(line, "%PDF-") {
		return Version{}, errBadHeader
	}
	if line[5] < '0' || line[5] > '9' || line[6] != '.' || line[7] < '0' || line[7] > '9' {
		return Version{}, errBadHeader
	}
	if len(line) > 8 && line[8] >= '0' && line[8] <= '9' {
		return Version{}, errBadHeader
	}
	return Version{int(line[5] - '0'), int(line[7] - '0')}, nil
}

// WriteHeader emits the version line followed by the customary
// binary comment line, four bytes above 127 that make content
// sniffers treat the file as binary.
func WriteHeader(w io.Writer, v Version) error {
	if _, err := fmt.Fprintf(w, "%%PDF-%d.%d\n", v.Major, v.Minor); err != nil {
		return err
	}
	buf := []byte{'%', 0, 0, 0, 0, '\n'}
	for i := 1; i <= 4; i++ {
		buf[i] = byte(128 + rand.Intn(128))
	}
	_, err := w.Write(buf)
	return err
}
