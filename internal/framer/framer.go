// Package framer converts a raw serial byte stream into discrete text lines.
package framer

import (
	"bytes"
	"strings"
)

var (
	crlf = []byte("\r\n")
	cr   = []byte("\r")
	lf   = []byte("\n")
)

// Framer accumulates raw byte chunks and splits them into complete lines.
// Line endings "\r\n", "\r" and "\n" are all accepted; an incomplete trailing
// fragment is kept until the next Feed. A Framer lives as long as one serial
// connection; a reopened port gets a fresh one.
type Framer struct {
	buf []byte
}

func New() *Framer {
	return &Framer{}
}

// Feed consumes the next chunk and returns every complete line it finished.
// Empty lines are dropped. Invalid UTF-8 sequences are replaced with U+FFFD
// instead of failing the whole line.
func (f *Framer) Feed(chunk []byte) []string {
	f.buf = append(f.buf, chunk...)

	// Normalize all line endings to \n before splitting.
	f.buf = bytes.ReplaceAll(f.buf, crlf, lf)
	f.buf = bytes.ReplaceAll(f.buf, cr, lf)

	var lines []string
	for {
		i := bytes.IndexByte(f.buf, '\n')
		if i < 0 {
			break
		}
		line := f.buf[:i]
		f.buf = f.buf[i+1:]
		if len(line) == 0 {
			continue
		}
		lines = append(lines, strings.ToValidUTF8(string(line), "�"))
	}
	return lines
}
