// serial_file.go - file-backed Serial peripheral for batch/headless use.

/*
serial_file.go offers the second serial backend named in the -serial-in/
-serial-out ambient-stack option pair: instead of a raw host terminal, a
guest's serial output is appended to a file and its serial input is read
from one, grounded on original_source/src/sdl-main.c's raw_serial_new
(a file-descriptor-backed RISC_Serial, as opposed to the SDL build's
tty-backed one) but expressed as a Go io.Reader/io.Writer pair rather
than raw file descriptors.
*/
package main

import (
	"bufio"
	"io"
	"sync"
)

// FileSerial is a Serial backend whose input comes from an
// io.Reader (e.g. a file opened with -serial-in) and whose output
// goes to an io.Writer (e.g. a file opened with -serial-out).
type FileSerial struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewFileSerial wraps in/out; either may be nil, in which case that
// direction behaves as empty/discarded.
func NewFileSerial(in io.Reader, out io.Writer) *FileSerial {
	f := &FileSerial{out: out}
	if in != nil {
		f.in = bufio.NewReader(in)
	}
	return f
}

// ReadStatus reports whether a byte is buffered.
func (f *FileSerial) ReadStatus() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.in == nil {
		return 0
	}
	if _, err := f.in.Peek(1); err != nil {
		return 0
	}
	return 1
}

// ReadData dequeues one byte from the input file, or 0 on EOF.
func (f *FileSerial) ReadData() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.in == nil {
		return 0
	}
	b, err := f.in.ReadByte()
	if err != nil {
		return 0
	}
	return uint32(b)
}

// WriteData appends one byte to the output file.
func (f *FileSerial) WriteData(value uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.out == nil {
		return
	}
	f.out.Write([]byte{byte(value)})
}
