package main

import (
	"bytes"
	"io"
)

const (
	ctrlC = 0x03
	ctrlD = 0x04
)

// interruptReader turns Ctrl-C and Ctrl-D into a shutdown request. In raw
// mode the tty no longer raises SIGINT for them.
type interruptReader struct {
	r       io.Reader
	trigger func()
}

func newInterruptReader(r io.Reader, trigger func()) *interruptReader {
	return &interruptReader{r: r, trigger: trigger}
}

func (ir *interruptReader) Read(p []byte) (int, error) {
	n, err := ir.r.Read(p)
	if i := bytes.IndexAny(p[:n], string([]byte{ctrlC, ctrlD})); i >= 0 {
		ir.trigger()
		return i, err
	}
	return n, err
}
