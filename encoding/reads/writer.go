package reads

import "io"

var newline = []byte{'\n'}

// DefaultLineWidth is the sequence line width of FASTA files written by
// NewFastaWriter callers that have no preference.
const DefaultLineWidth = 80

// FastaWriter writes FASTA records.
type FastaWriter struct {
	w     io.Writer
	width int
	err   error
}

// NewFastaWriter creates a writer that wraps sequence lines at width bases.
// A width <= 0 writes every sequence on one line.
func NewFastaWriter(w io.Writer, width int) *FastaWriter {
	return &FastaWriter{w: w, width: width}
}

// Write writes one record. Errors are sticky: once a write fails, every
// later Write returns the same error.
func (w *FastaWriter) Write(name, seq string) error {
	w.writeln(">" + name)
	if w.width <= 0 {
		w.writeln(seq)
		return w.err
	}
	for len(seq) > w.width {
		w.writeln(seq[:w.width])
		seq = seq[w.width:]
	}
	if len(seq) > 0 {
		w.writeln(seq)
	}
	return w.err
}

func (w *FastaWriter) writeln(line string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, line)
	if w.err == nil {
		_, w.err = w.w.Write(newline)
	}
}
