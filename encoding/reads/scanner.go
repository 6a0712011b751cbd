// Package reads parses sequencing reads from FASTA or FASTQ streams and
// prepares them for k-mer counting.
package reads

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

const maxLineLen = 1 << 28

var (
	// ErrShort is returned when a truncated FASTQ record is encountered.
	ErrShort = errors.New("short FASTQ file")
	// ErrInvalid is returned when the stream is neither FASTA nor FASTQ.
	ErrInvalid = errors.New("invalid reads file")
)

// Format is the layout of a reads stream.
type Format int

const (
	// Unknown means no record has been read yet.
	Unknown Format = iota
	// FASTA records are a '>' name line followed by any number of sequence
	// lines.
	FASTA
	// FASTQ records are four lines: '@' name, sequence, '+', qualities.
	FASTQ
)

func (f Format) String() string {
	switch f {
	case FASTA:
		return "fasta"
	case FASTQ:
		return "fastq"
	}
	return "unknown"
}

// A Record is one named sequence.
type Record struct {
	// Name is the name line without its leading '>' or '@'.
	Name string
	Seq  string
}

var errEOF = errors.New("eof")

// Scanner reads FASTA or FASTQ records. The format is taken from the first
// non-empty line. Scanners are not threadsafe.
//
// Scanner checks the record markers only; it does not check that FASTQ
// qualities match the sequence length or that bases are valid.
type Scanner struct {
	b      *bufio.Scanner
	format Format
	line   int
	err    error

	// pending is the FASTA name line read ahead of the next record.
	pending    string
	hasPending bool
	seq        []byte
}

// NewScanner creates a scanner that reads from r.
func NewScanner(r io.Reader) *Scanner {
	b := bufio.NewScanner(r)
	b.Buffer(nil, maxLineLen)
	return &Scanner{b: b}
}

// Format is the format of the stream, Unknown until the first record.
func (s *Scanner) Format() Format { return s.format }

// Scan reads the next record into rec. It returns false at the end of the
// stream or on error; Err tells which. Once Scan returns false it never
// returns true again.
func (s *Scanner) Scan(rec *Record) bool {
	if s.err != nil {
		return false
	}
	if s.format == Unknown {
		line, ok := s.nextNonEmpty()
		if !ok {
			return false
		}
		switch line[0] {
		case '>':
			s.format = FASTA
			s.pending, s.hasPending = line, true
		case '@':
			s.format = FASTQ
			return s.scanFASTQ(line, rec)
		default:
			s.err = errors.Wrapf(ErrInvalid, "line %d: unexpected %q", s.line, line[0])
			return false
		}
	}
	if s.format == FASTA {
		return s.scanFASTA(rec)
	}
	line, ok := s.nextNonEmpty()
	if !ok {
		return false
	}
	return s.scanFASTQ(line, rec)
}

func (s *Scanner) scanFASTA(rec *Record) bool {
	if !s.hasPending {
		if s.b.Err() == nil {
			s.err = errEOF
		} else {
			s.err = s.b.Err()
		}
		return false
	}
	rec.Name = s.pending[1:]
	s.hasPending = false
	s.seq = s.seq[:0]
	for s.b.Scan() {
		s.line++
		line := s.b.Bytes()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			s.pending, s.hasPending = string(line), true
			break
		}
		s.seq = append(s.seq, line...)
	}
	if err := s.b.Err(); err != nil {
		s.err = errors.Wrapf(err, "line %d", s.line)
		return false
	}
	rec.Seq = string(s.seq)
	return true
}

func (s *Scanner) scanFASTQ(id string, rec *Record) bool {
	if id[0] != '@' {
		s.err = errors.Wrapf(ErrInvalid, "line %d: FASTQ name line must start with '@'", s.line)
		return false
	}
	if !s.scan() {
		return false
	}
	seq := s.b.Text()
	if !s.scan() {
		return false
	}
	if unk := s.b.Bytes(); len(unk) == 0 || unk[0] != '+' {
		s.err = errors.Wrapf(ErrInvalid, "line %d: FASTQ separator line must start with '+'", s.line)
		return false
	}
	if !s.scan() {
		return false
	}
	rec.Name = id[1:]
	rec.Seq = seq
	return true
}

// nextNonEmpty returns the next non-empty line.
func (s *Scanner) nextNonEmpty() (string, bool) {
	for s.b.Scan() {
		s.line++
		if len(s.b.Bytes()) > 0 {
			return s.b.Text(), true
		}
	}
	if s.err = s.b.Err(); s.err == nil {
		s.err = errEOF
	}
	return "", false
}

func (s *Scanner) scan() bool {
	if s.b.Scan() {
		s.line++
		return true
	}
	if s.err = s.b.Err(); s.err == nil {
		s.err = errors.Wrapf(ErrShort, "line %d", s.line)
	}
	return false
}

// Err returns the scanning error, if any.
func (s *Scanner) Err() error {
	if s.err == errEOF {
		return nil
	}
	return s.err
}
