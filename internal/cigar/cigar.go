// Package cigar parses and validates transcript-to-genome alignment strings.
//
// Only three operators are supported: M (match), I (insertion) and D (deletion).
// A valid string is one or more runs of a positive decimal length without a
// leading zero followed by an operator, e.g. "8M7D6M2I2M11D7M".
package cigar

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the type of an alignment operation.
type Kind byte

const (
	Match     Kind = 'M' // consumes transcript and genome
	Insertion Kind = 'I' // consumes transcript only
	Deletion  Kind = 'D' // consumes genome only
)

// String returns the operator character for the kind.
func (k Kind) String() string {
	return string(rune(k))
}

// ConsumesTranscript reports whether the operation advances the transcript position.
func (k Kind) ConsumesTranscript() bool {
	return k == Match || k == Insertion
}

// ConsumesGenome reports whether the operation advances the genomic position.
func (k Kind) ConsumesGenome() bool {
	return k == Match || k == Deletion
}

func isKind(b byte) bool {
	return b == byte(Match) || b == byte(Insertion) || b == byte(Deletion)
}

// Op is a single run of an alignment operation.
type Op struct {
	Len  int64
	Kind Kind
}

// String returns the run as it appears in a CIGAR string (e.g. "8M").
func (o Op) String() string {
	return strconv.FormatInt(o.Len, 10) + o.Kind.String()
}

// Cigar is an ordered, left-to-right sequence of operations.
type Cigar []Op

// String renders the operations back into CIGAR text.
func (c Cigar) String() string {
	var sb strings.Builder
	for _, op := range c {
		sb.WriteString(op.String())
	}
	return sb.String()
}

// TranscriptLen returns the number of transcript bases covered (M + I).
func (c Cigar) TranscriptLen() int64 {
	var n int64
	for _, op := range c {
		if op.Kind.ConsumesTranscript() {
			n += op.Len
		}
	}
	return n
}

// GenomeLen returns the number of genomic bases spanned (M + D).
func (c Cigar) GenomeLen() int64 {
	var n int64
	for _, op := range c {
		if op.Kind.ConsumesGenome() {
			n += op.Len
		}
	}
	return n
}

// ErrInvalid is returned (wrapped in *Error) for any string that is not a valid CIGAR.
var ErrInvalid = errors.New("invalid cigar")

// Error describes why a CIGAR string was rejected.
type Error struct {
	Cigar   string // the rejected input
	Offset  int    // byte offset where parsing failed
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid cigar %q at offset %d: %s", e.Cigar, e.Offset, e.Message)
}

// Unwrap lets errors.Is match ErrInvalid.
func (e *Error) Unwrap() error {
	return ErrInvalid
}

// Parse validates raw and returns its operations in order.
// Adjacent runs of the same kind are kept as separate operations.
func Parse(raw string) (Cigar, error) {
	if raw == "" {
		return nil, &Error{Cigar: raw, Message: "empty string"}
	}

	ops := make(Cigar, 0, strings.Count(raw, "M")+strings.Count(raw, "I")+strings.Count(raw, "D"))
	i := 0
	for i < len(raw) {
		start := i
		if raw[i] == '0' {
			return nil, &Error{Cigar: raw, Offset: i, Message: "length must be positive without leading zero"}
		}

		var n int64
		for i < len(raw) && raw[i] >= '0' && raw[i] <= '9' {
			d := int64(raw[i] - '0')
			if n > (math.MaxInt64-d)/10 {
				return nil, &Error{Cigar: raw, Offset: start, Message: "length overflows"}
			}
			n = n*10 + d
			i++
		}
		if i == start {
			return nil, &Error{Cigar: raw, Offset: i, Message: fmt.Sprintf("expected length, found %q", raw[i])}
		}
		if i == len(raw) {
			return nil, &Error{Cigar: raw, Offset: i, Message: "missing operator after length"}
		}
		if !isKind(raw[i]) {
			return nil, &Error{Cigar: raw, Offset: i, Message: fmt.Sprintf("unsupported operator %q", raw[i])}
		}

		ops = append(ops, Op{Len: n, Kind: Kind(raw[i])})
		i++
	}

	return ops, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(raw string) Cigar {
	c, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return c
}
