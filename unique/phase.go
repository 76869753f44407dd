package unique

import (
	"github.com/arloliu/bitrec/bloom"
	"github.com/arloliu/bitrec/internal/candidates"
)

// Phase is one step of a uniqueness check. The concrete types are PrePass1, *InPass1[T],
// *BetweenPasses, *InPass2, *PostPass2 and *DuplicateFound[T].
type Phase interface {
	String() string
	phase()
}

// PrePass1 is the initial phase; nothing is allocated yet.
type PrePass1 struct{}

// InPass1 feeds every value through the membership filter.
type InPass1[T any] struct {
	filter     *bloom.Filter[T]
	candidates *candidates.Tracker
	values     uint64
}

// BetweenPasses holds the candidates left by pass 1. The filter is gone.
type BetweenPasses struct {
	candidates *candidates.Tracker
}

// InPass2 counts sightings of the candidates.
type InPass2 struct {
	candidates *candidates.Tracker
	values     uint64
}

// PostPass2 is the terminal phase of a stream without duplicates.
type PostPass2 struct {
	// Passes is 1 when pass 1 left no candidates, else 2.
	Passes int
}

// DuplicateFound is the terminal phase of a stream with a repeated value.
type DuplicateFound[T any] struct {
	// Value is the second occurrence of the repeated value.
	Value T
	// Pass is the pass, 1 or 2, that found it.
	Pass int
	// Index is the position of Value in the stream.
	Index uint64
}

func (PrePass1) phase() {}

func (*InPass1[T]) phase() {}

func (*BetweenPasses) phase() {}

func (*InPass2) phase() {}

func (*PostPass2) phase() {}

func (*DuplicateFound[T]) phase() {}

func (PrePass1) String() string {
	return "PrePass1"
}

func (*InPass1[T]) String() string {
	return "InPass1"
}

func (*BetweenPasses) String() string {
	return "BetweenPasses"
}

func (*InPass2) String() string {
	return "InPass2"
}

func (*PostPass2) String() string {
	return "PostPass2"
}

func (*DuplicateFound[T]) String() string {
	return "DuplicateFound"
}

// Candidates returns the number of values pass 2 has to count.
func (p *BetweenPasses) Candidates() int { return p.candidates.Count() }

// Verdict is the outcome of a check.
type Verdict uint8

const (
	// Undecided means the check has not finished.
	Undecided Verdict = iota
	// Unique means no value occurs twice.
	Unique
	// Duplicate means some value occurs at least twice.
	Duplicate
)

func (v Verdict) String() string {
	switch v {
	case Unique:
		return "Unique"
	case Duplicate:
		return "Duplicate"
	default:
		return "Undecided"
	}
}
