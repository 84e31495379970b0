// Package matchmodel holds the core data model shared by the Searcher,
// MatchStore, and Replacer: MatchContent, SearchResult, and the replace
// outcome types (spec.md §3). It intentionally has no dependency on the
// walk/search/replace packages so each of them can depend on it without a
// cycle, the same layering the teacher uses for internal/fs beneath both
// internal/search and internal/state.
package matchmodel

import "github.com/tidesearch/rff/internal/fsutil"

// ContentKind distinguishes the two MatchContent variants.
type ContentKind int

const (
	// KindLines is "replace every occurrence of the pattern on this
	// line" — single-line, per-line search mode.
	KindLines ContentKind = iota
	// KindByteRange is "replace exactly these bytes" — multiline search
	// mode.
	KindByteRange
)

// LinesContent is the Lines variant of MatchContent.
type LinesContent struct {
	LineNumber int // 1-based
	Content    []byte
	Ending     fsutil.LineEnding
}

// ByteRangeContent is the ByteRange variant of MatchContent. ExpectedContent
// is exactly the bytes [ByteStart, ByteEnd) captured at search time.
type ByteRangeContent struct {
	StartLine, EndLine int
	ByteStart, ByteEnd int64
	ExpectedContent    []byte
}

// MatchContent is the tagged sum from spec.md §3. Exactly one of Lines or
// ByteRange is populated, selected by Kind.
type MatchContent struct {
	Kind      ContentKind
	Lines     LinesContent
	ByteRange ByteRangeContent
}

// LineNumber returns the content's primary line number regardless of
// variant (LinesContent.LineNumber, or ByteRangeContent.StartLine).
func (c MatchContent) LineNumber() int {
	if c.Kind == KindLines {
		return c.Lines.LineNumber
	}
	return c.ByteRange.StartLine
}

// SearchResult is one match found by the Searcher. Path is empty for a
// result read from standard input (spec.md's path = None).
type SearchResult struct {
	Path     string
	HasPath  bool
	Content  MatchContent
	Included bool
}

// ReplaceErrorKind enumerates the taxonomy of per-result replace failures
// (spec.md §7).
type ReplaceErrorKind int

const (
	ErrNone ReplaceErrorKind = iota
	ErrConflict
	ErrFileChanged
	ErrIO
	ErrNotProcessed
)

func (k ReplaceErrorKind) String() string {
	switch k {
	case ErrConflict:
		return "conflict"
	case ErrFileChanged:
		return "file changed"
	case ErrIO:
		return "io"
	case ErrNotProcessed:
		return "not processed"
	default:
		return "none"
	}
}

// OutcomeStatus is the Success/Ignored/Error tag of ReplaceOutcome.
type OutcomeStatus int

const (
	StatusPending OutcomeStatus = iota
	StatusSuccess
	StatusIgnored
	StatusError
)

// ReplaceOutcome is Option<ReplaceOutcome> from spec.md §3, represented as
// a zero-value-is-pending struct so SearchResultWithReplacement.Outcome
// can default to "not yet visited by the Replacer" (I4).
type ReplaceOutcome struct {
	Status OutcomeStatus
	Kind   ReplaceErrorKind
	Detail string
}

// IsSet reports whether the Replacer has visited this result yet.
func (o ReplaceOutcome) IsSet() bool {
	return o.Status != StatusPending
}

// SearchResultWithReplacement pairs a SearchResult with its precomputed
// replacement bytes and (once the Replacer has run) its outcome.
type SearchResultWithReplacement struct {
	Result      SearchResult
	Replacement []byte
	Outcome     ReplaceOutcome
}
