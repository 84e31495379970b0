package replace

import (
	"bytes"
	"sort"

	"github.com/tidesearch/rff/internal/matchmodel"
)

// RunInMemory mirrors Run's conflict-detection and rewrite logic for
// results that have no backing file (matchmodel.SearchResult.HasPath ==
// false, the shape search.Searcher.SearchStdin produces): every included
// match is applied directly to data and the rewritten bytes are returned
// alongside results with Outcome populated, the same contract Run gives
// its file-backed callers.
func RunInMemory(data []byte, results []matchmodel.SearchResultWithReplacement) ([]byte, []matchmodel.SearchResultWithReplacement) {
	out := make([]matchmodel.SearchResultWithReplacement, len(results))
	copy(out, results)

	all := make([]int, len(out))
	for i := range all {
		all[i] = i
	}

	for _, i := range all {
		if !out[i].Result.Included {
			out[i].Outcome = matchmodel.ReplaceOutcome{Status: matchmodel.StatusIgnored}
		}
	}

	kind, ok := uniformKind(all, out)
	if !ok {
		setError(all, out, matchmodel.ErrIO, "mixed match-content kinds for stdin buffer")
		return append([]byte(nil), data...), out
	}

	var rewritten []byte
	if kind == matchmodel.KindLines {
		detectLineConflicts(all, out)
		rewritten = rewriteLinesInMemory(data, out)
	} else {
		detectByteRangeConflicts(all, out)
		rewritten = rewriteByteRangesInMemory(data, out)
	}

	setUnresolved(all, out, matchmodel.ErrNotProcessed, "not processed")
	return rewritten, out
}

func rewriteLinesInMemory(data []byte, out []matchmodel.SearchResultWithReplacement) []byte {
	byLine := make(map[int]int)
	for _, i := range pendingIndices(indexRange(len(out)), out) {
		byLine[out[i].Result.Content.Lines.LineNumber] = i
	}

	var dst bytes.Buffer
	lineNumber := 0
	for _, chunk := range splitKeepEndings(data) {
		lineNumber++
		idx, wanted := byLine[lineNumber]
		if !wanted {
			dst.Write(chunk.content)
			dst.Write(chunk.ending)
			continue
		}

		if !bytes.Equal(chunk.content, out[idx].Result.Content.Lines.Content) {
			out[idx].Outcome = matchmodel.ReplaceOutcome{Status: matchmodel.StatusError, Kind: matchmodel.ErrFileChanged, Detail: "buffer changed"}
			dst.Write(chunk.content)
			dst.Write(chunk.ending)
			continue
		}

		dst.Write(out[idx].Replacement)
		dst.Write(chunk.ending)
		out[idx].Outcome = matchmodel.ReplaceOutcome{Status: matchmodel.StatusSuccess}
	}

	return dst.Bytes()
}

func rewriteByteRangesInMemory(data []byte, out []matchmodel.SearchResultWithReplacement) []byte {
	pending := pendingIndices(indexRange(len(out)), out)
	sort.SliceStable(pending, func(a, b int) bool {
		return out[pending[a]].Result.Content.ByteRange.ByteStart < out[pending[b]].Result.Content.ByteRange.ByteStart
	})

	var dst bytes.Buffer
	var pos int64
	for _, idx := range pending {
		rng := out[idx].Result.Content.ByteRange
		dst.Write(data[pos:rng.ByteStart])

		actual := data[rng.ByteStart:rng.ByteEnd]
		if !bytes.Equal(actual, rng.ExpectedContent) {
			dst.Write(actual)
			out[idx].Outcome = matchmodel.ReplaceOutcome{Status: matchmodel.StatusError, Kind: matchmodel.ErrFileChanged, Detail: "buffer changed"}
			pos = rng.ByteEnd
			continue
		}

		dst.Write(out[idx].Replacement)
		out[idx].Outcome = matchmodel.ReplaceOutcome{Status: matchmodel.StatusSuccess}
		pos = rng.ByteEnd
	}
	dst.Write(data[pos:])

	return dst.Bytes()
}

func indexRange(n int) []int {
	idxs := make([]int, n)
	for i := range idxs {
		idxs[i] = i
	}
	return idxs
}

type lineChunk struct {
	content []byte
	ending  []byte
}

// splitKeepEndings splits data into lines, keeping each terminator
// separate from its content so the caller can compare content without
// the ending and re-emit the original ending byte-for-byte, recognizing
// \r\n, \n, and a lone \r exactly as fsutil.LineReader does for
// file-backed input.
func splitKeepEndings(data []byte) []lineChunk {
	var chunks []lineChunk
	start := 0
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '\n':
			chunks = append(chunks, lineChunk{content: data[start:i], ending: data[i : i+1]})
			start = i + 1
		case '\r':
			end := i + 1
			if end < len(data) && data[end] == '\n' {
				end++
			}
			chunks = append(chunks, lineChunk{content: data[start:i], ending: data[i:end]})
			start = end
			i = end - 1
		}
	}
	if start < len(data) {
		chunks = append(chunks, lineChunk{content: data[start:], ending: nil})
	}
	return chunks
}
