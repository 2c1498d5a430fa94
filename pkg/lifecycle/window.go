package lifecycle

import (
	"slices"
	"strings"
	"time"
)

// DateLayout is the date format embedded in index names (YYYY.MM.DD).
const DateLayout = "2006.01.02"

// IndexName returns the index name for prefix on the calendar date of t.
func IndexName(prefix string, t time.Time) string {
	return prefix + "-" + t.Format(DateLayout)
}

// AcceptableIndices returns the index names for the days most recent
// calendar dates, starting with the date of now and walking backwards.
// The result is ordered newest first and is empty when days <= 0.
//
// Dates are computed in the location of now, so callers passing time.Now()
// get the process's local timezone.
func AcceptableIndices(prefix string, days int, now time.Time) []string {
	if days <= 0 {
		return []string{}
	}

	names := make([]string, 0, days)
	for i := 0; i < days; i++ {
		names = append(names, IndexName(prefix, now.AddDate(0, 0, -i)))
	}
	return names
}

// FilterManaged returns the names that start with prefix, in input order.
func FilterManaged(names []string, prefix string) []string {
	managed := make([]string, 0, len(names))
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			managed = append(managed, name)
		}
	}
	return managed
}

// Difference returns the elements of a that are not in b, preserving the
// order of a. Duplicates in a are kept.
func Difference(a, b []string) []string {
	exclude := make(map[string]struct{}, len(b))
	for _, name := range b {
		exclude[name] = struct{}{}
	}

	out := make([]string, 0, len(a))
	for _, name := range a {
		if _, ok := exclude[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// ChunkIndices splits names into groups of at most size and joins each group
// with commas, ready to be used as a single path segment.
//
//	["a", "b", "c"], 2 => ["a,b", "c"]
func ChunkIndices(names []string, size int) []string {
	if size <= 0 {
		size = DefaultDeleteBatchSize
	}

	chunks := make([]string, 0, (len(names)+size-1)/size)
	for group := range slices.Chunk(names, size) {
		chunks = append(chunks, strings.Join(group, ","))
	}
	return chunks
}
