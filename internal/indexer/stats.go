package indexer

import (
	"math"
	"sort"
	"unicode/utf8"

	"ubreader/internal/document"
)

// Stats summarises one index build.
type Stats struct {
	// FilesScanned is the number of supported files found under the content root.
	FilesScanned int `json:"files_scanned"`
	// Documents is the number of searchable records produced.
	Documents int `json:"documents"`
	// Failures is the number of files that could not be read or transformed.
	Failures int `json:"failures"`
	// ByType counts documents per classified type.
	ByType map[document.DocType]int `json:"by_type"`
	// ContentRunes describes content length in runes.
	ContentRunes SizeStats `json:"content_runes"`
	// ExcerptRunes describes excerpt length in runes.
	ExcerptRunes SizeStats `json:"excerpt_runes"`
}

// SizeStats contains distribution statistics for a length measure.
type SizeStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// ComputeStats summarises docs built from filesScanned source files.
func ComputeStats(filesScanned int, docs []document.SearchableDocument) Stats {
	stats := Stats{
		FilesScanned: filesScanned,
		Documents:    len(docs),
		Failures:     max(filesScanned-len(docs), 0),
		ByType:       make(map[document.DocType]int),
	}

	contentSizes := make([]int, 0, len(docs))
	excerptSizes := make([]int, 0, len(docs))
	for _, doc := range docs {
		stats.ByType[doc.Type]++
		contentSizes = append(contentSizes, utf8.RuneCountInString(doc.Content))
		excerptSizes = append(excerptSizes, utf8.RuneCountInString(doc.Excerpt))
	}
	stats.ContentRunes = computeSizeStats(contentSizes)
	stats.ExcerptRunes = computeSizeStats(excerptSizes)
	return stats
}

// computeSizeStats computes min, max, mean, and p95 from sizes.
func computeSizeStats(sizes []int) SizeStats {
	if len(sizes) == 0 {
		return SizeStats{}
	}

	sorted := make([]int, len(sizes))
	copy(sorted, sizes)
	sort.Ints(sorted)

	sum := 0
	for _, n := range sizes {
		sum += n
	}
	mean := float64(sum) / float64(len(sizes))

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	if p95Index < 0 {
		p95Index = 0
	}

	return SizeStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100, // Round to 2 decimal places
		P95:  sorted[p95Index],
	}
}
