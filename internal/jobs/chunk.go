package jobs

const maxChunkSize = 5

// ChunkPlan groups paragraphs into chunks of size max(1, paragraphs/10)
// capped at maxChunkSize, per spec.md §4.7.
func ChunkPlan(paragraphs []string) [][]string {
	if len(paragraphs) == 0 {
		return nil
	}
	size := len(paragraphs) / 10
	if size < 1 {
		size = 1
	}
	if size > maxChunkSize {
		size = maxChunkSize
	}

	var chunks [][]string
	for i := 0; i < len(paragraphs); i += size {
		end := i + size
		if end > len(paragraphs) {
			end = len(paragraphs)
		}
		chunks = append(chunks, paragraphs[i:end])
	}
	return chunks
}

// IsMilestone reports whether a chunk is a recommendation milestone: the
// final chunk, or one whose progress is an exact multiple of 50%.
func IsMilestone(progressPercent int, isFinal bool) bool {
	return isFinal || (progressPercent > 0 && progressPercent%50 == 0)
}

// IncludesStatistics reports whether a chunk should carry text-analysis
// statistics: every third chunk, plus the final one.
func IncludesStatistics(chunkNumber int, isFinal bool) bool {
	return isFinal || chunkNumber%3 == 0
}

