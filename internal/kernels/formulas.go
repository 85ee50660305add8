package kernels

import "math"

const longWordThreshold = 6 // chars; same threshold LIX and RIX share

// Counts is the set of raw measurements every formula reduces to: word
// count W, sentence count S, long-word count L (>6 chars), complex-word
// count X (syllables >= 3), total syllables Y, and total character count C.
type Counts struct {
	W int
	S int
	L int
	X int
	Y int
	C int
}

// CountsFromWords derives Counts from a word slice and sentence count,
// counting long words, complex words, syllables, and characters in a
// single pass.
func CountsFromWords(words []string, sentenceCount int) Counts {
	c := Counts{W: len(words), S: sentenceCount}
	for _, w := range words {
		n := len([]rune(w))
		c.C += n
		if n > longWordThreshold {
			c.L++
		}
		syll := CountSyllables(w)
		c.Y += syll
		if syll >= 3 {
			c.X++
		}
	}
	return c
}

// LIX computes the Läsbarhetsindex: average sentence length plus the
// percentage of long words.
func LIX(c Counts) float64 {
	if c.W == 0 || c.S == 0 {
		return 0
	}
	return float64(c.W)/float64(c.S) + 100*float64(c.L)/float64(c.W)
}

// RIX is long words per sentence.
func RIX(c Counts) float64 {
	if c.S == 0 {
		return 0
	}
	return float64(c.L) / float64(c.S)
}

// SMOG estimates grade level from complex-word density.
func SMOG(c Counts) float64 {
	if c.S == 0 || c.W == 0 {
		return 0
	}
	return 1.043*math.Sqrt(float64(c.X)*30/float64(c.S)) + 3.1291
}

// ColemanLiau estimates grade level from average word length and sentences
// per hundred words.
func ColemanLiau(c Counts) float64 {
	if c.W == 0 {
		return 0
	}
	avgWordLen := float64(c.C) / float64(c.W)
	sentencesPer100 := float64(c.S) / float64(c.W) * 100
	return 0.0588*(avgWordLen*100) - 0.296*sentencesPer100 - 15.8
}

// Flesch is the reading-ease score, 0-100, higher is easier.
func Flesch(c Counts) float64 {
	if c.W == 0 || c.S == 0 {
		return 0
	}
	return 206.835 - 1.015*(float64(c.W)/float64(c.S)) - 84.6*(float64(c.Y)/float64(c.W))
}

// FleschKincaid is the grade-level variant of Flesch.
func FleschKincaid(c Counts) float64 {
	if c.W == 0 || c.S == 0 {
		return 0
	}
	return 0.39*(float64(c.W)/float64(c.S)) + 11.8*(float64(c.Y)/float64(c.W)) - 15.59
}

// Fog is the Gunning Fog index.
func Fog(c Counts) float64 {
	if c.W == 0 || c.S == 0 {
		return 0
	}
	return 0.4 * (float64(c.W)/float64(c.S) + 100*float64(c.X)/float64(c.W))
}

// ARI is the Automated Readability Index.
func ARI(c Counts) float64 {
	if c.W == 0 || c.S == 0 {
		return 0
	}
	return 4.71*(float64(c.C)/float64(c.W)) + 0.5*(float64(c.W)/float64(c.S)) - 21.43
}

func round(v float64, places int) float64 {
	mult := math.Pow(10, float64(places))
	return math.Round(v*mult) / mult
}
