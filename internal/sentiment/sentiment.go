// Package sentiment scores the polarity of short user messages. It is only
// used to label history rows and to pick an emoji for agent replies.
package sentiment

import (
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`[a-z']+`)

var lexicon = map[string]float64{
	"good": 0.7, "great": 0.8, "nice": 0.6, "lovely": 0.5, "love": 0.5, "amazing": 0.6,
	"awesome": 1.0, "wonderful": 1.0, "beautiful": 0.85, "perfect": 1.0, "happy": 0.8,
	"glad": 0.5, "excited": 0.4, "pleasant": 0.73, "sunny": 0.3, "warm": 0.6, "thanks": 0.2,
	"thank": 0.2, "please": 0.1, "best": 1.0, "fine": 0.42, "fun": 0.3, "enjoy": 0.4,
	"bad": -0.7, "terrible": -1.0, "awful": -1.0, "horrible": -1.0, "hate": -0.8,
	"worst": -1.0, "sad": -0.5, "angry": -0.5, "annoying": -0.8, "miserable": -1.0,
	"gloomy": -0.6, "cold": -0.6, "freezing": -0.4, "stupid": -0.8, "ugly": -0.7,
	"worried": -0.4, "scared": -0.4, "disappointed": -0.75, "useless": -0.5, "wrong": -0.5,
}

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "don't": true, "isn't": true, "wasn't": true,
	"won't": true, "can't": true, "doesn't": true,
}

var intensifiers = map[string]float64{
	"very": 1.3, "really": 1.3, "so": 1.2, "extremely": 1.5, "super": 1.4,
}

// Polarity returns a score in [-1, 1]: the mean polarity of the sentiment
// words in text, or 0 when it has none.
func Polarity(text string) float64 {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	var total float64
	var count int
	for i, w := range words {
		score, ok := lexicon[w]
		if !ok {
			continue
		}
		if i > 0 {
			if boost, ok := intensifiers[words[i-1]]; ok {
				score *= boost
			}
		}
		if negated(words, i) {
			score *= -0.5
		}
		total += score
		count++
	}

	if count == 0 {
		return 0
	}
	return clamp(total / float64(count))
}

func negated(words []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-2; j-- {
		if negations[words[j]] {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// Label buckets a polarity score for storage.
func Label(score float64) string {
	switch {
	case score > 0.2:
		return "positive"
	case score < -0.2:
		return "negative"
	default:
		return "neutral"
	}
}

// Emoji decorates agent replies.
func Emoji(score float64) string {
	switch {
	case score > 0.3:
		return "😊"
	case score > 0.1:
		return "🙂"
	case score < -0.3:
		return "😠"
	case score < -0.1:
		return "😕"
	default:
		return "😐"
	}
}
