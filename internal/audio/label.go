package audio

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// labelKeys is the property priority list; earlier keys win score ties.
var labelKeys = []string{
	"alsa.card_name",
	"alsa.long_card_name",
	"node.name",
	"node.nick",
	"device.name",
	"device.nick",
	"device.description",
	"device.serial",
}

var labelPenalties = []struct {
	char   string
	weight int
}{
	{".", -50},
	{"_", -10},
	{":", -25},
	{";", -100},
	{"-", -5},
}

const (
	labelLengthWeight = -5
	labelMinLength    = 3
)

// BestLabel picks the most human-readable value from a device property bag.
//
// Lengths count characters, not bytes. Short values without technical punctuation score highest. The second result is
// false when no property of at least three characters exists.
func BestLabel(props map[string]string) (string, bool) {
	type candidate struct {
		score int
		value string
	}

	candidates := make([]candidate, 0, len(labelKeys))
	for _, key := range labelKeys {
		value, ok := props[key]
		if !ok || utf8.RuneCountInString(value) < labelMinLength {
			continue
		}
		candidates = append(candidates, candidate{score: labelScore(value), value: value})
	}

	if len(candidates) == 0 {
		return "", false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	return candidates[0].value, true
}

func labelScore(value string) int {
	score := utf8.RuneCountInString(value) * labelLengthWeight
	for _, penalty := range labelPenalties {
		score += strings.Count(value, penalty.char) * penalty.weight
	}
	return score
}
