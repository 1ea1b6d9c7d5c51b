// Package words holds the built-in word pools and the deck shuffle.
package words

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

var pools = map[Difficulty][]string{
	Easy: {
		"apple", "cat", "sun", "car", "house", "coffee", "dog", "book", "tree", "ball",
		"bread", "chair", "river", "phone", "shoe", "train", "pizza", "rain", "moon", "fish",
		"cake", "door", "milk", "bird", "snow", "hat", "boat", "clock", "cheese", "bed",
	},
	Medium: {
		"internet", "reactor", "dream", "bridge", "festival", "library", "volcano", "passport",
		"orchestra", "umbrella", "lighthouse", "astronaut", "penguin", "carnival", "compass",
		"backpack", "waterfall", "museum", "keyboard", "pyramid", "submarine", "tornado",
		"vampire", "wizard", "parachute", "dentist", "skyscraper", "magnet", "harbor", "jungle",
	},
	Hard: {
		"nostalgia", "democracy", "gravity", "algorithm", "irony", "bureaucracy", "metaphor",
		"inflation", "procrastination", "renaissance", "paradox", "ecosystem", "sarcasm",
		"philosophy", "quarantine", "hypothesis", "diplomacy", "entropy", "symphony", "mirage",
		"loyalty", "monopoly", "evolution", "camouflage", "etiquette", "sovereignty",
		"placebo", "deja vu", "insomnia", "utopia",
	},
}

// Valid reports whether d names a known pool.
func (d Difficulty) Valid() bool {
	_, ok := pools[d]
	return ok
}

// Pool returns a copy of the word list for d.
func Pool(d Difficulty) ([]string, error) {
	list, ok := pools[d]
	if !ok {
		return nil, fmt.Errorf("unknown difficulty %q", d)
	}
	return slices.Clone(list), nil
}

// Intn returns a uniform integer in [0, n).
type Intn func(n int) int

// Shuffle permutes s in place with Fisher-Yates: for i from the last index down
// to 1, swap s[i] with a uniformly chosen s[j], j <= i.
func Shuffle[T any](s []T, intn Intn) {
	if intn == nil {
		intn = rand.IntN
	}
	for i := len(s) - 1; i > 0; i-- {
		j := intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// NewDeck returns a freshly shuffled copy of the pool for d.
func NewDeck(d Difficulty, intn Intn) ([]string, error) {
	deck, err := Pool(d)
	if err != nil {
		return nil, err
	}
	Shuffle(deck, intn)
	return deck, nil
}
