// Package leitner implements the fixed-weight lottery that decides
// which card a learning session shows next, and the level transition
// applied after an answer. Both functions are pure: no history, no
// repetition suppression. The same card may be drawn on consecutive
// turns, which is intended behavior.
package leitner

import (
	"math/rand"

	"github.com/TaughtMe/LernBox/internal/domain"
)

// levelWeights biases selection toward cards the learner knows poorly.
// Level 1 cards are sixteen times as likely as level 5 cards.
var levelWeights = map[int]int{
	1: 16,
	2: 8,
	3: 4,
	4: 2,
	5: 1,
}

// Weight returns the lottery weight for a level. Levels outside the
// table get weight 1 so a corrupted card can still be drawn.
func Weight(level int) int {
	if w, ok := levelWeights[level]; ok {
		return w
	}
	return 1
}

// RandFunc supplies uniform randomness in [0, 1). It exists so tests
// can drive selection deterministically.
type RandFunc func() float64

// DefaultRand draws from the shared math/rand source.
func DefaultRand() float64 {
	return rand.Float64()
}

// SelectNextCard picks the next card to show using a weighted random
// draw over the given cards. It returns nil only for an empty input;
// for a non-empty input it always returns one of the given cards.
func SelectNextCard(cards []domain.Card, random RandFunc) *domain.Card {
	if len(cards) == 0 {
		return nil
	}
	if random == nil {
		random = DefaultRand
	}

	totalWeight := 0
	for _, c := range cards {
		totalWeight += Weight(c.Level)
	}

	r := random() * float64(totalWeight)
	for i := range cards {
		r -= float64(Weight(cards[i].Level))
		if r <= 0 {
			return &cards[i]
		}
	}

	// Floating-point slack can leave r marginally positive after the
	// loop. Fall back to the last card rather than failing.
	return &cards[len(cards)-1]
}

// NextLevel computes a card's level after an answer. A correct answer
// promotes by one up to MaxLevel; a wrong answer resets to level 1
// unconditionally. There is no partial credit.
func NextLevel(level int, wasCorrect bool) int {
	if !wasCorrect {
		return domain.MinLevel
	}
	return domain.ClampLevel(level + 1)
}
