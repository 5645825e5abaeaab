package domain

// Deck owns an ordered list of cards. Card order is insertion order;
// it is stable under addition and removal.
type Deck struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	LangFront string `json:"langFront"`
	LangBack  string `json:"langBack"`
	Cards     []Card `json:"cards"`
}

// Default language tags for new decks.
const (
	DefaultLangFront = "de"
	DefaultLangBack  = "en"
)

// Clone returns a deep copy of the deck. Mutating the copy never
// touches the original, which is what makes copy-on-write snapshots
// safe to hand to readers.
func (d Deck) Clone() Deck {
	out := d
	out.Cards = make([]Card, len(d.Cards))
	copy(out.Cards, d.Cards)
	return out
}

// CardByID returns the card with the given id, or nil.
func (d Deck) CardByID(id string) *Card {
	for i := range d.Cards {
		if d.Cards[i].ID == id {
			return &d.Cards[i]
		}
	}
	return nil
}

// CardsAtLevel returns the cards whose level matches. A nil filter
// returns every card.
func (d Deck) CardsAtLevel(level *int) []Card {
	if level == nil {
		out := make([]Card, len(d.Cards))
		copy(out, d.Cards)
		return out
	}
	var out []Card
	for _, c := range d.Cards {
		if c.Level == *level {
			out = append(out, c)
		}
	}
	return out
}

// LevelCounts reports how many cards sit at each level 1..MaxLevel.
// Index 0 of the result corresponds to level 1.
func (d Deck) LevelCounts() [MaxLevel]int {
	var counts [MaxLevel]int
	for _, c := range d.Cards {
		l := ClampLevel(c.Level)
		counts[l-1]++
	}
	return counts
}
