// Package store holds the deck collection: the single mutable piece
// of state in the application. Every mutation builds fresh deck
// snapshots (copy-on-write) so readers never observe a partially
// updated deck, and is persisted synchronously to the key-value store.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TaughtMe/LernBox/internal/domain"
)

// StorageKey is the key the deck collection is persisted under.
const StorageKey = "lernbox-decks"

var (
	ErrDeckNotFound = errors.New("deck not found")
	ErrCardNotFound = errors.New("card not found")
)

// KV is the persistence collaborator: an opaque key-value store of
// JSON-serializable values. *storage.DB satisfies it.
type KV interface {
	Save(key string, value any) error
	Load(key string, out any) (bool, error)
}

// Store owns the deck collection and its mutation API. It replaces
// the ambient UI-framework context of the original design with an
// explicit, injectable object.
type Store struct {
	mu     sync.Mutex
	decks  []domain.Deck
	kv     KV
	logger *zap.Logger

	defaultLangFront string
	defaultLangBack  string
}

// New creates a store backed by the given key-value store and loads
// any previously persisted deck collection.
func New(kv KV, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		kv:               kv,
		logger:           logger,
		defaultLangFront: domain.DefaultLangFront,
		defaultLangBack:  domain.DefaultLangBack,
	}

	var decks []domain.Deck
	found, err := kv.Load(StorageKey, &decks)
	if err != nil {
		return nil, fmt.Errorf("failed to load deck collection: %w", err)
	}
	if found {
		for i := range decks {
			for j := range decks[i].Cards {
				decks[i].Cards[j].Level = domain.ClampLevel(decks[i].Cards[j].Level)
			}
		}
		s.decks = decks
		logger.Info("deck collection loaded", zap.Int("decks", len(decks)))
	}
	return s, nil
}

// Decks returns a snapshot of every deck. The caller owns the copy.
func (s *Store) Decks() []domain.Deck {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Deck, len(s.decks))
	for i, d := range s.decks {
		out[i] = d.Clone()
	}
	return out
}

// Deck returns a snapshot of one deck.
func (s *Store) Deck(deckID string) (domain.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.decks {
		if d.ID == deckID {
			return d.Clone(), nil
		}
	}
	return domain.Deck{}, ErrDeckNotFound
}

// SetDefaultLanguages overrides the language tags new decks start
// with. Empty values keep the current defaults.
func (s *Store) SetDefaultLanguages(front, back string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if front != "" {
		s.defaultLangFront = front
	}
	if back != "" {
		s.defaultLangBack = back
	}
}

// CreateDeck adds an empty deck with default language tags.
func (s *Store) CreateDeck(title string) (domain.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deck := domain.Deck{
		ID:        uuid.NewString(),
		Title:     title,
		LangFront: s.defaultLangFront,
		LangBack:  s.defaultLangBack,
		Cards:     []domain.Card{},
	}

	if err := s.commitLocked(append(cloneDecks(s.decks), deck)); err != nil {
		return domain.Deck{}, err
	}
	return deck.Clone(), nil
}

// RenameDeck changes a deck's title.
func (s *Store) RenameDeck(deckID, title string) error {
	return s.mutateDeck(deckID, func(d *domain.Deck) error {
		d.Title = title
		return nil
	})
}

// SetLanguages changes the deck's front/back language tags.
func (s *Store) SetLanguages(deckID, langFront, langBack string) error {
	return s.mutateDeck(deckID, func(d *domain.Deck) error {
		d.LangFront = langFront
		d.LangBack = langBack
		return nil
	})
}

// DeleteDeck removes a deck and with it every card it owns.
func (s *Store) DeleteDeck(deckID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.Deck, 0, len(s.decks))
	found := false
	for _, d := range s.decks {
		if d.ID == deckID {
			found = true
			continue
		}
		next = append(next, d.Clone())
	}
	if !found {
		return ErrDeckNotFound
	}
	return s.commitLocked(next)
}

// AddCard appends a single card at level 1.
func (s *Store) AddCard(deckID string, content domain.CardContent) (domain.Card, error) {
	cards, err := s.AddManyCards(deckID, []domain.CardContent{content})
	if err != nil {
		return domain.Card{}, err
	}
	return cards[0], nil
}

// AddManyCards appends cards at level 1, preserving the given order.
// Every bulk ingestion path (codec import, CSV, XLSX) funnels through
// here; each call mints fresh unique ids and never reuses one.
func (s *Store) AddManyCards(deckID string, contents []domain.CardContent) ([]domain.Card, error) {
	newCards := make([]domain.Card, len(contents))
	for i, c := range contents {
		newCards[i] = domain.Card{
			ID:           uuid.NewString(),
			QuestionHTML: c.QuestionHTML,
			AnswerHTML:   c.AnswerHTML,
			Level:        domain.MinLevel,
		}
	}

	err := s.mutateDeck(deckID, func(d *domain.Deck) error {
		d.Cards = append(d.Cards, newCards...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newCards, nil
}

// UpdateCard replaces a card's content. The card's level is untouched:
// editing text does not reset learning progress.
func (s *Store) UpdateCard(deckID, cardID string, content domain.CardContent) error {
	return s.mutateDeck(deckID, func(d *domain.Deck) error {
		card := d.CardByID(cardID)
		if card == nil {
			return ErrCardNotFound
		}
		card.QuestionHTML = content.QuestionHTML
		card.AnswerHTML = content.AnswerHTML
		return nil
	})
}

// DeleteCard removes one card from a deck.
func (s *Store) DeleteCard(deckID, cardID string) error {
	return s.mutateDeck(deckID, func(d *domain.Deck) error {
		for i, c := range d.Cards {
			if c.ID == cardID {
				d.Cards = append(d.Cards[:i], d.Cards[i+1:]...)
				return nil
			}
		}
		return ErrCardNotFound
	})
}

// SetCardLevel records the outcome of a review by storing the card's
// new mastery level.
func (s *Store) SetCardLevel(deckID, cardID string, level int) error {
	return s.mutateDeck(deckID, func(d *domain.Deck) error {
		card := d.CardByID(cardID)
		if card == nil {
			return ErrCardNotFound
		}
		card.Level = domain.ClampLevel(level)
		return nil
	})
}

// ReplaceAll swaps in a whole deck collection, used by backup restore.
// Card levels are clamped on the way in.
func (s *Store) ReplaceAll(decks []domain.Deck) error {
	next := cloneDecks(decks)
	for i := range next {
		for j := range next[i].Cards {
			next[i].Cards[j].Level = domain.ClampLevel(next[i].Cards[j].Level)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(next)
}

// mutateDeck clones the collection, applies fn to the matching deck
// clone and persists. On any error the previous snapshot stays live.
func (s *Store) mutateDeck(deckID string, fn func(*domain.Deck) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneDecks(s.decks)
	for i := range next {
		if next[i].ID == deckID {
			if err := fn(&next[i]); err != nil {
				return err
			}
			return s.commitLocked(next)
		}
	}
	return ErrDeckNotFound
}

// commitLocked persists the candidate collection and only makes it
// the live snapshot once the write succeeded. A failed write leaves
// the previous snapshot untouched.
func (s *Store) commitLocked(next []domain.Deck) error {
	if err := s.kv.Save(StorageKey, next); err != nil {
		s.logger.Error("failed to persist deck collection", zap.Error(err))
		return fmt.Errorf("failed to persist deck collection: %w", err)
	}
	s.decks = next
	return nil
}

func cloneDecks(decks []domain.Deck) []domain.Deck {
	out := make([]domain.Deck, len(decks))
	for i, d := range decks {
		out[i] = d.Clone()
	}
	return out
}
