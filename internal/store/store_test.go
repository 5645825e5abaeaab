package store

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TaughtMe/LernBox/internal/domain"
)

// memKV is an in-memory stand-in for the sqlite store. It serializes
// through JSON like the real thing so persistence bugs still surface.
type memKV struct {
	values map[string]string
	saves  int
	failOn string
}

func newMemKV() *memKV {
	return &memKV{values: map[string]string{}}
}

func (m *memKV) Save(key string, value any) error {
	if m.failOn == key {
		return errors.New("kv write failed")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = string(raw)
	m.saves++
	return nil
}

func (m *memKV) Load(key string, out any) (bool, error) {
	raw, ok := m.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal([]byte(raw), out)
}

func newTestStore(t *testing.T) (*Store, *memKV) {
	t.Helper()
	kv := newMemKV()
	s, err := New(kv, nil)
	require.NoError(t, err)
	return s, kv
}

func TestCreateDeck_Defaults(t *testing.T) {
	s, _ := newTestStore(t)

	deck, err := s.CreateDeck("Englisch Lektion 5")
	require.NoError(t, err)

	assert.NotEmpty(t, deck.ID)
	assert.Equal(t, "Englisch Lektion 5", deck.Title)
	assert.Equal(t, domain.DefaultLangFront, deck.LangFront)
	assert.Equal(t, domain.DefaultLangBack, deck.LangBack)
	assert.Empty(t, deck.Cards)
}

func TestSetDefaultLanguages_AppliesToNewDecks(t *testing.T) {
	s, _ := newTestStore(t)
	s.SetDefaultLanguages("fr", "")

	deck, err := s.CreateDeck("Français")
	require.NoError(t, err)

	assert.Equal(t, "fr", deck.LangFront)
	assert.Equal(t, domain.DefaultLangBack, deck.LangBack, "empty value keeps the default")
}

func TestAddCard_StartsAtLevelOne(t *testing.T) {
	s, _ := newTestStore(t)
	deck, err := s.CreateDeck("d")
	require.NoError(t, err)

	card, err := s.AddCard(deck.ID, domain.CardContent{
		QuestionHTML: "<p>Hund</p>",
		AnswerHTML:   "<p>dog</p>",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, card.ID)
	assert.Equal(t, domain.MinLevel, card.Level)

	got, err := s.Deck(deck.ID)
	require.NoError(t, err)
	require.Len(t, got.Cards, 1)
	assert.Equal(t, card.ID, got.Cards[0].ID)
}

func TestAddManyCards_FreshUniqueIDs(t *testing.T) {
	s, _ := newTestStore(t)
	deck, err := s.CreateDeck("d")
	require.NoError(t, err)

	contents := []domain.CardContent{
		{QuestionHTML: "q1", AnswerHTML: "a1"},
		{QuestionHTML: "q2", AnswerHTML: "a2"},
	}

	first, err := s.AddManyCards(deck.ID, contents)
	require.NoError(t, err)
	second, err := s.AddManyCards(deck.ID, contents)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, c := range append(first, second...) {
		assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
		seen[c.ID] = true
	}

	got, err := s.Deck(deck.ID)
	require.NoError(t, err)
	assert.Len(t, got.Cards, 4)
	// Insertion order is preserved.
	assert.Equal(t, "q1", got.Cards[0].QuestionHTML)
	assert.Equal(t, "q2", got.Cards[1].QuestionHTML)
}

func TestUpdateCard_PreservesLevel(t *testing.T) {
	s, _ := newTestStore(t)
	deck, _ := s.CreateDeck("d")
	card, err := s.AddCard(deck.ID, domain.CardContent{QuestionHTML: "q", AnswerHTML: "a"})
	require.NoError(t, err)

	require.NoError(t, s.SetCardLevel(deck.ID, card.ID, 4))
	require.NoError(t, s.UpdateCard(deck.ID, card.ID, domain.CardContent{
		QuestionHTML: "q2", AnswerHTML: "a2",
	}))

	got, err := s.Deck(deck.ID)
	require.NoError(t, err)
	assert.Equal(t, "q2", got.Cards[0].QuestionHTML)
	assert.Equal(t, 4, got.Cards[0].Level, "editing content must not reset progress")
}

func TestSetCardLevel_Clamps(t *testing.T) {
	s, _ := newTestStore(t)
	deck, _ := s.CreateDeck("d")
	card, _ := s.AddCard(deck.ID, domain.CardContent{QuestionHTML: "q", AnswerHTML: "a"})

	require.NoError(t, s.SetCardLevel(deck.ID, card.ID, 99))
	got, _ := s.Deck(deck.ID)
	assert.Equal(t, domain.MaxLevel, got.Cards[0].Level)

	require.NoError(t, s.SetCardLevel(deck.ID, card.ID, -1))
	got, _ = s.Deck(deck.ID)
	assert.Equal(t, domain.MinLevel, got.Cards[0].Level)
}

func TestDeleteDeck_RemovesCards(t *testing.T) {
	s, _ := newTestStore(t)
	deck, _ := s.CreateDeck("d")
	_, err := s.AddCard(deck.ID, domain.CardContent{QuestionHTML: "q", AnswerHTML: "a"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteDeck(deck.ID))

	_, err = s.Deck(deck.ID)
	assert.ErrorIs(t, err, ErrDeckNotFound)
	assert.Empty(t, s.Decks())
}

func TestNotFoundErrors(t *testing.T) {
	s, _ := newTestStore(t)
	deck, _ := s.CreateDeck("d")

	assert.ErrorIs(t, s.RenameDeck("missing", "x"), ErrDeckNotFound)
	assert.ErrorIs(t, s.DeleteDeck("missing"), ErrDeckNotFound)
	assert.ErrorIs(t, s.DeleteCard(deck.ID, "missing"), ErrCardNotFound)
	assert.ErrorIs(t, s.UpdateCard(deck.ID, "missing", domain.CardContent{}), ErrCardNotFound)
	assert.ErrorIs(t, s.SetCardLevel(deck.ID, "missing", 2), ErrCardNotFound)
	_, err := s.AddManyCards("missing", []domain.CardContent{{QuestionHTML: "q", AnswerHTML: "a"}})
	assert.ErrorIs(t, err, ErrDeckNotFound)
}

func TestSnapshotIsolation(t *testing.T) {
	s, _ := newTestStore(t)
	deck, _ := s.CreateDeck("d")
	_, err := s.AddCard(deck.ID, domain.CardContent{QuestionHTML: "q", AnswerHTML: "a"})
	require.NoError(t, err)

	snapshot, err := s.Deck(deck.ID)
	require.NoError(t, err)

	// Mutating the snapshot must not leak into the store.
	snapshot.Cards[0].QuestionHTML = "tampered"
	snapshot.Title = "tampered"

	got, err := s.Deck(deck.ID)
	require.NoError(t, err)
	assert.Equal(t, "q", got.Cards[0].QuestionHTML)
	assert.Equal(t, "d", got.Title)
}

func TestPersistence_RoundTrip(t *testing.T) {
	kv := newMemKV()
	s, err := New(kv, nil)
	require.NoError(t, err)

	deck, _ := s.CreateDeck("d")
	_, err = s.AddCard(deck.ID, domain.CardContent{QuestionHTML: "q", AnswerHTML: "a"})
	require.NoError(t, err)

	// A second store over the same KV sees the persisted collection.
	s2, err := New(kv, nil)
	require.NoError(t, err)
	got, err := s2.Deck(deck.ID)
	require.NoError(t, err)
	assert.Len(t, got.Cards, 1)
}

func TestPersistFailure_KeepsPreviousSnapshot(t *testing.T) {
	kv := newMemKV()
	s, err := New(kv, nil)
	require.NoError(t, err)
	deck, _ := s.CreateDeck("d")

	kv.failOn = StorageKey
	_, err = s.AddCard(deck.ID, domain.CardContent{QuestionHTML: "q", AnswerHTML: "a"})
	assert.Error(t, err)

	kv.failOn = ""
	got, err := s.Deck(deck.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Cards, "failed mutation must not become visible")
}

func TestReplaceAll_ClampsLevels(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.ReplaceAll([]domain.Deck{{
		ID:    "restored",
		Title: "t",
		Cards: []domain.Card{{ID: "c1", Level: 0}, {ID: "c2", Level: 7}},
	}}))

	got, err := s.Deck("restored")
	require.NoError(t, err)
	assert.Equal(t, domain.MinLevel, got.Cards[0].Level)
	assert.Equal(t, domain.MaxLevel, got.Cards[1].Level)
}
