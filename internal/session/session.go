// Package session drives one bounded review pass over a deck: pick a
// card, present it, record the answer, repeat until the planned number
// of steps is reached. A session is ephemeral; abandoning it is simply
// dropping the value.
package session

import (
	"errors"

	"github.com/TaughtMe/LernBox/internal/domain"
	"github.com/TaughtMe/LernBox/internal/leitner"
	"github.com/TaughtMe/LernBox/internal/sanitize"
	"github.com/TaughtMe/LernBox/internal/store"
)

// Phase is the observable state of a session.
type Phase int

const (
	// PhasePresenting shows one side of the current card. In reveal
	// mode the card can be flipped; in write mode the learner types.
	PhasePresenting Phase = iota
	// PhaseFlipped shows the hidden side, awaiting self-grading
	// (reveal mode only).
	PhaseFlipped
	// PhaseChecked shows the verdict on a written answer, with the
	// card flipped and further edits locked (write mode only).
	PhaseChecked
	// PhaseFinished reports the session summary.
	PhaseFinished
	// PhaseNotFound is the terminal state entered when the deck the
	// session refers to no longer exists.
	PhaseNotFound
)

// Feedback is the verdict on a written answer.
type Feedback int

const (
	FeedbackNone Feedback = iota
	FeedbackCorrect
	FeedbackIncorrect
)

var (
	// ErrBadTransition signals an action that the current phase does
	// not allow, e.g. evaluating before revealing.
	ErrBadTransition = errors.New("session: action not allowed in current state")
)

// Options fixes a session's parameters at creation.
type Options struct {
	DeckID      string
	LevelFilter *int // nil reviews the whole deck
	Direction   domain.Direction
	Mode        domain.Mode
	// Random drives card selection and mixed-direction coin flips.
	// Nil uses the default source.
	Random leitner.RandFunc
}

// Session is one bounded run of repeated card presentations against a
// fixed planned total. Not safe for concurrent use; the surface layer
// serializes access per session.
type Session struct {
	store *store.Store
	opts  Options

	phase         Phase
	plannedTotal  int
	stepsTaken    int
	masteredCount int

	current       *domain.Card
	showQuestion  bool // which side is the face this turn
	written       string
	feedback      Feedback
	deckTitle     string
	deckLangFront string
	deckLangBack  string
}

// New starts a session. The planned total is fixed to the number of
// cards matching the level filter at this moment and is never
// recomputed, even if the underlying deck changes mid-session.
func New(st *store.Store, opts Options) *Session {
	if opts.Direction == "" {
		opts.Direction = domain.FrontToBack
	}
	if opts.Mode == "" {
		opts.Mode = domain.ModeReveal
	}
	if opts.Random == nil {
		opts.Random = leitner.DefaultRand
	}

	s := &Session{store: st, opts: opts}

	deck, err := st.Deck(opts.DeckID)
	if err != nil {
		s.phase = PhaseNotFound
		return s
	}
	s.deckTitle = deck.Title
	s.deckLangFront = deck.LangFront
	s.deckLangBack = deck.LangBack

	eligible := deck.CardsAtLevel(opts.LevelFilter)
	s.plannedTotal = len(eligible)
	if s.plannedTotal == 0 {
		s.phase = PhaseFinished
		return s
	}

	s.loadNext()
	return s
}

// loadNext draws the next card from the current filtered set. The set
// may have shrunk since session start; plannedTotal stays fixed.
func (s *Session) loadNext() {
	deck, err := s.store.Deck(s.opts.DeckID)
	if err != nil {
		s.phase = PhaseNotFound
		return
	}

	eligible := deck.CardsAtLevel(s.opts.LevelFilter)
	card := leitner.SelectNextCard(eligible, s.opts.Random)
	if card == nil {
		s.phase = PhaseFinished
		return
	}

	s.current = card
	s.stepsTaken++
	s.written = ""
	s.feedback = FeedbackNone
	s.phase = PhasePresenting

	switch s.opts.Direction {
	case domain.BackToFront:
		s.showQuestion = false
	case domain.Mixed:
		s.showQuestion = s.opts.Random() < 0.5
	default:
		s.showQuestion = true
	}
}

// RevealAnswer flips the card (reveal mode only).
func (s *Session) RevealAnswer() error {
	if s.opts.Mode != domain.ModeReveal || s.phase != PhasePresenting {
		return ErrBadTransition
	}
	s.phase = PhaseFlipped
	return nil
}

// FlipBack turns the card back to its face without grading, so the
// learner can compare sides before deciding.
func (s *Session) FlipBack() error {
	if s.opts.Mode != domain.ModeReveal || s.phase != PhaseFlipped {
		return ErrBadTransition
	}
	s.phase = PhasePresenting
	return nil
}

// Evaluate records a self-graded answer: the card's level moves per
// the Leitner rule and the session advances or finishes.
func (s *Session) Evaluate(wasCorrect bool) error {
	if s.opts.Mode != domain.ModeReveal || s.phase != PhaseFlipped {
		return ErrBadTransition
	}
	return s.finishTurn(wasCorrect)
}

// CheckWrittenAnswer compares the typed text against the hidden side
// (write mode only). It flips the card, locks the input and records
// the verdict; progression happens on Advance.
func (s *Session) CheckWrittenAnswer(text string) error {
	if s.opts.Mode != domain.ModeWrite || s.phase != PhasePresenting {
		return ErrBadTransition
	}

	expected := s.current.AnswerHTML
	if !s.showQuestion {
		expected = s.current.QuestionHTML
	}

	s.written = text
	if sanitize.AnswersMatch(text, expected) {
		s.feedback = FeedbackCorrect
	} else {
		s.feedback = FeedbackIncorrect
	}
	s.phase = PhaseChecked
	return nil
}

// Advance applies the checked verdict and moves on (write mode only).
func (s *Session) Advance() error {
	if s.opts.Mode != domain.ModeWrite || s.phase != PhaseChecked {
		return ErrBadTransition
	}
	return s.finishTurn(s.feedback == FeedbackCorrect)
}

// finishTurn applies the level update and either loads the next turn
// or terminates the session once the planned total is reached.
func (s *Session) finishTurn(wasCorrect bool) error {
	newLevel := leitner.NextLevel(s.current.Level, wasCorrect)
	err := s.store.SetCardLevel(s.opts.DeckID, s.current.ID, newLevel)
	switch {
	case errors.Is(err, store.ErrDeckNotFound):
		s.phase = PhaseNotFound
		return nil
	case errors.Is(err, store.ErrCardNotFound):
		// Card deleted mid-session. The level update is lost but the
		// session itself continues.
	case err != nil:
		return err
	}

	if wasCorrect {
		s.masteredCount++
	}

	if s.stepsTaken >= s.plannedTotal {
		s.current = nil
		s.phase = PhaseFinished
		return nil
	}

	s.loadNext()
	return nil
}

// Phase returns the session's observable state.
func (s *Session) Phase() Phase { return s.phase }

// IsFinished reports whether the session reached a terminal state.
func (s *Session) IsFinished() bool {
	return s.phase == PhaseFinished || s.phase == PhaseNotFound
}

// TurnView is what the rendering layer needs for the current turn.
// FaceHTML is the side shown first this turn, BackHTML the hidden
// side; both are raw card content and must go through the sanitizer
// before rendering.
type TurnView struct {
	CardID       string
	FaceHTML     string
	BackHTML     string
	FaceLang     string
	BackLang     string
	ShowQuestion bool
	Flipped      bool
	Written      string
	Feedback     Feedback
}

// Turn returns the current turn, or false in a terminal state.
func (s *Session) Turn() (TurnView, bool) {
	if s.current == nil || s.IsFinished() {
		return TurnView{}, false
	}

	view := TurnView{
		CardID:       s.current.ID,
		ShowQuestion: s.showQuestion,
		Flipped:      s.phase == PhaseFlipped || s.phase == PhaseChecked,
		Written:      s.written,
		Feedback:     s.feedback,
	}
	if s.showQuestion {
		view.FaceHTML = s.current.QuestionHTML
		view.BackHTML = s.current.AnswerHTML
		view.FaceLang = s.deckLangFront
		view.BackLang = s.deckLangBack
	} else {
		view.FaceHTML = s.current.AnswerHTML
		view.BackHTML = s.current.QuestionHTML
		view.FaceLang = s.deckLangBack
		view.BackLang = s.deckLangFront
	}
	return view, true
}

// Progress summarises the session so far.
type Progress struct {
	PlannedTotal  int
	StepsTaken    int
	MasteredCount int
}

// Progress returns the running totals; after PhaseFinished it is the
// final summary.
func (s *Session) Progress() Progress {
	return Progress{
		PlannedTotal:  s.plannedTotal,
		StepsTaken:    s.stepsTaken,
		MasteredCount: s.masteredCount,
	}
}

// DeckTitle returns the deck title captured at session start.
func (s *Session) DeckTitle() string { return s.deckTitle }

// Mode returns the session's interaction mode.
func (s *Session) Mode() domain.Mode { return s.opts.Mode }
