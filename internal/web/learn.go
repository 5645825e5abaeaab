package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TaughtMe/LernBox/internal/domain"
	"github.com/TaughtMe/LernBox/internal/session"
)

// liveSession pairs a session with its own lock. Sessions are not
// concurrency-safe, and the lock must cover the render too: the
// template reads Turn and Progress, which a concurrent action on the
// same id would otherwise mutate mid-render.
type liveSession struct {
	mu   sync.Mutex
	sess *session.Session
}

// handleStartSession creates a session from the form parameters and
// redirects to its page.
func (s *Server) handleStartSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		opts := session.Options{
			DeckID:    r.PostFormValue("deck"),
			Direction: parseDirection(r.PostFormValue("direction")),
			Mode:      parseMode(r.PostFormValue("mode")),
		}
		if levelStr := r.PostFormValue("level"); levelStr != "" && levelStr != "all" {
			level, err := strconv.Atoi(levelStr)
			if err != nil {
				http.Error(w, "Invalid level filter", http.StatusBadRequest)
				return
			}
			opts.LevelFilter = &level
		}

		sess := session.New(s.store, opts)
		if sess.Phase() == session.PhaseNotFound {
			http.NotFound(w, r)
			return
		}

		id := uuid.NewString()
		s.mu.Lock()
		s.sessions[id] = &liveSession{sess: sess}
		s.mu.Unlock()

		s.logger.Info("session started",
			zap.String("deck", opts.DeckID),
			zap.String("session", id),
			zap.Int("planned", sess.Progress().PlannedTotal))

		http.Redirect(w, r, "/learn/"+id, http.StatusSeeOther)
	}
}

// handleSession dispatches /learn/{sid}[/action]. Each session's lock
// is held from the action through the render, so concurrent requests
// on one id serialize fully. Terminal sessions are removed from the
// registry after their final render.
func (s *Server) handleSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/learn/")
		id, action, _ := strings.Cut(rest, "/")

		s.mu.Lock()
		live, ok := s.sessions[id]
		s.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}

		live.mu.Lock()
		defer live.mu.Unlock()
		sess := live.sess

		if action == "" {
			if r.Method != http.MethodGet {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			s.renderSession(w, id, sess)
			s.pruneIfFinished(id, sess)
			return
		}

		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var err error
		switch action {
		case "reveal":
			err = sess.RevealAnswer()
		case "flip":
			err = sess.FlipBack()
		case "evaluate":
			err = sess.Evaluate(r.PostFormValue("result") == "correct")
		case "check":
			err = sess.CheckWrittenAnswer(r.PostFormValue("answer"))
		case "advance":
			err = sess.Advance()
		case "quit":
			s.removeSession(id)
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		default:
			http.NotFound(w, r)
			return
		}

		switch {
		case errors.Is(err, session.ErrBadTransition):
			http.Error(w, "Action not allowed in current state", http.StatusConflict)
			return
		case err != nil:
			s.logger.Error("session action failed",
				zap.String("session", id), zap.String("action", action), zap.Error(err))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.renderSession(w, id, sess)
		s.pruneIfFinished(id, sess)
	}
}

func (s *Server) removeSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// pruneIfFinished drops a terminal session so the registry does not
// grow with every completed run. The terminal page was just rendered;
// its links go back to the overview, not to the session.
func (s *Server) pruneIfFinished(id string, sess *session.Session) {
	if sess.IsFinished() {
		s.removeSession(id)
	}
}

// sessionView is the template payload for one turn of a session.
type sessionView struct {
	ID        string
	DeckTitle string
	Mode      domain.Mode
	Phase     session.Phase
	Turn      session.TurnView
	HasTurn   bool
	Progress  session.Progress
}

// Template conveniences; html/template has no enum comparisons.

func (v sessionView) WriteMode() bool         { return v.Mode == domain.ModeWrite }
func (v sessionView) Checked() bool           { return v.Phase == session.PhaseChecked }
func (v sessionView) FeedbackCorrect() bool   { return v.Turn.Feedback == session.FeedbackCorrect }
func (v sessionView) FeedbackIncorrect() bool { return v.Turn.Feedback == session.FeedbackIncorrect }

func (s *Server) renderSession(w http.ResponseWriter, id string, sess *session.Session) {
	view := sessionView{
		ID:        id,
		DeckTitle: sess.DeckTitle(),
		Mode:      sess.Mode(),
		Phase:     sess.Phase(),
		Progress:  sess.Progress(),
	}

	switch sess.Phase() {
	case session.PhaseNotFound:
		s.render(w, "learn_gone", view)
	case session.PhaseFinished:
		s.render(w, "learn_done", view)
	default:
		view.Turn, view.HasTurn = sess.Turn()
		s.render(w, "learn", view)
	}
}

func parseDirection(v string) domain.Direction {
	switch domain.Direction(v) {
	case domain.BackToFront:
		return domain.BackToFront
	case domain.Mixed:
		return domain.Mixed
	default:
		return domain.FrontToBack
	}
}

func parseMode(v string) domain.Mode {
	if domain.Mode(v) == domain.ModeWrite {
		return domain.ModeWrite
	}
	return domain.ModeReveal
}
