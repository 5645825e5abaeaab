// Package web is the HTTP surface. Handlers render server-side
// templates and swap fragments via HTMX, one route per user action.
package web

import (
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/TaughtMe/LernBox/internal/codec"
	"github.com/TaughtMe/LernBox/internal/domain"
	"github.com/TaughtMe/LernBox/internal/sanitize"
	"github.com/TaughtMe/LernBox/internal/store"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// Server holds the dependencies for the HTTP server.
type Server struct {
	store        *store.Store
	router       *http.ServeMux
	templates    *template.Template
	logger       *zap.Logger
	pageCapacity int

	mu       sync.Mutex
	sessions map[string]*liveSession
}

// NewServer creates and configures a new server. A zero or negative
// pageCapacity falls back to the codec default.
func NewServer(st *store.Store, logger *zap.Logger, pageCapacity int) (*Server, error) {
	tpl, err := template.New("").Funcs(template.FuncMap{
		"safe": func(html string) template.HTML {
			return template.HTML(sanitize.HTML(html))
		},
		"inc": func(i int) int { return i + 1 },
	}).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageCapacity <= 0 {
		pageCapacity = codec.DefaultPageCapacity
	}

	s := &Server{
		store:        st,
		router:       http.NewServeMux(),
		templates:    tpl,
		logger:       logger,
		pageCapacity: pageCapacity,
		sessions:     make(map[string]*liveSession),
	}
	s.routes()
	return s, nil
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("static assets missing from build: " + err.Error())
	}
	s.router.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.HandleFunc("/", s.handleIndex())
	s.router.HandleFunc("/decks", s.handleCreateDeck())
	s.router.HandleFunc("/decks/", s.handleDeck())

	s.router.HandleFunc("/learn", s.handleStartSession())
	s.router.HandleFunc("/learn/", s.handleSession())

	s.router.HandleFunc("/import", s.handleImportText())
	s.router.HandleFunc("/backup", s.handleBackup())
	s.router.HandleFunc("/restore", s.handleRestore())
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template render failed", zap.String("template", name), zap.Error(err))
	}
}

// deckView decorates a deck with per-level counts for the templates.
type deckView struct {
	domain.Deck
	Counts    [domain.MaxLevel]int
	CardCount int
}

func newDeckView(d domain.Deck) deckView {
	return deckView{Deck: d, Counts: d.LevelCounts(), CardCount: len(d.Cards)}
}

// handleIndex renders the deck overview.
func (s *Server) handleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		decks := s.store.Decks()
		views := make([]deckView, 0, len(decks))
		for _, d := range decks {
			views = append(views, newDeckView(d))
		}
		s.render(w, "index", map[string]any{"Decks": views})
	}
}

// handleCreateDeck adds a deck and returns to the overview.
func (s *Server) handleCreateDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		title := strings.TrimSpace(r.PostFormValue("title"))
		if title == "" {
			http.Error(w, "Title cannot be empty", http.StatusBadRequest)
			return
		}
		if _, err := s.store.CreateDeck(title); err != nil {
			s.logger.Error("create deck failed", zap.Error(err))
			http.Error(w, "Failed to create deck", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// handleDeck dispatches /decks/{id}[/action...] to the deck and card
// handlers.
func (s *Server) handleDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/decks/")
		deckID, action, _ := strings.Cut(rest, "/")
		if deckID == "" {
			http.NotFound(w, r)
			return
		}

		switch {
		case action == "" && r.Method == http.MethodGet:
			s.showDeck(w, r, deckID)
		case action == "rename" && r.Method == http.MethodPost:
			s.renameDeck(w, r, deckID)
		case action == "languages" && r.Method == http.MethodPost:
			s.setLanguages(w, r, deckID)
		case action == "delete" && r.Method == http.MethodPost:
			s.deleteDeck(w, r, deckID)
		case action == "cards" && r.Method == http.MethodPost:
			s.addCard(w, r, deckID)
		case strings.HasPrefix(action, "cards/"):
			s.handleCard(w, r, deckID, strings.TrimPrefix(action, "cards/"))
		case action == "export" && r.Method == http.MethodGet:
			s.exportDeck(w, r, deckID)
		case strings.HasPrefix(action, "export/") && r.Method == http.MethodGet:
			s.exportCard(w, r, deckID, strings.TrimPrefix(action, "export/"))
		case action == "upload" && r.Method == http.MethodPost:
			s.uploadFile(w, r, deckID)
		default:
			http.NotFound(w, r)
		}
	}
}

func (s *Server) showDeck(w http.ResponseWriter, r *http.Request, deckID string) {
	deck, err := s.store.Deck(deckID)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	s.render(w, "deck", newDeckView(deck))
}

func (s *Server) renameDeck(w http.ResponseWriter, r *http.Request, deckID string) {
	title := strings.TrimSpace(r.PostFormValue("title"))
	if title == "" {
		http.Error(w, "Title cannot be empty", http.StatusBadRequest)
		return
	}
	if err := s.store.RenameDeck(deckID, title); err != nil {
		s.deckStoreError(w, r, deckID, err)
		return
	}
	http.Redirect(w, r, "/decks/"+deckID, http.StatusSeeOther)
}

func (s *Server) setLanguages(w http.ResponseWriter, r *http.Request, deckID string) {
	front := strings.TrimSpace(r.PostFormValue("lang_front"))
	back := strings.TrimSpace(r.PostFormValue("lang_back"))
	if front == "" || back == "" {
		http.Error(w, "Both languages are required", http.StatusBadRequest)
		return
	}
	if err := s.store.SetLanguages(deckID, front, back); err != nil {
		s.deckStoreError(w, r, deckID, err)
		return
	}
	http.Redirect(w, r, "/decks/"+deckID, http.StatusSeeOther)
}

func (s *Server) deleteDeck(w http.ResponseWriter, r *http.Request, deckID string) {
	if err := s.store.DeleteDeck(deckID); err != nil {
		s.deckStoreError(w, r, deckID, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) addCard(w http.ResponseWriter, r *http.Request, deckID string) {
	content, ok := cardContentFromForm(r)
	if !ok {
		http.Error(w, "Question and answer cannot be empty", http.StatusBadRequest)
		return
	}
	if _, err := s.store.AddCard(deckID, content); err != nil {
		s.deckStoreError(w, r, deckID, err)
		return
	}
	http.Redirect(w, r, "/decks/"+deckID, http.StatusSeeOther)
}

// handleCard covers /decks/{id}/cards/{cardID}/{action}.
func (s *Server) handleCard(w http.ResponseWriter, r *http.Request, deckID, rest string) {
	cardID, action, _ := strings.Cut(rest, "/")
	if cardID == "" || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var err error
	switch action {
	case "update":
		content, ok := cardContentFromForm(r)
		if !ok {
			http.Error(w, "Question and answer cannot be empty", http.StatusBadRequest)
			return
		}
		err = s.store.UpdateCard(deckID, cardID, content)
	case "delete":
		err = s.store.DeleteCard(deckID, cardID)
	case "level":
		level, convErr := strconv.Atoi(r.PostFormValue("level"))
		if convErr != nil {
			http.Error(w, "Invalid level", http.StatusBadRequest)
			return
		}
		err = s.store.SetCardLevel(deckID, cardID, level)
	default:
		http.NotFound(w, r)
		return
	}

	if err != nil {
		s.deckStoreError(w, r, deckID, err)
		return
	}
	http.Redirect(w, r, "/decks/"+deckID, http.StatusSeeOther)
}

// cardContentFromForm sanitizes the submitted card sides. False means
// at least one side is empty after sanitization.
func cardContentFromForm(r *http.Request) (domain.CardContent, bool) {
	q := sanitize.HTML(strings.TrimSpace(r.PostFormValue("question")))
	a := sanitize.HTML(strings.TrimSpace(r.PostFormValue("answer")))
	if sanitize.IsHTMLEmpty(q) || sanitize.IsHTMLEmpty(a) {
		return domain.CardContent{}, false
	}
	return domain.CardContent{QuestionHTML: q, AnswerHTML: a}, true
}

func (s *Server) deckStoreError(w http.ResponseWriter, r *http.Request, deckID string, err error) {
	switch {
	case errors.Is(err, store.ErrDeckNotFound), errors.Is(err, store.ErrCardNotFound):
		http.NotFound(w, r)
	default:
		s.logger.Error("deck operation failed", zap.String("deck", deckID), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
