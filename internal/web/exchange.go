package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/TaughtMe/LernBox/internal/codec"
	"github.com/TaughtMe/LernBox/internal/domain"
	"github.com/TaughtMe/LernBox/internal/importer"
)

const maxUploadBytes = 8 << 20

// exportDeck renders the whole deck as a series of exchange pages,
// each small enough for one optical code.
func (s *Server) exportDeck(w http.ResponseWriter, r *http.Request, deckID string) {
	deck, err := s.store.Deck(deckID)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	items := make([]domain.CardContent, 0, len(deck.Cards))
	for _, c := range deck.Cards {
		items = append(items, domain.CardContent{QuestionHTML: c.QuestionHTML, AnswerHTML: c.AnswerHTML})
	}

	var pages []string
	if len(items) > 0 {
		pages, err = codec.PaginateEncoded(items, s.pageCapacity)
		if err != nil {
			s.logger.Error("export pagination failed", zap.String("deck", deckID), zap.Error(err))
			http.Error(w, "Failed to export deck", http.StatusInternalServerError)
			return
		}
	}

	s.render(w, "export", map[string]any{
		"Deck":  newDeckView(deck),
		"Pages": pages,
	})
}

// exportCard renders a single card as one exchange payload.
func (s *Server) exportCard(w http.ResponseWriter, r *http.Request, deckID, cardID string) {
	deck, err := s.store.Deck(deckID)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	card := deck.CardByID(cardID)
	if card == nil {
		http.NotFound(w, r)
		return
	}

	payload, err := codec.EncodeCard(domain.CardContent{
		QuestionHTML: card.QuestionHTML,
		AnswerHTML:   card.AnswerHTML,
	})
	if err != nil {
		s.logger.Error("export encode failed", zap.String("card", cardID), zap.Error(err))
		http.Error(w, "Failed to export card", http.StatusInternalServerError)
		return
	}

	s.render(w, "export", map[string]any{
		"Deck":  newDeckView(deck),
		"Pages": []string{payload},
	})
}

// handleImportText accepts pasted payload text. Prefixed payloads go
// through the strict decoder; anything else falls back to the
// permissive reader.
func (s *Server) handleImportText() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.render(w, "import", map[string]any{"Decks": s.store.Decks()})
		case http.MethodPost:
			s.importText(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func (s *Server) importText(w http.ResponseWriter, r *http.Request) {
	deckID := r.PostFormValue("deck")
	text := strings.TrimSpace(r.PostFormValue("payload"))
	if text == "" {
		http.Error(w, "Payload cannot be empty", http.StatusBadRequest)
		return
	}

	items, report, err := codec.ImportText(text)
	if err != nil {
		var derr *codec.DecodeError
		if errors.As(err, &derr) {
			s.render(w, "import_failed", map[string]any{
				"Reason": derr.Kind.String(),
				"Detail": derr.Detail,
				"Fields": derr.Fields,
			})
			return
		}
		s.logger.Error("import decode failed", zap.Error(err))
		http.Error(w, "Failed to read payload", http.StatusInternalServerError)
		return
	}

	cards, err := s.store.AddManyCards(deckID, items)
	if err != nil {
		s.deckStoreError(w, r, deckID, err)
		return
	}

	s.logger.Info("cards imported",
		zap.String("deck", deckID),
		zap.Int("imported", len(cards)),
		zap.Int("truncated", report.Truncated),
		zap.Int("rejected", report.Rejected))

	s.render(w, "import_done", map[string]any{
		"DeckID":   deckID,
		"Imported": len(cards),
		"Report":   report,
	})
}

// uploadFile ingests a CSV or XLSX upload into the deck.
func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request, deckID string) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Upload too large", http.StatusRequestEntityTooLarge)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := importer.File(header.Filename, file)
	if err != nil {
		if errors.Is(err, importer.ErrNoCards) {
			s.render(w, "import_failed", map[string]any{
				"Reason": "no usable cards",
				"Detail": "the file contained no row with both a question and an answer",
			})
			return
		}
		s.logger.Error("file import failed", zap.String("file", header.Filename), zap.Error(err))
		http.Error(w, "Failed to read file", http.StatusBadRequest)
		return
	}

	cards, err := s.store.AddManyCards(deckID, result.Cards)
	if err != nil {
		s.deckStoreError(w, r, deckID, err)
		return
	}

	s.logger.Info("file imported",
		zap.String("deck", deckID),
		zap.String("file", header.Filename),
		zap.Int("imported", len(cards)),
		zap.Int("skipped", result.Skipped))

	http.Redirect(w, r, "/decks/"+deckID, http.StatusSeeOther)
}

// handleBackup streams every deck as a JSON download.
func (s *Server) handleBackup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="lernbox-backup.json"`)

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s.store.Decks()); err != nil {
			s.logger.Error("backup encode failed", zap.Error(err))
		}
	}
}

// handleRestore replaces the entire collection from an uploaded
// backup file.
func (s *Server) handleRestore() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, "Upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "Missing file", http.StatusBadRequest)
			return
		}
		defer file.Close()

		var decks []domain.Deck
		if err := json.NewDecoder(file).Decode(&decks); err != nil {
			http.Error(w, "Invalid backup file", http.StatusBadRequest)
			return
		}
		if err := s.store.ReplaceAll(decks); err != nil {
			s.logger.Error("restore failed", zap.Error(err))
			http.Error(w, "Failed to restore backup", http.StatusInternalServerError)
			return
		}

		s.logger.Info("backup restored", zap.Int("decks", len(decks)))
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}
