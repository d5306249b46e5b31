package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"snippetcorpus/internal/application/dto"
	"snippetcorpus/internal/port/inbound"
)

const (
	maxImportBodyBytes  = 8 << 20
	maxLanguageParamLen = 32
)

// ChallengeHandler handles HTTP requests for challenges.
type ChallengeHandler struct {
	challengeService inbound.ChallengeService
	errorHandler     ErrorHandler
}

// NewChallengeHandler creates a new ChallengeHandler.
func NewChallengeHandler(challengeService inbound.ChallengeService, errorHandler ErrorHandler) *ChallengeHandler {
	return &ChallengeHandler{challengeService: challengeService, errorHandler: errorHandler}
}

// GetRandomChallenge handles GET /challenges/random?language=.
func (h *ChallengeHandler) GetRandomChallenge(w http.ResponseWriter, r *http.Request) {
	language := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("language")))
	if len(language) > maxLanguageParamLen {
		h.errorHandler.HandleValidationError(w, r, fmt.Errorf("language must be at most %d characters", maxLanguageParamLen))
		return
	}

	challenge, err := h.challengeService.GetRandomChallenge(r.Context(), language)
	if err != nil {
		h.errorHandler.HandleServiceError(w, r, err)
		return
	}
	h.write(w, r, http.StatusOK, challenge)
}

// ListLanguages handles GET /languages.
func (h *ChallengeHandler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	languages, err := h.challengeService.ListLanguages(r.Context())
	if err != nil {
		h.errorHandler.HandleServiceError(w, r, err)
		return
	}
	h.write(w, r, http.StatusOK, languages)
}

// ImportChallenges handles POST /challenges/import with a JSON array of challenges.
func (h *ChallengeHandler) ImportChallenges(w http.ResponseWriter, r *http.Request) {
	var batch []dto.ChallengeImport
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBodyBytes))
	if err := decoder.Decode(&batch); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleValidationError(w, r, fmt.Errorf("request body exceeds %d bytes", maxErr.Limit))
			return
		}
		h.errorHandler.HandleValidationError(w, r, fmt.Errorf("invalid JSON body: %w", err))
		return
	}
	if len(batch) == 0 {
		h.errorHandler.HandleValidationError(w, r, errors.New("at least one challenge is required"))
		return
	}

	report, err := h.challengeService.ImportChallenges(r.Context(), batch)
	if err != nil {
		h.errorHandler.HandleServiceError(w, r, err)
		return
	}
	h.write(w, r, http.StatusOK, report)
}

func (h *ChallengeHandler) write(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	if err := WriteJSON(w, status, body); err != nil {
		h.errorHandler.HandleServiceError(w, r, err)
	}
}
