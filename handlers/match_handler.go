package handlers

import (
	"net/http"

	"github.com/Dosada05/lobby-tracker/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

// StartHandler обрабатывает POST /tournaments/{code}/matches/{index}/start
func (h *MatchHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	code, err := getCodeFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	index, err := getIndexFromURL(r, "index")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.matchService.StartMatch(r.Context(), code, index)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitResultsHandler обрабатывает POST /tournaments/{code}/matches/{index}/results
func (h *MatchHandler) SubmitResultsHandler(w http.ResponseWriter, r *http.Request) {
	code, err := getCodeFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	index, err := getIndexFromURL(r, "index")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.MatchResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.matchService.SubmitMatchResults(r.Context(), code, index, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
