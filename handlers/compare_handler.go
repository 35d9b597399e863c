package handlers

import (
	"net/http"
	"strings"

	"github.com/Dosada05/lobby-tracker/services"
)

type CompareHandler struct {
	compareService services.CompareService
}

func NewCompareHandler(cs services.CompareService) *CompareHandler {
	return &CompareHandler{compareService: cs}
}

// CompareHandler обрабатывает GET /compare?codes=A,B[,C]
// Коды можно передать и повторяющимся параметром: ?codes=A&codes=B.
func (h *CompareHandler) CompareHandler(w http.ResponseWriter, r *http.Request) {
	var codes []string
	for _, raw := range r.URL.Query()["codes"] {
		for _, code := range strings.Split(raw, ",") {
			if code = strings.TrimSpace(code); code != "" {
				codes = append(codes, code)
			}
		}
	}

	comparison, err := h.compareService.Compare(r.Context(), codes)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"comparison": comparison}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
