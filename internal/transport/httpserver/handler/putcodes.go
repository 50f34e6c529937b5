package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	orciddomain "inspire-orcid/internal/domain/orcid"
)

type putcodeResponse struct {
	Recid     string    `json:"recid"`
	Putcode   *int64    `json:"putcode"`
	Pushed    bool      `json:"pushed"`
	UpdatedAt time.Time `json:"updated_at"`
}

type putcodeListResponse struct {
	Orcid string            `json:"orcid"`
	Items []putcodeResponse `json:"items"`
}

type putcodeDeleteResponse struct {
	Orcid   string `json:"orcid"`
	Deleted int64  `json:"deleted"`
}

func (h *Handlers) ListPutcodes(w http.ResponseWriter, r *http.Request) {
	orcid := strings.TrimSpace(chi.URLParam(r, "orcid"))

	entries, err := h.Putcodes.ListByOrcid(r.Context(), orcid)
	if err != nil {
		h.log.InternalError("putcodes.list: list failed", err, "orcid", orcid)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, putcodeListResponse{Orcid: orcid, Items: toPutcodeResponses(entries)})
}

func (h *Handlers) DeletePutcodes(w http.ResponseWriter, r *http.Request) {
	orcid := strings.TrimSpace(chi.URLParam(r, "orcid"))

	deleted, err := h.Putcodes.DeleteByOrcid(r.Context(), orcid)
	if err != nil {
		h.log.InternalError("putcodes.delete: delete failed", err, "orcid", orcid)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	h.log.Info("putcodes.delete: cache cleared", "orcid", orcid, "deleted", deleted)
	writeJSON(w, http.StatusOK, putcodeDeleteResponse{Orcid: orcid, Deleted: deleted})
}

// Pushed is false for entries backfilled by reconciliation, whose content
// has not been pushed from here yet.
func toPutcodeResponses(entries []orciddomain.PutcodeCacheEntry) []putcodeResponse {
	result := make([]putcodeResponse, 0, len(entries))
	for _, entry := range entries {
		result = append(result, putcodeResponse{
			Recid:     entry.Recid,
			Putcode:   entry.Putcode,
			Pushed:    entry.Fingerprint != nil,
			UpdatedAt: entry.UpdatedAt,
		})
	}
	return result
}
