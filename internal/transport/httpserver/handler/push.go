package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	orciddomain "inspire-orcid/internal/domain/orcid"
	pushdomain "inspire-orcid/internal/domain/push"
	"inspire-orcid/internal/orcidclient"
	"inspire-orcid/internal/worker"
)

type pushRequest struct {
	Orcid string `json:"orcid"`
	Recid string `json:"recid"`
	Token string `json:"token"`
}

type pushResponse struct {
	Status   string `json:"status"`
	Orcid    string `json:"orcid"`
	Recid    string `json:"recid"`
	Putcode  int64  `json:"putcode,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
}

func (h *Handlers) PushWork(w http.ResponseWriter, r *http.Request) {
	req, ok := readPushRequest(w, r)
	if !ok {
		return
	}

	result, err := h.Push.Push(r.Context(), req)
	if err != nil {
		h.writePushError(w, "orcid.push", req, err)
		return
	}

	if result.Skipped {
		writeJSON(w, http.StatusAccepted, pushResponse{Status: "skipped", Orcid: result.Orcid, Recid: result.Recid})
		return
	}
	writeJSON(w, http.StatusOK, pushResponse{
		Status:   "pushed",
		Orcid:    result.Orcid,
		Recid:    result.Recid,
		Putcode:  result.Putcode,
		Attempts: result.Attempts,
	})
}

func (h *Handlers) EnqueuePush(w http.ResponseWriter, r *http.Request) {
	req, ok := readPushRequest(w, r)
	if !ok {
		return
	}

	task, err := h.Queue.Enqueue(req)
	if err != nil {
		switch {
		case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrPoolStopped):
			h.log.Warn("orcid.push_async: queue unavailable", "err", err, "orcid", req.Orcid, "recid", req.Recid)
			writeError(w, http.StatusServiceUnavailable, "queue_unavailable", err.Error())
		default:
			h.log.InternalError("orcid.push_async: enqueue failed", err, "orcid", req.Orcid, "recid", req.Recid)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, task)
}

func (h *Handlers) GetPushTask(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "task_id"))

	task, err := h.Queue.Task(id)
	if err != nil {
		if errors.Is(err, worker.ErrTaskUnknown) {
			writeError(w, http.StatusNotFound, "task_not_found", "task not found")
			return
		}
		h.log.InternalError("orcid.push_task: lookup failed", err, "task_id", id)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func readPushRequest(w http.ResponseWriter, r *http.Request) (orciddomain.PushRequest, bool) {
	var body pushRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return orciddomain.PushRequest{}, false
	}

	req := orciddomain.PushRequest{
		Orcid: strings.TrimSpace(body.Orcid),
		Recid: strings.TrimSpace(body.Recid),
		Token: strings.TrimSpace(body.Token),
	}
	if req.Orcid == "" || req.Recid == "" || req.Token == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "orcid, recid and token are required")
		return orciddomain.PushRequest{}, false
	}
	return req, true
}

func (h *Handlers) writePushError(w http.ResponseWriter, op string, req orciddomain.PushRequest, err error) {
	var transient *orcidclient.TransientError
	switch {
	case errors.Is(err, pushdomain.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, orciddomain.ErrRecordNotFound):
		h.log.BusinessError(op+": record not found", err, "orcid", req.Orcid, "recid", req.Recid)
		writeError(w, http.StatusNotFound, "record_not_found", "record not found")
	case errors.Is(err, orciddomain.ErrInputDataInvalid):
		h.log.BusinessError(op+": rejected by orcid", err, "orcid", req.Orcid, "recid", req.Recid)
		writeError(w, http.StatusUnprocessableEntity, "input_data_invalid", err.Error())
	case errors.Is(err, orciddomain.ErrPutcodeNotFoundInRegistry):
		h.log.BusinessError(op+": putcode not found in registry", err, "orcid", req.Orcid, "recid", req.Recid)
		writeError(w, http.StatusConflict, "putcode_not_found_in_registry", err.Error())
	case errors.Is(err, orciddomain.ErrPutcodeNotFoundAfterReconciliation):
		h.log.InternalError(op+": putcode lost after reconciliation", err, "orcid", req.Orcid, "recid", req.Recid)
		writeError(w, http.StatusConflict, "putcode_not_found_after_reconciliation", err.Error())
	case errors.Is(err, orciddomain.ErrLockTimeout), errors.As(err, &transient):
		h.log.Warn(op+": temporarily unavailable", "err", err, "orcid", req.Orcid, "recid", req.Recid)
		writeError(w, http.StatusServiceUnavailable, "temporarily_unavailable", err.Error())
	default:
		h.log.InternalError(op+": push failed", err, "orcid", req.Orcid, "recid", req.Recid)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
