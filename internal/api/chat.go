package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/fixitforward/internal/model"
)

// ChatHandler handles an item's chat and offers.
type ChatHandler struct {
	*Server
}

type messageRequest struct {
	Text   string       `json:"text"`
	Sender model.Sender `json:"sender"`
}

type amountRequest struct {
	Amount string `json:"amount"`
}

// Get handles GET /api/items/{id}/chat.
func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.Chat.Thread(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, t)
}

// PostMessage handles POST /api/items/{id}/chat/messages. The sender
// defaults to the caller.
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Sender == "" {
		req.Sender = model.SenderSelf
	}

	msg, err := h.Chat.PostMessage(r.Context(), chi.URLParam(r, "id"), req.Text, req.Sender)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusCreated, msg)
}

// Compose handles PUT /api/items/{id}/chat/pending.
func (h *ChatHandler) Compose(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := h.Chat.ComposeOffer(r.Context(), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, amountRequest{Amount: amount})
}

// Cancel handles DELETE /api/items/{id}/chat/pending.
func (h *ChatHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.Chat.CancelOffer(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// proposeRequest leaves Amount nil when the key is absent.
type proposeRequest struct {
	Amount *string `json:"amount"`
}

// Propose handles POST /api/items/{id}/chat/offer. Without an amount key
// the composed offer is proposed.
func (h *ChatHandler) Propose(w http.ResponseWriter, r *http.Request) {
	var req proposeRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	id := chi.URLParam(r, "id")
	var err error
	if req.Amount == nil {
		err = h.Chat.ProposePending(r.Context(), id)
	} else {
		err = h.Chat.ProposeOffer(r.Context(), id, *req.Amount)
	}
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	t, err := h.Chat.Thread(r.Context(), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, t)
}

// Deny handles DELETE /api/items/{id}/chat/offer.
func (h *ChatHandler) Deny(w http.ResponseWriter, r *http.Request) {
	if err := h.Chat.DenyOffer(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
