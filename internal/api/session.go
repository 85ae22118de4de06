package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/erazemk/fixitforward/internal/model"
	"github.com/erazemk/fixitforward/internal/navigation"
)

// SessionHandler exposes the session's navigation state.
type SessionHandler struct {
	*Server
}

type sessionResponse struct {
	State navigation.State `json:"state"`
	Item  *model.Item      `json:"item,omitempty"`
}

type eventRequest struct {
	Event       string                   `json:"event"`
	ItemID      string                   `json:"item_id"`
	Draft       model.ItemDraft          `json:"draft"`
	Payment     navigation.PaymentMethod `json:"payment"`
	Credentials model.Credentials        `json:"credentials"`
	Signup      model.SignupForm         `json:"signup"`
}

type eventResponse struct {
	Transition navigation.Transition `json:"transition"`
	State      navigation.State      `json:"state"`
}

// Get handles GET /api/session. The active item is resolved on every call.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctrl := GetController(r.Context())
	resp := sessionResponse{State: ctrl.State()}
	if resp.State.ActiveItemID != "" {
		item, err := ctrl.ActiveItem(r.Context())
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			writeError(w, h.Log, err)
			return
		}
		resp.Item = item
	}
	jsonResponse(w, http.StatusOK, resp)
}

// Dispatch handles POST /api/session/events.
func (h *SessionHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ev, err := req.event()
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	ctrl := GetController(r.Context())
	tr, err := ctrl.Dispatch(r.Context(), ev)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, eventResponse{Transition: tr, State: ctrl.State()})
}

func (req eventRequest) event() (navigation.Event, error) {
	switch req.Event {
	case "login":
		return navigation.LoginSubmitted{Credentials: req.Credentials}, nil
	case "goSignup":
		return navigation.GoSignup{}, nil
	case "signup":
		return navigation.SignupSubmitted{Form: req.Signup}, nil
	case "back":
		return navigation.Back{}, nil
	case "openItem":
		return navigation.OpenItem{ItemID: req.ItemID}, nil
	case "openUpload":
		return navigation.OpenUpload{}, nil
	case "submit":
		return navigation.SubmitUpload{Draft: req.Draft}, nil
	case "fixIt":
		return navigation.FixIt{}, nil
	case "chat":
		return navigation.OpenChat{}, nil
	case "markFixed":
		return navigation.MarkFixed{}, nil
	case "confirmOffer":
		return navigation.ConfirmOffer{}, nil
	case "fixItConfirmed":
		return navigation.ConfirmCheckout{Payment: req.Payment}, nil
	case "returnHome":
		return navigation.ReturnHome{}, nil
	case "logout":
		return navigation.Logout{}, nil
	}
	return nil, model.Invalid("event", fmt.Sprintf("unknown event %q", req.Event))
}
