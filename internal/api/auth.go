package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/fixitforward/internal/auth"
	"github.com/erazemk/fixitforward/internal/model"
	"github.com/erazemk/fixitforward/internal/navigation"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*Server
}

type loginResponse struct {
	Token string           `json:"token"`
	State navigation.State `json:"state"`
}

// Login handles POST /api/auth/login. Credentials are checked for shape
// only; a valid form starts a session on the home screen.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.Credentials
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctrl := h.newController()
	if _, err := ctrl.Dispatch(r.Context(), navigation.LoginSubmitted{Credentials: req}); err != nil {
		writeError(w, h.Log, err)
		return
	}

	h.startSession(w, req.Email, ctrl)
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupForm
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctrl := h.newController()
	if _, err := ctrl.Dispatch(r.Context(), navigation.GoSignup{}); err != nil {
		writeError(w, h.Log, err)
		return
	}
	if _, err := ctrl.Dispatch(r.Context(), navigation.SignupSubmitted{Form: req}); err != nil {
		writeError(w, h.Log, err)
		return
	}

	h.Log.Info("account created", zap.String("email", req.Email))
	h.startSession(w, req.Email, ctrl)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, email string, ctrl *navigation.Controller) {
	token, claims, err := auth.GenerateToken(h.JWTSecret, email)
	if err != nil {
		h.Log.Error("generating token failed", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	h.Sessions.Put(claims.SessionID(), ctrl, claims.Expiry())
	h.Log.Info("session started", zap.String("email", email), zap.String("session", claims.SessionID()))
	jsonResponse(w, http.StatusOK, loginResponse{Token: token, State: ctrl.State()})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if ctrl := GetController(r.Context()); ctrl != nil {
		ctrl.Dispatch(r.Context(), navigation.Logout{})
	}

	if err := h.Revocations.RevokeToken(r.Context(), claims.SessionID(), claims.Expiry()); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to revoke token")
		return
	}
	h.Sessions.End(claims.SessionID())

	h.Log.Info("session ended", zap.String("email", claims.Email))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}
