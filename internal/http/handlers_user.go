package http

import (
	"net/http"

	"farmledger/internal/auth"
)

func callerID(r *http.Request) string {
	id, _ := auth.FromContext(r.Context())
	return id.UserID
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := s.auth.Profile(r.Context(), callerID(r))
	if err != nil {
		writeError(w, r, err, "Error fetching profile")
		return
	}
	NewJSONResponse().Body(newUserView(u)).Write(w)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "Error updating profile")
		return
	}
	u, err := s.auth.UpdateProfile(r.Context(), callerID(r), req.patch())
	if err != nil {
		writeError(w, r, err, "Error updating profile")
		return
	}
	NewJSONResponse().
		Message("Profile updated successfully").
		Field("user", newUserView(u)).
		Write(w)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "Error changing password")
		return
	}
	if err := s.auth.ChangePassword(r.Context(), callerID(r), req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, r, err, "Error changing password")
		return
	}
	NewJSONResponse().Message("Password changed successfully").Write(w)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req deleteAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "Error deleting account")
		return
	}
	if err := s.auth.DeleteAccount(r.Context(), callerID(r), req.Password); err != nil {
		writeError(w, r, err, "Error deleting account")
		return
	}
	NewJSONResponse().Message("Account deleted successfully").Write(w)
}
