package http

import (
	"net/http"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "Registration failed")
		return
	}
	session, err := s.auth.Register(r.Context(), sanitizeInput(req.Name), sanitizeInput(req.Email), req.Password)
	if err != nil {
		writeError(w, r, err, "Registration failed")
		return
	}
	newSessionBody(NewJSONResponse().Status(http.StatusCreated).Message("User registered successfully"), session).Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "Login failed")
		return
	}
	session, err := s.auth.Login(r.Context(), sanitizeInput(req.Email), req.Password)
	if err != nil {
		writeError(w, r, err, "Login failed")
		return
	}
	newSessionBody(NewJSONResponse().Message("Login successful"), session).Write(w)
}
