package http

import (
	"net/http"

	"tally/internal/auth"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := s.auth.Register(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusCreated, "registration successful", user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Login    string `json:"login"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	// The identifier field matches either username or email; older
	// clients send it as "username".
	login := in.Login
	if login == "" {
		login = in.Username
	}

	user, tok, err := s.auth.Login(r.Context(), login, in.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, "login successful", struct {
		User  any    `json:"user"`
		Token string `json:"token"`
	}{User: user, Token: tok})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	user, err := s.auth.CurrentUser(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, "", user)
}
