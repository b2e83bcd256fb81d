package handlers

import (
	"net/http"
	"testing"
)

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	w := env.doAs(t, "", http.MethodPost, "/api/auth/register", RegisterRequest{
		Email: "editor@agency.test", Password: "password2", Name: "Editor",
	})
	expectStatus(t, w, http.StatusCreated)
	var registered AuthResponse
	decode(t, w, &registered)
	if registered.User.Role != "member" {
		t.Fatalf("role: want=member got=%s", registered.User.Role)
	}

	w = env.doAs(t, "", http.MethodPost, "/api/auth/register", RegisterRequest{
		Email: "EDITOR@agency.test", Password: "password2", Name: "Again",
	})
	expectStatus(t, w, http.StatusConflict)

	w = env.doAs(t, "", http.MethodPost, "/api/auth/login", LoginRequest{Email: "editor@agency.test", Password: "wrong"})
	expectStatus(t, w, http.StatusUnauthorized)

	w = env.doAs(t, "", http.MethodPost, "/api/auth/login", LoginRequest{Email: "editor@agency.test", Password: "password2"})
	expectStatus(t, w, http.StatusOK)
	var session AuthResponse
	decode(t, w, &session)

	w = env.doAs(t, session.Token, http.MethodGet, "/api/me", nil)
	expectStatus(t, w, http.StatusOK)

	w = env.doAs(t, session.Token, http.MethodPost, "/api/auth/logout", nil)
	expectStatus(t, w, http.StatusOK)

	w = env.doAs(t, session.Token, http.MethodGet, "/api/me", nil)
	expectStatus(t, w, http.StatusUnauthorized)

	// Other sessions of the same user stay open.
	w = env.doAs(t, registered.Token, http.MethodGet, "/api/me", nil)
	expectStatus(t, w, http.StatusOK)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	w := env.doAs(t, "", http.MethodPost, "/api/auth/register", RegisterRequest{Email: "not-an-email", Password: "password2", Name: "X"})
	expectStatus(t, w, http.StatusBadRequest)

	w = env.doAs(t, "", http.MethodPost, "/api/auth/register", RegisterRequest{Email: "x@agency.test", Password: "short", Name: "X"})
	expectStatus(t, w, http.StatusBadRequest)
}
