package handlers

import (
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestRegister(t *testing.T) {
	app := newTestApp(t, "test_h_register.db")

	session := register(t, app, "Acme Co", "ana@acme.test")
	if session.AccessToken == "" || session.RefreshToken == "" {
		t.Fatal("Expected both tokens in the response")
	}
	if session.User.Role != "admin" {
		t.Errorf("First user must be admin, got %q", session.User.Role)
	}
	if session.User.Email != "ana@acme.test" {
		t.Errorf("Unexpected user: %+v", session.User)
	}

	// The issued token works immediately
	resp := request(t, app, "GET", "/api/auth/me", session.AccessToken, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Me returned %d", resp.StatusCode)
	}
	var me struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
		Organization struct {
			Slug string `json:"slug"`
		} `json:"organization"`
	}
	decode(t, resp, &me)
	if me.User.Email != "ana@acme.test" || me.Organization.Slug != "acme-co" {
		t.Errorf("Unexpected identity: %+v", me)
	}
}

func TestRegister_NormalizesEmail(t *testing.T) {
	app := newTestApp(t, "test_h_register_email.db")

	resp := request(t, app, "POST", "/api/auth/register", "", map[string]string{
		"email":     "  ANA@Acme.Test ",
		"password":  "correct-horse-battery",
		"full_name": "Ana Torres",
		"org_name":  "Acme",
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("Registration returned %d", resp.StatusCode)
	}
	var session AuthResponse
	decode(t, resp, &session)
	if session.User.Email != "ana@acme.test" {
		t.Errorf("Expected lowercased trimmed email, got %q", session.User.Email)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	app := newTestApp(t, "test_h_register_dup.db")
	register(t, app, "Acme", "ana@acme.test")

	resp := request(t, app, "POST", "/api/auth/register", "", map[string]string{
		"email":     "ana@acme.test",
		"password":  "correct-horse-battery",
		"full_name": "Ana Again",
		"org_name":  "Other Org",
	})
	if resp.StatusCode != fiber.StatusConflict {
		t.Errorf("Expected 409 for duplicate email, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRegister_Validation(t *testing.T) {
	app := newTestApp(t, "test_h_register_invalid.db")

	resp := request(t, app, "POST", "/api/auth/register", "", map[string]string{
		"email":     "not-an-email",
		"password":  "short",
		"full_name": "A",
		"org_name":  "Acme",
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", resp.StatusCode)
	}
	var body struct {
		Error  string `json:"error"`
		Fields []struct {
			Field string `json:"field"`
		} `json:"fields"`
	}
	decode(t, resp, &body)
	if body.Error != "Validation failed" || len(body.Fields) != 3 {
		t.Errorf("Expected 3 field errors, got %+v", body)
	}
}

func TestLogin(t *testing.T) {
	app := newTestApp(t, "test_h_login.db")
	register(t, app, "Acme", "ana@acme.test")

	resp := request(t, app, "POST", "/api/auth/login", "", map[string]string{
		"email":    "ana@acme.test",
		"password": "correct-horse-battery",
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Login returned %d", resp.StatusCode)
	}
	var session AuthResponse
	decode(t, resp, &session)
	if session.AccessToken == "" {
		t.Error("Expected an access token")
	}

	// Wrong password and unknown email are indistinguishable
	for _, creds := range []map[string]string{
		{"email": "ana@acme.test", "password": "wrong"},
		{"email": "nobody@acme.test", "password": "correct-horse-battery"},
	} {
		resp := request(t, app, "POST", "/api/auth/login", "", creds)
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Errorf("Expected 401 for %v, got %d", creds, resp.StatusCode)
		}
		var body struct {
			Error string `json:"error"`
		}
		decode(t, resp, &body)
		if body.Error != "Invalid email or password" {
			t.Errorf("Unexpected error: %q", body.Error)
		}
	}
}

func TestRefresh(t *testing.T) {
	app := newTestApp(t, "test_h_refresh.db")
	session := register(t, app, "Acme", "ana@acme.test")

	resp := request(t, app, "POST", "/api/auth/refresh", "", map[string]string{
		"refresh_token": session.RefreshToken,
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Refresh returned %d", resp.StatusCode)
	}
	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	decode(t, resp, &body)
	if body.AccessToken == "" || body.ExpiresIn <= 0 {
		t.Errorf("Unexpected refresh payload: %+v", body)
	}

	// The fresh access token is usable
	resp = request(t, app, "GET", "/api/auth/me", body.AccessToken, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Me with refreshed token returned %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRefresh_Invalid(t *testing.T) {
	app := newTestApp(t, "test_h_refresh_invalid.db")
	session := register(t, app, "Acme", "ana@acme.test")

	// No token at all
	resp := request(t, app, "POST", "/api/auth/refresh", "", map[string]string{})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("Expected 400 without a token, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Garbage token
	resp = request(t, app, "POST", "/api/auth/refresh", "", map[string]string{
		"refresh_token": "garbage",
	})
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 for a bad token, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// An access token is not a refresh token
	resp = request(t, app, "POST", "/api/auth/refresh", "", map[string]string{
		"refresh_token": session.AccessToken,
	})
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 for an access token, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
