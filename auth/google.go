// Package auth resolves a one-time Google OAuth code into an identity
// assertion. The game core only consumes the resulting email to decide
// admin eligibility; there are no server-side sessions.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Identity is the assertion produced by a successful code exchange.
type Identity struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	IsAdmin bool   `json:"isAdmin"`
}

type Google struct {
	clientID     string
	clientSecret string
	adminEmails  map[string]struct{}
}

func NewGoogle(clientID, clientSecret string, adminEmails []string) *Google {
	allowed := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		allowed[email] = struct{}{}
	}
	return &Google{clientID: clientID, clientSecret: clientSecret, adminEmails: allowed}
}

func (g *Google) config(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     g.clientID,
		ClientSecret: g.clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{"email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

func (g *Google) AuthCodeURL(redirectURI string) string {
	return g.config(redirectURI).AuthCodeURL("")
}

// Exchange trades the one-time code for tokens and fetches the userinfo
// profile. Admin eligibility is decided here, once, against the configured
// allow-list rather than being re-checked in individual handlers.
func (g *Google) Exchange(ctx context.Context, code, redirectURI string) (Identity, error) {
	conf := g.config(redirectURI)
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("token exchange: %w", err)
	}

	client := conf.Client(ctx, token)
	resp, err := client.Get(userInfoURL)
	if err != nil {
		return Identity{}, fmt.Errorf("userinfo fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Identity{}, fmt.Errorf("userinfo fetch: status %d: %s", resp.StatusCode, body)
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return Identity{}, fmt.Errorf("userinfo decode: %w", err)
	}
	identity.IsAdmin = g.IsAdminEmail(identity.Email)
	return identity, nil
}

// IsAdminEmail reports whether the email is on the bootstrap allow-list.
func (g *Google) IsAdminEmail(email string) bool {
	_, ok := g.adminEmails[email]
	return ok
}
