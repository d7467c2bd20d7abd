package auth

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adhamsabryco-maker/khamin-Takhmina/logger"
)

type googleHandler struct {
	google *Google
}

func NewGoogleHandler(google *Google) *googleHandler {
	return &googleHandler{google: google}
}

func (gh *googleHandler) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/api/auth/google/url", gh.AuthURLHandler)
	engine.GET("/api/auth/google/callback", gh.CallbackHandler)
}

// Respects x-forwarded headers so the redirect survives a reverse proxy.
func redirectURI(ctx *gin.Context) string {
	proto := ctx.GetHeader("X-Forwarded-Proto")
	if proto == "" {
		proto = "http"
		if ctx.Request.TLS != nil {
			proto = "https"
		}
	}
	host := ctx.GetHeader("X-Forwarded-Host")
	if host == "" {
		host = ctx.Request.Host
	}
	return fmt.Sprintf("%s://%s/api/auth/google/callback", proto, host)
}

func (gh *googleHandler) AuthURLHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"url": gh.google.AuthCodeURL(redirectURI(ctx))})
}

// CallbackHandler completes the popup flow: the resulting identity is posted
// back to the opener window and the popup closes itself.
func (gh *googleHandler) CallbackHandler(ctx *gin.Context) {
	code := ctx.Query("code")
	identity, err := gh.google.Exchange(ctx.Request.Context(), code, redirectURI(ctx))
	if err != nil {
		logger.Criticalf("Google auth error: %v", err)
		ctx.String(http.StatusInternalServerError, "Authentication failed")
		return
	}

	page := fmt.Sprintf(`<html><body><script>
window.opener.postMessage({ type: 'GOOGLE_AUTH_SUCCESS', user: { email: %q, name: %q, picture: %q, isAdmin: %t } }, '*');
window.close();
</script></body></html>`, identity.Email, identity.Name, identity.Picture, identity.IsAdmin)

	ctx.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}
