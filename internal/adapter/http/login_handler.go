package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/aq2208/gpos-checkout/configs"
	"github.com/aq2208/gpos-checkout/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type TokenHandler struct {
	cfg configs.Config
	now func() time.Time
}

func NewTokenHandler(cfg configs.Config) *TokenHandler {
	return &TokenHandler{cfg: cfg, now: time.Now}
}

type tokenReq struct {
	ClientID     string `form:"client_id" json:"client_id"`
	ClientSecret string `form:"client_secret" json:"client_secret"`
	Scope        string `form:"scope" json:"scope"`
}

// POST /v1/token (form or JSON)
// Accepts: client_id, client_secret
// Optional: scope (space-separated subset of the client's perms)
func (h *TokenHandler) IssueToken(c *gin.Context) {
	var req tokenReq
	if err := c.ShouldBind(&req); err != nil || req.ClientID == "" || req.ClientSecret == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_client"})
		return
	}

	cl, ok := security.Authenticate(req.ClientID, req.ClientSecret)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_client"})
		return
	}

	perms := cl.Perms
	if req.Scope != "" {
		perms = narrow(cl.Perms, strings.Fields(req.Scope))
		if len(perms) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_scope"})
			return
		}
	}

	now := h.now()
	ttl := h.cfg.Security.TTL
	claims := jwt.MapClaims{
		"iss":       h.cfg.Security.Issuer,
		"aud":       h.cfg.Security.Audience,
		"iat":       now.Unix(),
		"nbf":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
		"sub":       cl.UserID,
		"shop_id":   cl.ShopID,
		"client_id": cl.ID,
		"perms":     perms,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.cfg.Security.JWTSecret))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": signed,
		"token_type":   "Bearer",
		"expires_in":   int(ttl.Seconds()),
	})
}

func narrow(have, want []string) []string {
	var out []string
	for _, w := range want {
		for _, h := range have {
			if w == h {
				out = append(out, w)
				break
			}
		}
	}
	return out
}
