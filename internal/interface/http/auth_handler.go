package httpapi

import (
	"errors"
	"io"
	"net/http"

	"legal-contracts/internal/application/auth"
	authDomain "legal-contracts/internal/domain/auth"

	"github.com/gin-gonic/gin"
)

// bindOptionalJSON 空 body 視為零值。
func bindOptionalJSON(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) tokenMeta(c *gin.Context) authDomain.TokenMeta {
	return authDomain.TokenMeta{
		IP:        clientIP(c.Request),
		UserAgent: c.Request.UserAgent(),
	}
}

func (s *Server) handleLogin(c *gin.Context) {
	var body struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := bindOptionalJSON(c, &body); err != nil {
		writeError(c, http.StatusBadRequest, errCodeBadRequest, "invalid body")
		return
	}
	res, err := s.loginUC.Execute(c.Request.Context(), auth.LoginInput{
		Identifier: body.Identifier,
		Password:   body.Password,
		Meta:       s.tokenMeta(c),
	})
	if err != nil {
		respondError(c, err, errCodeInvalidCredentials)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"jwt":          res.JWT,
		"user":         res.User,
		"refreshToken": res.RefreshToken,
		"expiresIn":    res.ExpiresIn,
	})
}

func (s *Server) handleRefresh(c *gin.Context) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := bindOptionalJSON(c, &body); err != nil {
		writeError(c, http.StatusBadRequest, errCodeBadRequest, "invalid body")
		return
	}
	res, err := s.sessions.Refresh(c.Request.Context(), body.RefreshToken)
	if err != nil {
		respondError(c, err, errCodeUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"jwt":       res.JWT,
		"user":      res.User,
		"expiresIn": res.ExpiresIn,
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
		RevokeAll    bool   `json:"revokeAll"`
	}
	if err := bindOptionalJSON(c, &body); err != nil {
		writeError(c, http.StatusBadRequest, errCodeBadRequest, "invalid body")
		return
	}
	in := auth.LogoutInput{RefreshToken: body.RefreshToken, RevokeAll: body.RevokeAll}
	if user, ok := currentUser(c); ok {
		in.UserID = user.ID
	}
	if err := s.sessions.Logout(c.Request.Context(), in); err != nil {
		respondError(c, err, errCodeUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}

func (s *Server) handleRevoke(c *gin.Context) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := bindOptionalJSON(c, &body); err != nil {
		writeError(c, http.StatusBadRequest, errCodeBadRequest, "invalid body")
		return
	}
	user, _ := currentUser(c)
	if err := s.sessions.Revoke(c.Request.Context(), body.RefreshToken, user.ID); err != nil {
		respondError(c, err, errCodeUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Token revoked successfully"})
}

func (s *Server) handleSessions(c *gin.Context) {
	user, _ := currentUser(c)
	list, err := s.sessions.ListSessions(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err, errCodeUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "meta": gin.H{"total": len(list)}})
}
