package httpapi

import (
	"net/http"

	"legal-contracts/internal/application/auth"
	authDomain "legal-contracts/internal/domain/auth"

	"github.com/gin-gonic/gin"
)

// meResponse 使用者欄位與 stats 平鋪在同一層。
type meResponse struct {
	authDomain.Profile
	Stats auth.ProfileStats `json:"stats"`
}

func (s *Server) handleMe(c *gin.Context) {
	user, _ := currentUser(c)
	res, err := s.profileUC.Execute(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err, errCodeUnauthorized)
		return
	}
	c.JSON(http.StatusOK, meResponse{Profile: res.User, Stats: res.Stats})
}

func (s *Server) handleGeneratePassword(c *gin.Context) {
	requester, _ := currentUser(c)
	res, err := s.resetUC.Execute(c.Request.Context(), auth.GeneratePasswordInput{
		RequesterID:    requester.ID,
		RequesterEmail: requester.Email,
		TargetID:       c.Param("id"),
	})
	if err != nil {
		respondError(c, err, errCodeUnauthorized)
		return
	}
	resp := gin.H{
		"success":   true,
		"message":   res.Message,
		"user":      res.User,
		"emailSent": res.EmailSent,
	}
	if !res.EmailSent {
		resp["temporaryPassword"] = res.TemporaryPassword
	}
	c.JSON(http.StatusOK, resp)
}
