package httpapi

import (
	"io"
	"log"
	"net/http"
	"strconv"

	"legal-contracts/internal/application/document"

	"github.com/gin-gonic/gin"
)

func (s *Server) actor(c *gin.Context) document.Actor {
	user, _ := currentUser(c)
	return document.Actor{
		UserID:    user.ID,
		UserEmail: user.Email,
		IP:        clientIP(c.Request),
		UserAgent: c.Request.UserAgent(),
	}
}

func (s *Server) handleListDocuments(c *gin.Context) {
	page := parseIntDefault(c.Query("page"), 1)
	pageSize := parseIntDefault(c.Query("pageSize"), 25)
	docs, total, err := s.documents.List(c.Request.Context(), page, pageSize)
	if err != nil {
		respondError(c, err, errCodeUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    docs,
		"meta": gin.H{
			"page":     page,
			"pageSize": pageSize,
			"total":    total,
		},
	})
}

func (s *Server) handleGetDocument(c *gin.Context) {
	doc, err := s.documents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, errCodeUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": doc})
}

func (s *Server) handleUploadBase64(c *gin.Context) {
	var body struct {
		Name         string `json:"name"`
		Data         string `json:"data"`
		ContractID   string `json:"contractId"`
		Description  string `json:"description"`
		DocumentType string `json:"documentType"`
	}
	if err := bindOptionalJSON(c, &body); err != nil {
		writeError(c, http.StatusBadRequest, errCodeBadRequest, "invalid body")
		return
	}
	res, err := s.documents.UploadBase64(c.Request.Context(), document.UploadInput{
		Name:         body.Name,
		Data:         body.Data,
		ContractID:   body.ContractID,
		Description:  body.Description,
		DocumentType: body.DocumentType,
		Actor:        s.actor(c),
	})
	if err != nil {
		respondError(c, err, errCodeUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    res.Document,
		"meta": gin.H{
			"fileSize":     res.FileSize,
			"checksum":     res.Checksum,
			"uploadMethod": "base64",
		},
	})
}

func (s *Server) handleSignDocument(c *gin.Context) {
	var body struct {
		Signature     string                 `json:"signature"`
		SignatureData map[string]interface{} `json:"signatureData"`
	}
	if err := bindOptionalJSON(c, &body); err != nil {
		writeError(c, http.StatusBadRequest, errCodeBadRequest, "invalid body")
		return
	}
	actor := s.actor(c)
	doc, signedAt, err := s.documents.Sign(c.Request.Context(), document.SignInput{
		DocumentID:    c.Param("id"),
		Signature:     body.Signature,
		SignatureData: body.SignatureData,
		Actor:         actor,
	})
	if err != nil {
		respondError(c, err, errCodeUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    doc,
		"meta": gin.H{
			"signedBy": actor.UserEmail,
			"signedAt": signedAt,
		},
	})
}

func (s *Server) handleDownloadDocument(c *gin.Context) {
	doc, rc, err := s.documents.Download(c.Request.Context(), c.Param("id"), s.actor(c))
	if err != nil {
		respondError(c, err, errCodeUnauthorized)
		return
	}
	defer rc.Close()

	contentType := doc.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(doc.OriginalFileName))
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		log.Printf("[Document] stream %s failed: %v", doc.FileName, err)
	}
}
