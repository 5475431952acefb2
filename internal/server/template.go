package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	templatedomain "github.com/openrentals/rentbill/internal/invoicetemplate/domain"
)

type saveTemplateRequest struct {
	Name string `json:"name"`
}

func (s *Server) SaveInvoiceTemplate(c *gin.Context) {
	var req saveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "invalid_json", "invalid request body"))
		return
	}

	tmpl, err := s.templateSvc.CreateFromInvoice(c.Request.Context(), templatedomain.CreateFromInvoiceRequest{
		InvoiceID: c.Param("id"),
		Name:      req.Name,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": tmpl})
}

func (s *Server) ListTemplates(c *gin.Context) {
	templates, err := s.templateSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": templates})
}

func (s *Server) GetTemplateByCode(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	tmpl, err := s.templateSvc.GetByCode(c.Request.Context(), code)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tmpl})
}
