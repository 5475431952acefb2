package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invoicedomain "github.com/openrentals/rentbill/internal/invoice/domain"
	"github.com/openrentals/rentbill/internal/pricing"
	"go.uber.org/zap"
)

func (s *Server) ListInvoices(c *gin.Context) {
	req := invoicedomain.ListInvoiceRequest{}

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := invoicedomain.InvoiceStatus(strings.ToUpper(raw))
		req.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("contract_id")); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("contract_id", "invalid_id", "invalid contract id"))
			return
		}
		req.ContractID = &id
	}
	if raw := strings.TrimSpace(c.Query("tenant_id")); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("tenant_id", "invalid_id", "invalid tenant id"))
			return
		}
		req.TenantID = &id
	}
	if raw := strings.TrimSpace(c.Query("due_from")); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			AbortWithError(c, newValidationError("due_from", "invalid_date", "expected YYYY-MM-DD"))
			return
		}
		req.DueFrom = &t
	}
	if raw := strings.TrimSpace(c.Query("due_to")); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			AbortWithError(c, newValidationError("due_to", "invalid_date", "expected YYYY-MM-DD"))
			return
		}
		req.DueTo = &t
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Invoices})
}

// itemMeta is the per-line derived state the edit screen renders from:
// the resolved pricing mode and the capability record.
type itemMeta struct {
	Key         string              `json:"key"`
	PricingMode pricing.Mode        `json:"pricing_mode"`
	Editability pricing.Editability `json:"editability"`
}

func (s *Server) GetInvoice(c *gin.Context) {
	loaded, err := s.invoiceSvc.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	kw := pricing.KeywordsFromConfig(s.pricingCfg.Get())
	meta := make([]itemMeta, 0, len(loaded.Invoice.Items))
	for i, item := range loaded.Invoice.Items {
		mode := pricing.ResolveMode(item, loaded.Contract, kw)
		meta = append(meta, itemMeta{
			Key:         pricing.Key(item, i),
			PricingMode: mode,
			Editability: pricing.Classify(item, mode, kw),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"invoice":           loaded.Invoice,
		"contract":          loaded.Contract,
		"working_due_date":  loaded.WorkingDueDate,
		"due_date_adjusted": loaded.DueDateAdjusted,
		"items_meta":        meta,
	}})
}

type updateItemsRequest struct {
	Items []invoicedomain.InvoiceItem `json:"items"`
	Edits invoicedomain.RawEdits      `json:"edits"`
}

func (s *Server) UpdateInvoiceItems(c *gin.Context) {
	var req updateItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "invalid_json", "invalid request body"))
		return
	}

	invoice, err := s.invoiceSvc.UpdateItems(c.Request.Context(), c.Param("id"), req.Items, req.Edits)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

type updateBasicsRequest struct {
	DueDate *time.Time `json:"due_date"`
	Note    *string    `json:"note"`
}

func (s *Server) UpdateInvoiceBasics(c *gin.Context) {
	var req updateBasicsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "invalid_json", "invalid request body"))
		return
	}

	invoice, err := s.invoiceSvc.UpdateBasics(c.Request.Context(), c.Param("id"), req.DueDate, req.Note)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

func (s *Server) IssueInvoice(c *gin.Context) {
	invoice, err := s.invoiceSvc.Issue(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

type saveInvoiceRequest struct {
	Items   []invoicedomain.InvoiceItem `json:"items"`
	DueDate *time.Time                  `json:"due_date"`
	Note    *string                     `json:"note"`
	Edits   invoicedomain.RawEdits      `json:"edits"`
	Issue   bool                        `json:"issue"`
}

// SaveInvoice runs the save chain. With intent=back the client is leaving
// the screen: a persistence failure is reported inside a 200 response so it
// can still navigate away; with intent=stay (the default, used by "save
// draft") the failure is surfaced as an error and the client retries.
func (s *Server) SaveInvoice(c *gin.Context) {
	var req saveInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "invalid_json", "invalid request body"))
		return
	}

	result, err := s.invoiceSvc.SaveChain(c.Request.Context(), invoicedomain.SaveChainRequest{
		InvoiceID: c.Param("id"),
		Items:     req.Items,
		DueDate:   req.DueDate,
		Note:      req.Note,
		Edits:     req.Edits,
		Issue:     req.Issue,
	})

	intent := strings.TrimSpace(c.DefaultQuery("intent", "stay"))
	if err != nil {
		if intent == "back" {
			s.log.Warn("save chain failed on navigate-back",
				zap.String("invoice_id", c.Param("id")),
				zap.String("failed_stage", string(result.FailedStage)),
				zap.Error(err),
			)
			c.JSON(http.StatusOK, gin.H{"data": gin.H{
				"persisted":    false,
				"failed_stage": result.FailedStage,
				"result":       result,
			}})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"persisted": !result.Skipped,
		"result":    result,
	}})
}

func (s *Server) AddInvoiceItem(c *gin.Context) {
	var req invoicedomain.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "invalid_json", "invalid request body"))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		AbortWithError(c, newValidationError("name", "required", "item name is required"))
		return
	}

	invoice, err := s.invoiceSvc.AddItem(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

func (s *Server) DeleteInvoiceItem(c *gin.Context) {
	invoice, err := s.invoiceSvc.DeleteItem(c.Request.Context(), c.Param("id"), c.Param("itemID"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}
