package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	contractdomain "github.com/openrentals/rentbill/internal/contract/domain"
)

func (s *Server) GetContractByID(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid contract id"))
		return
	}

	contract, err := s.contractrepo.FindOne(c.Request.Context(), &contractdomain.Contract{ID: id})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if contract == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": contract})
}
