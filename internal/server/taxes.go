package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListTaxes returns the live, family-classified tax catalog the wizard
// populates its tax dropdowns from.
func (s *Server) ListTaxes(c *gin.Context) {
	catalog, err := s.orders.TaxCatalog(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": catalog.Records()})
}
