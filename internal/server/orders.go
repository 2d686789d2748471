package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	orderdomain "github.com/craftline/salesdesk/internal/order/domain"
)

func (s *Server) RecalculateOrder(c *gin.Context) {
	var req orderdomain.RecalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orders.RecalculateLines(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ValidateOrder(c *gin.Context) {
	var req orderdomain.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orders.ValidateOrder(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SubmitOrder(c *gin.Context) {
	var req orderdomain.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	order, err := s.orders.SubmitOrder(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": order})
}

type listOrdersQuery struct {
	PageToken   string `form:"page_token"`
	PageSize    int    `form:"page_size,default=20"`
	Status      string `form:"status"`
	PaymentMode string `form:"payment_mode"`
	CreatedFrom string `form:"created_from"`
	CreatedTo   string `form:"created_to"`
}

func (s *Server) ListOrders(c *gin.Context) {
	var query listOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := orderdomain.ListOrderRequest{
		PageToken:   query.PageToken,
		PageSize:    query.PageSize,
		Status:      orderdomain.OrderStatus(query.Status),
		PaymentMode: query.PaymentMode,
	}
	if query.CreatedFrom != "" {
		from, err := time.Parse(time.RFC3339, query.CreatedFrom)
		if err != nil {
			AbortWithError(c, newValidationError("created_from", "invalid_timestamp", "created_from must be RFC 3339"))
			return
		}
		req.CreatedFrom = &from
	}
	if query.CreatedTo != "" {
		to, err := time.Parse(time.RFC3339, query.CreatedTo)
		if err != nil {
			AbortWithError(c, newValidationError("created_to", "invalid_timestamp", "created_to must be RFC 3339"))
			return
		}
		req.CreatedTo = &to
	}

	resp, err := s.orders.ListOrders(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOrder(c *gin.Context) {
	order, err := s.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (s *Server) PackingSlip(c *gin.Context) {
	data, err := s.orders.PackingSlip(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="packing-slip.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

func (s *Server) InvoicePDF(c *gin.Context) {
	data, err := s.orders.InvoicePDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="invoice.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
