package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	orderdomain "github.com/craftline/salesdesk/internal/order/domain"
	shippingdomain "github.com/craftline/salesdesk/internal/shipping/domain"
)

func (s *Server) CheckServiceability(c *gin.Context) {
	pincode := strings.TrimSpace(c.Param("pincode"))
	if len(pincode) != 6 {
		AbortWithError(c, newValidationError("pincode", "invalid_pincode", "pincode must be 6 digits"))
		return
	}

	result, err := s.shipping.CheckPincode(c.Request.Context(), pincode)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

type createShipmentRequest struct {
	WeightGrams int `json:"weight_grams"`
}

func (s *Server) CreateShipment(c *gin.Context) {
	var req createShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	waybill, err := s.orders.CreateShipment(c.Request.Context(), orderdomain.CreateShipmentRequest{
		OrderID:     c.Param("id"),
		WeightGrams: req.WeightGrams,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": waybill})
}

func (s *Server) GetTracking(c *gin.Context) {
	waybill, err := s.orders.GetTracking(c.Request.Context(), c.Param("wbn"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": waybill})
}

func (s *Server) FetchLabel(c *gin.Context) {
	data, err := s.shipping.FetchLabel(c.Request.Context(), c.Param("wbn"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="label.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

type allocateWaybillsRequest struct {
	Count int `json:"count"`
}

func (s *Server) AllocateWaybills(c *gin.Context) {
	var req allocateWaybillsRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Count <= 0 {
		req.Count = 1
	}
	if req.Count > 100 {
		AbortWithError(c, newValidationError("count", "invalid_count", "count must be at most 100"))
		return
	}

	waybills, err := s.shipping.AllocateWaybills(c.Request.Context(), req.Count)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": waybills})
}

func (s *Server) RequestPickup(c *gin.Context) {
	var req shippingdomain.PickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Date) == "" {
		AbortWithError(c, newValidationError("pickup_date", "required", "pickup_date is required"))
		return
	}
	if req.PackageCount <= 0 {
		req.PackageCount = 1
	}

	if err := s.shipping.RequestPickup(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"status": "requested"}})
}
