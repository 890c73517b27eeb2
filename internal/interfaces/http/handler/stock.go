package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	invapp "github.com/pharmapos/backend/internal/application/inventory"
	"github.com/pharmapos/backend/internal/interfaces/http/middleware"
)

// StockHandler handles stock batch API endpoints
type StockHandler struct {
	BaseHandler
	stockService *invapp.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stockService *invapp.StockService) *StockHandler {
	return &StockHandler{
		stockService: stockService,
	}
}

// ReceiveBatchRequest represents a request to receive a stock batch
// @Description	Request body for a stock-in. ReceivedAt defaults to now.
// @Name HandlerReceiveBatchRequest
type ReceiveBatchRequest struct {
	ProductID     string     `json:"product_id" binding:"required,uuid" example:"9f1a7c3e-0b44-4f7e-9a3a-2f6f3f1c8d21"`
	BatchNumber   string     `json:"batch_number" binding:"required,min=1,max=50" example:"LOT-2026-0815"`
	Quantity      float64    `json:"quantity" binding:"required,gt=0" example:"100"`
	PurchasePrice float64    `json:"purchase_price" binding:"required,gt=0" example:"3.25"`
	SellingPrice  float64    `json:"selling_price" binding:"required,gt=0" example:"4.50"`
	ReceivedAt    *time.Time `json:"received_at" example:"2026-08-15T09:30:00Z"`
}

// ReceiveBatch godoc
// @ID           receiveStockBatch
//
//	@Summary		Receive a stock batch
//	@Description	Records a new stock batch for a product and refreshes the product's displayed price from the oldest sellable batch.
//	@Tags			stock
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ReceiveBatchRequest	true	"Stock-in request"
//	@Success		201		{object}	APIResponse[invapp.ReceiveBatchResult]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/stock/batches [post]
func (h *StockHandler) ReceiveBatch(c *gin.Context) {
	var req ReceiveBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	result, err := h.stockService.ReceiveBatch(c.Request.Context(), invapp.ReceiveBatchRequest{
		ProductID:     productID,
		BatchNumber:   req.BatchNumber,
		Quantity:      toDecimal(req.Quantity),
		PurchasePrice: toDecimal(req.PurchasePrice),
		SellingPrice:  toDecimal(req.SellingPrice),
		ReceivedAt:    req.ReceivedAt,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// GetProductStock godoc
// @ID           getProductStock
//
//	@Summary		Get a product's stock position
//	@Description	Returns the product's displayed price, total sellable quantity and its batches in selling order.
//	@Tags			stock
//	@Produce		json
//	@Param			id	path		string	true	"Product ID"	format(uuid)
//	@Success		200	{object}	APIResponse[invapp.ProductStockResult]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/stock/products/{id} [get]
func (h *StockHandler) GetProductStock(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	result, err := h.stockService.GetProductStock(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RefreshPrices godoc
// @ID           refreshDisplayedPrices
//
//	@Summary		Reconcile displayed prices
//	@Description	Sweeps every product and realigns its displayed price with the oldest sellable batch. Intended as an admin maintenance operation.
//	@Tags			stock
//	@Produce		json
//	@Success		200	{object}	APIResponse[invapp.PriceRefreshResult]
//	@Failure		500	{object}	ErrorResponse
//	@Router			/admin/prices/refresh [post]
func (h *StockHandler) RefreshPrices(c *gin.Context) {
	result, err := h.stockService.RefreshAllPrices(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RegisterRoutes registers all stock routes
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stock := rg.Group("/stock")
	{
		stock.POST("/batches", h.ReceiveBatch)
		stock.GET("/products/:id", h.GetProductStock)
	}

	admin := rg.Group("/admin")
	{
		admin.POST("/prices/refresh", h.RefreshPrices)
	}
}
