package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	salesapp "github.com/pharmapos/backend/internal/application/sales"
	"github.com/pharmapos/backend/internal/domain/shared"
	"github.com/pharmapos/backend/internal/interfaces/http/dto"
	"github.com/pharmapos/backend/internal/interfaces/http/middleware"
)

// SalesHandler handles sale settlement API endpoints
type SalesHandler struct {
	BaseHandler
	settlementService *salesapp.SettlementService
}

// NewSalesHandler creates a new SalesHandler
func NewSalesHandler(settlementService *salesapp.SettlementService) *SalesHandler {
	return &SalesHandler{
		settlementService: settlementService,
	}
}

// SettleSaleItemRequest represents one line of a settlement request
// @Name HandlerSettleSaleItemRequest
type SettleSaleItemRequest struct {
	ProductID string  `json:"product_id" binding:"required,uuid" example:"9f1a7c3e-0b44-4f7e-9a3a-2f6f3f1c8d21"`
	Quantity  float64 `json:"quantity" binding:"required,gt=0" example:"2"`
}

// SettleSaleRequest represents a request to settle a POS sale
// @Description	Request body for settling a sale. The request ID is the POS
// @Description	terminal's idempotency key; resubmissions are rejected.
// @Name HandlerSettleSaleRequest
type SettleSaleRequest struct {
	RequestID string                  `json:"request_id" binding:"omitempty,max=100" example:"pos-7f3e-0001"`
	Items     []SettleSaleItemRequest `json:"items" binding:"required,min=1,dive"`
}

// Settle godoc
// @ID           settleSale
//
//	@Summary		Settle a sale
//	@Description	Allocates every sale line against stock batches oldest first, decrements batch quantities and records the cost and profit breakdown. The whole sale commits or rolls back atomically.
//	@Tags			sales
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SettleSaleRequest	true	"Sale settlement request"
//	@Success		201		{object}	APIResponse[salesapp.SettlementResult]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/sales/settle [post]
func (h *SalesHandler) Settle(c *gin.Context) {
	var req SettleSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	appReq := salesapp.SettleSaleRequest{
		RequestID: req.RequestID,
		Items:     make([]salesapp.SettleSaleItem, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			h.BadRequest(c, "Invalid product ID: "+item.ProductID)
			return
		}
		appReq.Items = append(appReq.Items, salesapp.SettleSaleItem{
			ProductID: productID,
			Quantity:  toDecimal(item.Quantity),
		})
	}

	result, err := h.settlementService.SettleSale(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// Void godoc
// @ID           voidSale
//
//	@Summary		Void a settled sale
//	@Description	Reverses a committed sale: drawn quantities are returned to their original batches and compensating ledger rows are appended.
//	@Tags			sales
//	@Produce		json
//	@Param			id	path		string	true	"Sale ID"	format(uuid)
//	@Success		200	{object}	APIResponse[salesapp.VoidResult]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/sales/{id}/void [post]
func (h *SalesHandler) Void(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID")
		return
	}

	result, err := h.settlementService.VoidSale(c.Request.Context(), saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetByID godoc
// @ID           getSaleById
//
//	@Summary		Get a sale
//	@Description	Returns a sale with its totals and the full allocation breakdown.
//	@Tags			sales
//	@Produce		json
//	@Param			id	path		string	true	"Sale ID"	format(uuid)
//	@Success		200	{object}	APIResponse[salesapp.SettlementResult]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/sales/{id} [get]
func (h *SalesHandler) GetByID(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID")
		return
	}

	result, err := h.settlementService.GetSale(c.Request.Context(), saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// List godoc
// @ID           listSales
//
//	@Summary		List sales
//	@Description	Returns a page of sales with their cost and profit totals, newest first by default.
//	@Tags			sales
//	@Produce		json
//	@Param			page		query		int		false	"Page number"		default(1)
//	@Param			page_size	query		int		false	"Page size"			default(20)
//	@Param			order_dir	query		string	false	"Sort direction"	Enums(asc, desc)
//	@Success		200	{object}	APIResponse[[]salesapp.SaleSummary]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/sales [get]
func (h *SalesHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	summaries, total, err := h.settlementService.ListSales(c.Request.Context(), shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, summaries, total, req.Page, req.PageSize)
}

// RegisterRoutes registers all sales routes
func (h *SalesHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sales := rg.Group("/sales")
	{
		sales.GET("", h.List)
		sales.POST("/settle", h.Settle)
		sales.POST("/:id/void", h.Void)
		sales.GET("/:id", h.GetByID)
	}
}
