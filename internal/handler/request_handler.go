package handler

import (
	"net/http"
	"time"

	"hospreq/internal/middleware"
	"hospreq/internal/service"
	"hospreq/pkg/pagination"
	"hospreq/pkg/response"

	"github.com/gin-gonic/gin"
)

type RequestHandler struct {
	requestService service.RequestService
	idempotency    middleware.IdempotencyStore
}

func NewRequestHandler(requestService service.RequestService, idempotency middleware.IdempotencyStore) *RequestHandler {
	return &RequestHandler{requestService: requestService, idempotency: idempotency}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/requests")
	{
		// Creation is open to guests; the idempotency layer guards retries
		create := requests.Group("", middleware.OptionalAuth())
		if h.idempotency != nil {
			create.Use(middleware.Idempotency(h.idempotency, 24*time.Hour))
		}
		create.POST("", h.CreateRequest)

		requests.GET("", middleware.RequireAuth(), h.ListRequests)
		requests.GET("/:id", middleware.RequireAuth(), h.GetRequest)
		requests.PATCH("/:id/status", middleware.RequireAuth(), h.UpdateStatus)
		requests.PUT("/:id/approve", middleware.RequireAuth(), h.ApproveRequest)
		requests.PUT("/:id/accept", middleware.RequireAuth(), h.AcceptRequest)
		requests.DELETE("", middleware.RequirePermission("requests.delete"), h.DeleteRequests)
	}
}

// CreateRequest submits a new requisition, return or substitution
// @Summary      Create a request
// @Description  Creates a request with its item. Open to guests; authenticated callers are recorded as the requester.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateRequestDTO  true  "Create Request Payload"
// @Success      201      {object}  response.Response{data=service.RequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/requests [post]
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var dto service.CreateRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	// An authenticated caller is always the requester of record
	if userID := c.GetString(middleware.ContextUserID); userID != "" {
		dto.RequesterID = userID
	}

	result, err := h.requestService.Create(c.Request.Context(), dto)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListRequests returns requests, optionally filtered by status
// @Summary      List requests
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Status filter"
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Limit"
// @Success      200     {object}  response.Response
// @Router       /api/requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	params := pagination.Parse(c)

	requests, total, err := h.requestService.List(c.Request.Context(), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, requests, total, params.Page, params.Limit))
}

// GetRequest returns one request with its items
// @Summary      Get a request
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	result, err := h.requestService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// UpdateStatus transitions a request to a new status
// @Summary      Update request status
// @Description  Transitions the request. Allowed for the requester or members of a matching destination group.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Request ID"
// @Param        payload  body      service.UpdateStatusDTO  true  "Target status"
// @Success      200      {object}  response.Response{data=service.RequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/requests/{id}/status [patch]
func (h *RequestHandler) UpdateStatus(c *gin.Context) {
	var dto service.UpdateStatusDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.requestService.UpdateStatus(c.Request.Context(), c.Param("id"), c.GetString(middleware.ContextUserID), dto.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ApproveRequest approves a pending request
// @Summary      Approve a request
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/requests/{id}/approve [put]
func (h *RequestHandler) ApproveRequest(c *gin.Context) {
	result, err := h.requestService.Approve(c.Request.Context(), c.Param("id"), c.GetString(middleware.ContextUserID))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// AcceptRequest completes an approved request
// @Summary      Accept a request
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/requests/{id}/accept [put]
func (h *RequestHandler) AcceptRequest(c *gin.Context) {
	result, err := h.requestService.Accept(c.Request.Context(), c.Param("id"), c.GetString(middleware.ContextUserID))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// DeleteRequests bulk-deletes requests and their items
// @Summary      Delete requests
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.DeleteRequestsDTO  true  "Request ids"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/requests [delete]
func (h *RequestHandler) DeleteRequests(c *gin.Context) {
	var dto service.DeleteRequestsDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	deleted, err := h.requestService.DeleteBatch(c.Request.Context(), dto.IDs)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": deleted}))
}
