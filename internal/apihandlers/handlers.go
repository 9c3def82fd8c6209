package apihandlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"remsort/internal/app"
	"remsort/internal/models"
)

type APIHandler struct {
	App *app.App
}

// RegisterRoutes attaches all API endpoints under /api/v1.
func RegisterRoutes(r *gin.Engine, a *app.App) {
	h := &APIHandler{App: a}

	r.GET("/healthz", h.HealthHandler)

	v1 := r.Group("/api/v1")
	v1.POST("/classify", h.ClassifyHandler)
	v1.POST("/process", h.ProcessHandler)

	v1.GET("/categories", h.ListCategoriesHandler)
	v1.POST("/categories", h.AddCategoryHandler)
	v1.DELETE("/categories/:name", h.RemoveCategoryHandler)

	v1.GET("/backend", h.BackendStatusHandler)
	v1.PUT("/backend", h.SwitchBackendHandler)

	v1.POST("/train", h.TrainHandler)

	v1.GET("/uncertain", h.ListUncertainHandler)
	v1.POST("/uncertain/:id/correct", h.CorrectHandler)
	v1.GET("/uncertain/suggestion", h.SuggestCategoryHandler)
}

// respond writes the error envelope {"error": {"code": ..., "message": ...}}.
func respond(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": msg}})
}

// respondError maps the domain sentinel errors onto HTTP statuses. Anything
// unrecognized is a 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		respond(c, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, models.ErrNotFound):
		respond(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, models.ErrAlreadyExists):
		respond(c, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, models.ErrNoBackend):
		respond(c, http.StatusServiceUnavailable, "no_backend", err.Error())
	default:
		respond(c, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func badBody(c *gin.Context, err error) {
	respond(c, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
}

func (h *APIHandler) HealthHandler(c *gin.Context) {
	if err := h.App.Store.Ping(c.Request.Context()); err != nil {
		respond(c, http.StatusServiceUnavailable, "unavailable", "database unreachable: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ClassifyRequest carries raw document text for ad-hoc classification.
type ClassifyRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *APIHandler) ClassifyHandler(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	res := h.App.Classify.Classify(c.Request.Context(), req.Text)
	c.JSON(http.StatusOK, gin.H{"data": res})
}

// ProcessRequest names a document file to run through the full pipeline.
type ProcessRequest struct {
	Path  string `json:"path" binding:"required"`
	Async bool   `json:"async"`
}

func (h *APIHandler) ProcessHandler(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	if req.Async {
		if err := h.App.JobClient.ScheduleDocumentProcess(c.Request.Context(), req.Path); err != nil {
			respond(c, http.StatusInternalServerError, "internal_error", "failed to enqueue document: "+err.Error())
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"data": gin.H{"path": req.Path, "enqueued": true}})
		return
	}

	res, err := h.App.Process.ProcessFile(c.Request.Context(), req.Path)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *APIHandler) ListCategoriesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.App.Registry.Categories()})
}

// AddCategoryRequest registers a new category with keywords.
type AddCategoryRequest struct {
	Name     string   `json:"name" binding:"required"`
	Keywords []string `json:"keywords" binding:"required"`
}

func (h *APIHandler) AddCategoryHandler(c *gin.Context) {
	var req AddCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	if err := h.App.Registry.Add(c.Request.Context(), req.Name, req.Keywords); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"name": req.Name}})
}

func (h *APIHandler) RemoveCategoryHandler(c *gin.Context) {
	removed, err := h.App.Registry.Remove(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": removed})
}

func (h *APIHandler) BackendStatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"active": h.App.Backends.Active()}})
}

// SwitchBackendRequest selects the external-model backend; empty name
// deactivates the stage.
type SwitchBackendRequest struct {
	Name string `json:"name"`
}

func (h *APIHandler) SwitchBackendHandler(c *gin.Context) {
	var req SwitchBackendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	if err := h.App.Backends.Switch(req.Name); err != nil {
		respond(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"active": h.App.Backends.Active()}})
}

func (h *APIHandler) TrainHandler(c *gin.Context) {
	accuracy, err := h.App.Feedback.RetrainFromCorrections(c.Request.Context())
	if err != nil {
		respond(c, http.StatusInternalServerError, "internal_error", "training failed: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"accuracy": accuracy}})
}

func (h *APIHandler) ListUncertainHandler(c *gin.Context) {
	includeCorrected := c.Query("include_corrected") == "true"
	entries, err := h.App.Feedback.ListUncertain(c.Request.Context(), includeCorrected)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}

// CorrectRequest assigns the true category to an uncertain entry.
type CorrectRequest struct {
	Category string `json:"category" binding:"required"`
}

func (h *APIHandler) CorrectHandler(c *gin.Context) {
	var req CorrectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	if err := h.App.Feedback.Correct(c.Request.Context(), c.Param("id"), req.Category); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": c.Param("id"), "category": req.Category}})
}

func (h *APIHandler) SuggestCategoryHandler(c *gin.Context) {
	suggestion, err := h.App.Feedback.SuggestCategory(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": suggestion})
}
