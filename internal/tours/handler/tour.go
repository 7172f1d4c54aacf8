package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"roamio/internal/tours/service"
	httputil "roamio/pkg/http"
	"roamio/pkg/logger"
	"roamio/pkg/model"
)

type TourHandler struct {
	service service.TourService
	log     *logger.Logger
}

func NewTourHandler(service service.TourService, log *logger.Logger) *TourHandler {
	return &TourHandler{
		service: service,
		log:     log,
	}
}

// parseQuery maps raw query parameters onto the typed criteria. Malformed
// numeric values impose no constraint rather than failing the request.
func parseQuery(values url.Values) model.TourQuery {
	query := model.TourQuery{
		SortBy:    values.Get("sortBy"),
		SortOrder: values.Get("sortOrder"),
	}

	query.Filter.Query = values.Get("q")
	query.Filter.Category = values.Get("category")
	query.Filter.Location = values.Get("location")

	if values.Get("featured") == "true" {
		featured := true
		query.Filter.Featured = &featured
	}

	query.Filter.MinPrice = parseFloatParam(values.Get("minPrice"))
	query.Filter.MaxPrice = parseFloatParam(values.Get("maxPrice"))
	query.Filter.MinRating = parseFloatParam(values.Get("minRating"))

	if page, err := strconv.Atoi(values.Get("page")); err == nil {
		query.Page = page
	}
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil {
		query.Limit = limit
	}

	return query
}

func parseFloatParam(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func (h *TourHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	result, err := h.service.Search(r.Context(), parseQuery(r.URL.Query()))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "error", err)
	}
}

func (h *TourHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slug := ps.ByName("slug")

	if r.URL.Query().Get("summary") == "true" {
		summary, err := h.service.GetSummary(r.Context(), slug)
		if err != nil {
			if writeErr := httputil.WriteError(w, err); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "Get", "error", writeErr)
			}
			return
		}
		if err := httputil.WriteSuccess(w, summary); err != nil {
			h.log.Error("failed to write success response", "handler", "Get", "error", err)
		}
		return
	}

	tour, err := h.service.GetBySlugOrID(r.Context(), slug)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Get", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, tour); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "error", err)
	}
}

func (h *TourHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var tour model.Tour
	if err := json.NewDecoder(r.Body).Decode(&tour); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), &tour); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, tour); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *TourHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slug := ps.ByName("slug")

	var updates model.TourUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Update", "error", writeErr)
		}
		return
	}

	tour, err := h.service.Update(r.Context(), slug, &updates)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, tour); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "error", err)
	}
}

func (h *TourHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("slug")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *TourHandler) AddReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slug := ps.ByName("slug")

	var input model.ReviewInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "AddReview", "error", writeErr)
		}
		return
	}

	result, err := h.service.AddReview(r.Context(), slug, &input)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "AddReview", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, result); err != nil {
		h.log.Error("failed to write created response", "handler", "AddReview", "error", err)
	}
}

func (h *TourHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Stats", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, stats); err != nil {
		h.log.Error("failed to write success response", "handler", "Stats", "error", err)
	}
}

func (h *TourHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	avail, err := h.service.Availability(r.Context(), ps.ByName("slug"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Availability", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, avail); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "error", err)
	}
}

func (h *TourHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/tours", h.List)
	router.POST("/api/v1/tours", h.Create)
	router.GET("/api/v1/tours/stats", h.Stats)
	router.GET("/api/v1/tours/slug/:slug", h.Get)
	router.PATCH("/api/v1/tours/slug/:slug", h.Update)
	router.DELETE("/api/v1/tours/slug/:slug", h.Delete)
	router.POST("/api/v1/tours/slug/:slug/reviews", h.AddReview)
	router.GET("/api/v1/tours/slug/:slug/availability", h.Availability)
}
