package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/CDNAtlas/internal/application/atlas"
	"github.com/turtacn/CDNAtlas/internal/domain/country"
	"github.com/turtacn/CDNAtlas/internal/domain/criticality"
	"github.com/turtacn/CDNAtlas/internal/domain/geo"
	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/logging"
)

// AtlasHandler serves the dependency-map API under /api/v1.
type AtlasHandler struct {
	svc    atlas.Service
	logger logging.Logger
}

// NewAtlasHandler creates a new AtlasHandler.
func NewAtlasHandler(svc atlas.Service, logger logging.Logger) *AtlasHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AtlasHandler{svc: svc, logger: logger.Named("http")}
}

// RegisterRoutes mounts the API endpoints on r.
func (h *AtlasHandler) RegisterRoutes(r chi.Router) {
	r.Get("/countries", h.ListCountries)
	r.Get("/countries/{code}", h.GetCountry)
	r.Get("/cdns", h.ListCDNs)
	r.Get("/content-classes", h.ListContentClasses)
	r.Get("/relations", h.ListRelations)
	r.Get("/relations/{id}/criticality", h.GetRelationCriticality)
	r.Get("/layer", h.GetLayer)
	r.Get("/stats", h.GetStats)
	r.Get("/analytics", h.GetAnalytics)
	r.Post("/criticality", h.ScoreCriticality)
}

// CountryList is the response of GET /countries.
type CountryList struct {
	Countries []country.Country `json:"countries"`
	Total     int               `json:"total"`
}

// CDNList is the response of GET /cdns.
type CDNList struct {
	CDNs  []country.CDN `json:"cdns"`
	Total int           `json:"total"`
}

// ContentClassList is the response of GET /content-classes.
type ContentClassList struct {
	ContentClasses []country.ContentClass `json:"contentClasses"`
	Total          int                    `json:"total"`
}

// ScoreResponse is the response of POST /criticality.
type ScoreResponse struct {
	Breakdown criticality.Breakdown `json:"breakdown"`
	Color     string                `json:"color"`
}

// ListCountries handles GET /countries.
func (h *AtlasHandler) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.svc.ListCountries(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, CountryList{Countries: countries, Total: len(countries)})
}

// GetCountry handles GET /countries/{code}; filter parameters narrow the
// relations counted in the panel.
func (h *AtlasHandler) GetCountry(w http.ResponseWriter, r *http.Request) {
	spec, err := parseFilter(r.URL.Query())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	detail, err := h.svc.CountryDetail(r.Context(), code, spec)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// ListCDNs handles GET /cdns.
func (h *AtlasHandler) ListCDNs(w http.ResponseWriter, r *http.Request) {
	cdns, err := h.svc.ListCDNs(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, CDNList{CDNs: cdns, Total: len(cdns)})
}

// ListContentClasses handles GET /content-classes.
func (h *AtlasHandler) ListContentClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.svc.ListContentClasses(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ContentClassList{ContentClasses: classes, Total: len(classes)})
}

// ListRelations handles GET /relations.
func (h *AtlasHandler) ListRelations(w http.ResponseWriter, r *http.Request) {
	input, err := parseLayerInput(r.URL.Query())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	list, err := h.svc.Relations(r.Context(), input)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetRelationCriticality handles GET /relations/{id}/criticality.
func (h *AtlasHandler) GetRelationCriticality(w http.ResponseWriter, r *http.Request) {
	score, err := h.svc.RelationCriticality(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

// GetLayer handles GET /layer.
func (h *AtlasHandler) GetLayer(w http.ResponseWriter, r *http.Request) {
	input, err := parseLayerInput(r.URL.Query())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	layer, err := h.svc.Layer(r.Context(), input)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, layer)
}

// GetStats handles GET /stats.
func (h *AtlasHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	input, err := parseLayerInput(r.URL.Query())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	stats, err := h.svc.Stats(r.Context(), input)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetAnalytics handles GET /analytics.  The selected country and relation
// type do not apply to analytics.
func (h *AtlasHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	spec, err := parseFilter(q)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	topN, err := parseTopN(q)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	analytics, err := h.svc.Analytics(r.Context(), spec, topN)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

// ScoreCriticality handles POST /criticality.
func (h *AtlasHandler) ScoreCriticality(w http.ResponseWriter, r *http.Request) {
	var input criticality.Input
	if err := decodeJSON(w, r, &input); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	breakdown, err := h.svc.Score(r.Context(), input)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ScoreResponse{
		Breakdown: *breakdown,
		Color:     geo.IntensityToColor(breakdown.Total),
	})
}
