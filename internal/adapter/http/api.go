package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/supply-map-service/internal/dashboard"
	"github.com/couchcryptid/supply-map-service/internal/domain"
	"github.com/couchcryptid/supply-map-service/internal/store"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type api struct {
	svc    Dashboard
	logger *slog.Logger
}

func apiRoutes(svc Dashboard, logger *slog.Logger) http.Handler {
	a := &api{svc: svc, logger: logger}
	r := chi.NewRouter()

	r.Get("/regions", a.handleRegions)
	r.Post("/join", a.handleJoin)

	r.Route("/suppliers", func(r chi.Router) {
		r.Get("/", a.handleSuppliers)
		r.Post("/", a.handleAddSupplier)
		r.Get("/markers", a.handleSupplierMarkers)
		r.Get("/clusters", a.handleClusters(dashboard.KindSupplier))
		r.Delete("/{id}", a.handleRemoveSupplier)
		r.Get("/{id}/news", a.handleSupplierNews)
	})

	r.Route("/demand", func(r chi.Router) {
		r.Get("/", a.handleDemand)
		r.Get("/markers", a.handleDemandMarkers)
		r.Get("/clusters", a.handleClusters(dashboard.KindDemand))
	})

	r.Get("/cities", a.handleCities)
	r.Get("/cities/{id}", a.handleCityInfo)

	return r
}

func (a *api) handleRegions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.svc.Regions())
}

func (a *api) handleSuppliers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.svc.Suppliers(r.Context()))
}

func (a *api) handleSupplierMarkers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.svc.SupplierMarkers(r.Context()))
}

func (a *api) handleDemand(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.svc.Demand(r.Context()))
}

func (a *api) handleDemandMarkers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.svc.DemandMarkers(r.Context()))
}

func (a *api) handleClusters(kind dashboard.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clusters, err := a.svc.Clusters(r.Context(), kind)
		if err != nil {
			a.logger.Error("cluster markers failed", "kind", kind, "error", err)
			writeError(w, http.StatusInternalServerError, "could not cluster markers")
			return
		}
		writeJSON(w, http.StatusOK, clusters)
	}
}

// handleAddSupplier responds with the risk backend's body unchanged. The
// stored ID is sent in the Location and X-Supplier-ID headers.
func (a *api) handleAddSupplier(w http.ResponseWriter, r *http.Request) {
	var in domain.SupplierInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := a.svc.AddSupplier(r.Context(), in)
	switch {
	case errors.Is(err, domain.ErrMissingField):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		a.logger.Error("add supplier failed", "supplier", in.SupplierName, "error", err)
		writeError(w, http.StatusBadGateway, "risk analysis failed")
		return
	}

	w.Header().Set("Location", "/api/suppliers/"+res.ID)
	w.Header().Set("X-Supplier-ID", res.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(res.Analysis)
}

func (a *api) handleRemoveSupplier(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.svc.RemoveSupplier(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrSupplierNotFound) {
			writeError(w, http.StatusNotFound, "Supplier not found")
			return
		}
		a.logger.Error("remove supplier failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not remove supplier")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleSupplierNews(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, err := a.svc.SupplierNews(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrSupplierNotFound):
		writeError(w, http.StatusNotFound, "Supplier not found")
	case errors.Is(err, dashboard.ErrNewsUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		a.logger.Error("supplier news failed", "id", id, "error", err)
		writeError(w, http.StatusBadGateway, "news search failed")
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

type joinRequest struct {
	LocationField string          `json:"location_field"`
	Records       json.RawMessage `json:"records"`
}

type joinResponse struct {
	Records   []domain.JoinedRecord `json:"records"`
	Unmatched []string              `json:"unmatched"`
}

// handleJoin joins the posted records against the reference table. Records
// may be an array or an object wrapping one.
func (a *api) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.LocationField == "" {
		req.LocationField = "state"
	}

	var subjects []domain.SubjectRecord
	if len(req.Records) > 0 {
		var err error
		subjects, err = domain.ParseSubjects(req.Records, req.LocationField, "")
		if err != nil {
			writeError(w, http.StatusBadRequest, "records must be an array of objects")
			return
		}
	}

	res := a.svc.JoinRecords(subjects)
	unmatched := res.Unmatched
	if unmatched == nil {
		unmatched = []string{}
	}
	writeJSON(w, http.StatusOK, joinResponse{Records: res.Records, Unmatched: unmatched})
}

func (a *api) handleCities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.svc.Cities())
}

func (a *api) handleCityInfo(w http.ResponseWriter, r *http.Request) {
	info, err := a.svc.CityInfo(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "City not found")
		return
	}
	writeJSON(w, http.StatusOK, info)
}
