// Package dashboard serves the supplier and demand map views: it owns the
// loaded reference table and joins subject data against it on request.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/supply-map-service/internal/cluster"
	"github.com/couchcryptid/supply-map-service/internal/domain"
	"github.com/couchcryptid/supply-map-service/internal/observability"
	"github.com/couchcryptid/supply-map-service/internal/store"
)

// ErrNewsUnavailable is returned by SupplierNews when no news client is configured.
var ErrNewsUnavailable = errors.New("news search not configured")

// Fetcher returns a raw JSON document.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// RiskAnalyzer submits a supplier for risk analysis.
type RiskAnalyzer interface {
	AnalyzeSupplier(ctx context.Context, req domain.RiskAnalysisRequest) (json.RawMessage, error)
}

// NewsSearcher finds recent articles for a query.
type NewsSearcher interface {
	Search(ctx context.Context, query string) ([]domain.Article, error)
}

// Kind names a subject data set.
type Kind string

const (
	KindSupplier Kind = "supplier"
	KindDemand   Kind = "demand"
	KindAdhoc    Kind = "adhoc"
)

// SubjectSource describes where a subject data set comes from and how its
// records are laid out.
type SubjectSource struct {
	Fetcher       Fetcher
	LocationField string
	WrapKey       string
}

// Options wires a Service to its data sources and collaborators. Risk and
// News may be nil.
type Options struct {
	Reference       Fetcher
	ReferenceFields domain.ReferenceFields
	Suppliers       SubjectSource
	Demand          SubjectSource
	Risk            RiskAnalyzer
	News            NewsSearcher
	H3Resolution    int
}

// Service implements the dashboard operations.
type Service struct {
	opts    Options
	index   atomic.Pointer[domain.RegionIndex]
	loaded  atomic.Bool
	store   *store.Suppliers
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Service with an empty reference index. Call LoadReference
// before serving traffic.
func New(opts Options, suppliers *store.Suppliers, logger *slog.Logger, metrics *observability.Metrics) *Service {
	s := &Service{
		opts:    opts,
		store:   suppliers,
		logger:  logger,
		metrics: metrics,
	}
	s.index.Store(domain.NewRegionIndex(nil))
	return s
}

// LoadReference fetches and indexes the reference table. On failure the
// service keeps an empty index and the error is returned for logging; the
// service still becomes ready, since every join then yields nothing.
func (s *Service) LoadReference(ctx context.Context) error {
	defer s.loaded.Store(true)

	data, err := s.opts.Reference.Fetch(ctx)
	if err != nil {
		s.metrics.SourceFetchErrors.WithLabelValues("reference").Inc()
		return fmt.Errorf("load reference table: %w", err)
	}

	regions, skipped, err := domain.ParseReferenceTable(data, s.opts.ReferenceFields)
	if err != nil {
		s.metrics.SourceFetchErrors.WithLabelValues("reference").Inc()
		return fmt.Errorf("load reference table: %w", err)
	}

	ix := domain.NewRegionIndex(regions)
	s.index.Store(ix)
	s.metrics.ReferenceRegions.Set(float64(ix.Len()))
	s.logger.Info("reference table loaded", "regions", ix.Len(), "skipped", skipped)
	return nil
}

// Index returns the current reference index. It is never nil.
func (s *Service) Index() *domain.RegionIndex {
	return s.index.Load()
}

var _ sharedobs.ReadinessChecker = (*Service)(nil)

// CheckReadiness returns nil once the reference load has been attempted.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.loaded.Load() {
		return errors.New("reference table not loaded yet")
	}
	return nil
}

// Regions returns the loaded reference rows.
func (s *Service) Regions() []domain.ReferenceRegion {
	return s.Index().Regions()
}

// JoinRecords joins caller-supplied subjects against the reference table.
func (s *Service) JoinRecords(subjects []domain.SubjectRecord) domain.JoinResult {
	return s.join(KindAdhoc, subjects)
}

// Suppliers returns the visible suppliers that have coordinates.
func (s *Service) Suppliers(ctx context.Context) []domain.JoinedRecord {
	source := s.fetchSubjects(ctx, KindSupplier, s.opts.Suppliers)
	return s.join(KindSupplier, s.store.Visible(source)).Records
}

// SupplierMarkers returns the suppliers styled for drawing.
func (s *Service) SupplierMarkers(ctx context.Context) []domain.Marker {
	return domain.SupplierMarkers(s.Suppliers(ctx))
}

// Demand returns the demand locations that have coordinates, with any
// missing sentiment outlook derived from their predictions.
func (s *Service) Demand(ctx context.Context) []domain.JoinedRecord {
	subjects := s.fetchSubjects(ctx, KindDemand, s.opts.Demand)
	for i := range subjects {
		subjects[i] = domain.EnrichDemand(subjects[i])
	}
	return s.join(KindDemand, subjects).Records
}

// DemandMarkers returns the demand locations styled for drawing.
func (s *Service) DemandMarkers(ctx context.Context) []domain.Marker {
	return domain.DemandMarkers(s.Demand(ctx))
}

// Clusters groups the markers of a data set by H3 cell.
func (s *Service) Clusters(ctx context.Context, kind Kind) ([]cluster.Cluster, error) {
	var markers []domain.Marker
	switch kind {
	case KindSupplier:
		markers = s.SupplierMarkers(ctx)
	case KindDemand:
		markers = s.DemandMarkers(ctx)
	default:
		return nil, fmt.Errorf("unknown data set %q", kind)
	}
	return cluster.ByCell(markers, s.opts.H3Resolution)
}

// AddResult is the outcome of adding a supplier: the stored ID and the risk
// backend's response, unchanged.
type AddResult struct {
	ID       string
	Analysis json.RawMessage
}

// AddSupplier validates the input, looks up the state's coordinates, asks
// the risk backend for an analysis and stores the supplier. Nothing is
// stored when the backend call fails.
func (s *Service) AddSupplier(ctx context.Context, in domain.SupplierInput) (AddResult, error) {
	if err := in.Validate(); err != nil {
		return AddResult{}, err
	}
	if s.opts.Risk == nil {
		return AddResult{}, errors.New("risk analysis not configured")
	}

	geo, found := s.Index().Lookup(in.State)
	if !found {
		s.logger.Warn("no coordinates found for location", "location", in.State)
	}

	analysis, err := s.opts.Risk.AnalyzeSupplier(ctx, domain.NewRiskAnalysisRequest(in, geo, found))
	if err != nil {
		s.metrics.RiskAPIRequests.WithLabelValues("error").Inc()
		return AddResult{}, fmt.Errorf("analyze supplier: %w", err)
	}
	s.metrics.RiskAPIRequests.WithLabelValues("success").Inc()

	// Non-object responses are returned as is but contribute no fields.
	var fields map[string]any
	_ = json.Unmarshal(analysis, &fields)

	id := s.store.Add(domain.NewSupplierSubject(s.store.NextID(), in, fields, s.opts.Suppliers.LocationField))
	s.logger.Info("supplier added", "id", id, "supplier", in.SupplierName, "state", in.State)
	return AddResult{ID: id, Analysis: analysis}, nil
}

// RemoveSupplier removes an added supplier or hides a source supplier.
func (s *Service) RemoveSupplier(ctx context.Context, id string) error {
	known := slices.Contains(domain.SupplierIDs(s.fetchSubjects(ctx, KindSupplier, s.opts.Suppliers)), id)
	if err := s.store.Remove(id, known); err != nil {
		return err
	}
	s.logger.Info("supplier removed", "id", id)
	return nil
}

// NewsReport is the recent news for one supplier with risk annotations.
type NewsReport struct {
	SupplierID string                    `json:"supplier_id"`
	Supplier   string                    `json:"supplier"`
	Articles   []domain.AnnotatedArticle `json:"articles"`
	RiskScore  int                       `json:"risk_score"`
}

// SupplierNews searches recent news for a visible supplier and scores each
// article for risk keywords. RiskScore is the highest article score.
func (s *Service) SupplierNews(ctx context.Context, id string) (NewsReport, error) {
	if s.opts.News == nil {
		return NewsReport{}, ErrNewsUnavailable
	}

	source := s.fetchSubjects(ctx, KindSupplier, s.opts.Suppliers)
	var name string
	for _, r := range s.store.Visible(source) {
		if domain.SupplierID(r) == id {
			name = r.StringField("supplier_name")
			if name == "" {
				name = r.StringField("supplier")
			}
			break
		}
	}
	if name == "" {
		return NewsReport{}, store.ErrSupplierNotFound
	}

	articles, err := s.opts.News.Search(ctx, name)
	if err != nil {
		s.metrics.NewsRequests.WithLabelValues("error").Inc()
		return NewsReport{}, fmt.Errorf("search news: %w", err)
	}
	s.metrics.NewsRequests.WithLabelValues("success").Inc()

	report := NewsReport{SupplierID: id, Supplier: name, Articles: make([]domain.AnnotatedArticle, 0, len(articles))}
	for _, a := range articles {
		annotated := domain.AnnotateArticle(a)
		report.RiskScore = max(report.RiskScore, annotated.Score)
		report.Articles = append(report.Articles, annotated)
	}
	return report, nil
}

// Cities returns the highlighted cities.
func (s *Service) Cities() []domain.City {
	return domain.Cities()
}

// CityInfo returns the details for a city ID.
func (s *Service) CityInfo(id string) (domain.CityInfo, error) {
	return domain.LookupCityInfo(id)
}

// fetchSubjects fetches and parses a subject data set. Any failure yields
// an empty list.
func (s *Service) fetchSubjects(ctx context.Context, kind Kind, src SubjectSource) []domain.SubjectRecord {
	if src.Fetcher == nil {
		return []domain.SubjectRecord{}
	}
	data, err := src.Fetcher.Fetch(ctx)
	if err != nil {
		s.metrics.SourceFetchErrors.WithLabelValues(string(kind)).Inc()
		s.logger.Error("fetch subjects failed", "kind", kind, "error", err)
		return []domain.SubjectRecord{}
	}
	subjects, err := domain.ParseSubjects(data, src.LocationField, src.WrapKey)
	if err != nil {
		s.metrics.SourceFetchErrors.WithLabelValues(string(kind)).Inc()
		s.logger.Error("parse subjects failed", "kind", kind, "error", err)
		return []domain.SubjectRecord{}
	}
	return subjects
}

func (s *Service) join(kind Kind, subjects []domain.SubjectRecord) domain.JoinResult {
	res := s.Index().Join(subjects, s.logger.With("kind", kind))
	s.metrics.RecordsJoined.WithLabelValues(string(kind)).Add(float64(len(res.Records)))
	s.metrics.RecordsUnmatched.WithLabelValues(string(kind)).Add(float64(len(res.Unmatched)))
	return res
}
