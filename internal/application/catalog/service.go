// Package catalog runs catalog write operations through the integrity pipeline:
// request validation, scope resolution, uniqueness, hierarchy, containment, payload
// validation and delete planning, then one atomic commit.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/storefront/catalog/internal/domain/attribute"
	"github.com/storefront/catalog/internal/domain/catalog"
	"github.com/storefront/catalog/internal/domain/shared"
	"github.com/storefront/catalog/internal/infrastructure/logger"
	"github.com/storefront/catalog/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Repository is the storage the service runs against: the integrity contracts plus
// the list queries used for reads
type Repository interface {
	catalog.Repository

	// ListCategories returns every category of a store
	ListCategories(ctx context.Context, storeID uuid.UUID) ([]catalog.Category, error)

	// ListItems returns one page of a scope's items
	ListItems(ctx context.Context, scope catalog.ScopeKey, filter shared.Filter) (shared.Paginated[catalog.Item], error)
}

// Service handles catalog write operations
type Service struct {
	repo      Repository
	enforcer  *catalog.UniquenessEnforcer
	hierarchy *catalog.CategoryHierarchy
	cascade   *catalog.LifecycleCascade
	registry  *attribute.Registry
	payloads  *attribute.PayloadValidator
	validate  *validator.Validate
	logger    *zap.Logger
	metrics   *telemetry.CatalogMetrics

	maxConflictRetries  int
	maxHierarchyDepth   int
	defaultAllowUnknown bool
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the base logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithMetrics records operation outcomes, conflicts and commit latency
func WithMetrics(m *telemetry.CatalogMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithMaxConflictRetries sets how many times a conflicting write is re-validated.
// Values above 1 are clamped to 1.
func WithMaxConflictRetries(n int) Option {
	return func(s *Service) {
		s.maxConflictRetries = min(max(n, 0), 1)
	}
}

// WithMaxHierarchyDepth caps how many ancestors a category may have. Attachments
// past the cap fail with HIERARCHY_TOO_DEEP.
func WithMaxHierarchyDepth(n int) Option {
	return func(s *Service) {
		s.maxHierarchyDepth = n
	}
}

// WithDefaultAllowUnknownKeys sets the unknown-key policy for organizations whose
// settings omit it
func WithDefaultAllowUnknownKeys(allow bool) Option {
	return func(s *Service) {
		s.defaultAllowUnknown = allow
	}
}

// NewService creates a new Service
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:               repo,
		logger:             zap.NewNop(),
		validate:           newRequestValidator(),
		payloads:           attribute.NewPayloadValidator(),
		maxConflictRetries: 1,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.enforcer = catalog.NewUniquenessEnforcer(repo)
	var hierarchyOpts []catalog.HierarchyOption
	if s.maxHierarchyDepth > 0 {
		hierarchyOpts = append(hierarchyOpts, catalog.WithMaxDepth(s.maxHierarchyDepth))
	}
	s.hierarchy = catalog.NewCategoryHierarchy(repo, hierarchyOpts...)
	s.cascade = catalog.NewLifecycleCascade(repo)
	s.registry = attribute.NewRegistry(repo, s.enforcer, attribute.WithDefaultAllowUnknownKeys(s.defaultAllowUnknown))
	return s
}

// Registry exposes the attribute registry the service validates against
func (s *Service) Registry() *attribute.Registry {
	return s.registry
}

type opNameKey struct{}

// operation tags ctx with the operation name and a fresh operation ID and returns
// the enriched logger
func (s *Service) operation(ctx context.Context, op string, fields ...zap.Field) (context.Context, *zap.Logger) {
	base := s.logger.With(append([]zap.Field{zap.String("op", op)}, fields...)...)
	ctx = context.WithValue(ctx, opNameKey{}, op)
	ctx, log := logger.WithOperationID(ctx, base, uuid.NewString())
	log.Debug("Catalog operation started")
	return ctx, log
}

func operationName(ctx context.Context) string {
	if op, ok := ctx.Value(opNameKey{}).(string); ok {
		return op
	}
	return "unknown"
}

// rejectionCodes lists the codes carried by a rejection
func rejectionCodes(err error) []string {
	if verrs, ok := catalog.AsValidationErrors(err); ok {
		codes := make([]string, 0, len(verrs.Issues))
		for _, issue := range verrs.Issues {
			codes = append(codes, issue.Code)
		}
		return codes
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return []string{de.Code}
	}
	return nil
}

// commit builds a plan from fresh reads and applies it. When the writer reports a
// conflict the plan is rebuilt and applied again, at most maxConflictRetries times.
// Rejections found while rebuilding are returned as-is; a conflict that survives the
// retries is returned as the writer's CONFLICT error.
func (s *Service) commit(ctx context.Context, log *zap.Logger, build func(ctx context.Context) (*catalog.Plan, error)) (*catalog.Plan, error) {
	op := operationName(ctx)
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "commit",
		telemetry.WithAttribute(telemetry.SpanAttrOperation, op),
		telemetry.WithAttribute(telemetry.SpanAttrOperationID, logger.GetOperationID(ctx)),
	)
	defer span.End()
	if traceID := telemetry.GetTraceID(ctx); traceID != "" {
		log = log.With(zap.String("trace_id", traceID))
	}

	for attempt := 0; ; attempt++ {
		telemetry.SetAttributes(span, telemetry.SpanAttrAttempt, attempt)
		plan, err := build(ctx)
		if err != nil {
			log.Warn("Catalog operation rejected", zap.Int("attempt", attempt), zap.Error(err))
			codes := rejectionCodes(err)
			telemetry.RecordError(span, err)
			telemetry.SetAttributes(span, telemetry.SpanAttrCode, codes)
			s.metrics.RecordIssues(ctx, op, codes...)
			s.metrics.RecordOperation(ctx, op, telemetry.OutcomeRejected)
			return nil, err
		}
		if plan.IsEmpty() {
			log.Debug("Nothing to commit")
			s.metrics.RecordOperation(ctx, op, telemetry.OutcomeNoop)
			return plan, nil
		}
		telemetry.SetAttributes(span,
			telemetry.SpanAttrRoot, plan.Root,
			telemetry.SpanAttrUpserts, len(plan.Upserts),
			telemetry.SpanAttrDeletes, len(plan.Deletes),
		)

		started := time.Now()
		err = s.repo.ApplyAtomically(ctx, plan)
		s.metrics.RecordCommit(ctx, op, time.Since(started))
		if err == nil {
			log.Info("Catalog operation committed",
				zap.Stringer("root", plan.Root),
				zap.Int("attempt", attempt),
				zap.Int("upserts", len(plan.Upserts)),
				zap.Int("deletes", len(plan.Deletes)),
				zap.Int("nullifications", len(plan.Nullifications)),
				zap.Int("deactivations", len(plan.Deactivations)),
			)
			s.metrics.RecordOperation(ctx, op, telemetry.OutcomeCommitted)
			return plan, nil
		}
		if !errors.Is(err, shared.ErrConflict) {
			log.Error("Catalog commit failed", zap.Stringer("root", plan.Root), zap.Error(err))
			telemetry.RecordError(span, err)
			s.metrics.RecordOperation(ctx, op, telemetry.OutcomeFailed)
			return nil, err
		}

		s.metrics.RecordConflict(ctx, op)
		telemetry.AddEvent(span, "conflict", telemetry.SpanAttrAttempt, attempt)
		if attempt >= s.maxConflictRetries {
			log.Warn("Catalog commit conflicted permanently", zap.Stringer("root", plan.Root), zap.Error(err))
			telemetry.RecordError(span, err)
			s.metrics.RecordOperation(ctx, op, telemetry.OutcomeConflict)
			return nil, err
		}
		log.Warn("Catalog commit conflicted, re-validating", zap.Stringer("root", plan.Root), zap.Error(err))
	}
}

// scopeField renders a scope for logging
func scopeField(scope catalog.ScopeKey) zap.Field {
	return zap.Stringer("scope", scope)
}

// findOrganizationScope loads the organization bounding a scope
func (s *Service) findOrganizationScope(ctx context.Context, organizationID uuid.UUID, tenantID *string) (catalog.ScopeKey, error) {
	if _, err := s.repo.FindOrganization(ctx, organizationID); err != nil {
		return catalog.ScopeKey{}, err
	}
	return catalog.NewScopeKey(organizationID, tenantID), nil
}
