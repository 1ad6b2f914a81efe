package doctors

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/hospital-ai-platform/internal/observability/metrics"
	"github.com/wolfman30/hospital-ai-platform/pkg/logging"
)

var doctorsTracer = otel.Tracer("hospital.internal.doctors")

// DefaultReservationTTL is how long an unconfirmed reservation may hold a
// doctor before the sweep reclaims it.
const DefaultReservationTTL = 20 * time.Minute

// Service wraps the repository with the lease policy, logging and metrics.
type Service struct {
	repo    Repository
	ttl     time.Duration
	logger  *logging.Logger
	metrics *metrics.AllocatorMetrics
	now     func() time.Time
}

// NewService constructs the allocator service.
func NewService(repo Repository, ttl time.Duration, logger *logging.Logger, m *metrics.AllocatorMetrics) *Service {
	if repo == nil {
		panic("doctors: repository required")
	}
	if ttl <= 0 {
		ttl = DefaultReservationTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:    repo,
		ttl:     ttl,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Reserve claims one available doctor, preferring the given specialization.
func (s *Service) Reserve(ctx context.Context, specialization string) (*Doctor, error) {
	ctx, span := doctorsTracer.Start(ctx, "doctors.reserve")
	defer span.End()
	span.SetAttributes(attribute.String("hospital.specialization", specialization))

	doc, err := s.repo.Reserve(ctx, specialization, s.now())
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveReservation("failed")
		return nil, err
	}

	s.metrics.ObserveReservation("reserved")
	s.logger.Info("doctor reserved",
		"doctor_id", doc.ID,
		"specialization", doc.Specialization,
		"requested_specialization", specialization,
	)
	return doc, nil
}

// Confirm re-affirms an existing assignment, extending its lease.
func (s *Service) Confirm(ctx context.Context, id int64) (*Doctor, error) {
	ctx, span := doctorsTracer.Start(ctx, "doctors.confirm")
	defer span.End()
	span.SetAttributes(attribute.Int64("hospital.doctor_id", id))

	doc, err := s.repo.Confirm(ctx, id, s.now())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.metrics.ObserveReservation("confirmed")
	s.logger.Info("doctor reservation confirmed", "doctor_id", doc.ID)
	return doc, nil
}

// ReleaseStale reclaims leases older than the service TTL.
func (s *Service) ReleaseStale(ctx context.Context) (int64, error) {
	ctx, span := doctorsTracer.Start(ctx, "doctors.release_stale")
	defer span.End()

	released, err := s.repo.ReleaseStale(ctx, s.now(), s.ttl)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	if released > 0 {
		s.metrics.ObserveReleased(float64(released))
		s.logger.Info("stale doctor reservations released", "count", released)
	}
	return released, nil
}

// ListAvailable exposes the current available roster for the assigner.
func (s *Service) ListAvailable(ctx context.Context) ([]Doctor, error) {
	return s.repo.ListAvailable(ctx)
}

// GetByID exposes doctor lookup by identity.
func (s *Service) GetByID(ctx context.Context, id int64) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

// TTL reports the reservation hold duration.
func (s *Service) TTL() time.Duration {
	return s.ttl
}
