package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/motorsouq/listings/internal/domain"
)

const tracerName = "github.com/motorsouq/listings/internal/adapter/otel"

// TracingRepository wraps a domain.ListingRepository with OpenTelemetry
// tracing. Each method creates a span with semantic attributes and
// records errors, including lost transition races on Update.
type TracingRepository struct {
	next   domain.ListingRepository
	tracer trace.Tracer
}

// Compile-time check: TracingRepository implements domain.ListingRepository.
var _ domain.ListingRepository = (*TracingRepository)(nil)

// NewTracingRepository creates a tracing decorator around the given repository.
func NewTracingRepository(next domain.ListingRepository) *TracingRepository {
	return &TracingRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingRepository) Create(ctx context.Context, listing domain.Listing) error {
	ctx, span := r.tracer.Start(ctx, "ListingRepository.Create",
		trace.WithAttributes(
			attribute.String("listing.id", listing.ID),
			attribute.String("listing.owner_id", listing.OwnerID),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, listing)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingRepository) GetByID(ctx context.Context, id string) (domain.Listing, error) {
	ctx, span := r.tracer.Start(ctx, "ListingRepository.GetByID",
		trace.WithAttributes(attribute.String("listing.id", id)),
	)
	defer span.End()

	listing, err := r.next.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return listing, err
}

func (r *TracingRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Listing, error) {
	ctx, span := r.tracer.Start(ctx, "ListingRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}
	if filter.OwnerID != "" {
		span.SetAttributes(attribute.String("filter.owner_id", filter.OwnerID))
	}

	listings, err := r.next.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(listings)))
	}
	return listings, err
}

func (r *TracingRepository) Update(ctx context.Context, listing domain.Listing, expected domain.Status) error {
	ctx, span := r.tracer.Start(ctx, "ListingRepository.Update",
		trace.WithAttributes(
			attribute.String("listing.id", listing.ID),
			attribute.String("listing.status", string(listing.Status)),
			attribute.String("listing.expected_status", string(expected)),
		),
	)
	defer span.End()

	err := r.next.Update(ctx, listing, expected)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// TracingUserDirectory wraps a domain.UserDirectory with OpenTelemetry tracing.
type TracingUserDirectory struct {
	next   domain.UserDirectory
	tracer trace.Tracer
}

// Compile-time check: TracingUserDirectory implements domain.UserDirectory.
var _ domain.UserDirectory = (*TracingUserDirectory)(nil)

// NewTracingUserDirectory creates a tracing decorator around the given directory.
func NewTracingUserDirectory(next domain.UserDirectory) *TracingUserDirectory {
	return &TracingUserDirectory{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (d *TracingUserDirectory) CreateUser(ctx context.Context, user domain.User) error {
	ctx, span := d.tracer.Start(ctx, "UserDirectory.CreateUser",
		trace.WithAttributes(
			attribute.String("user.id", user.ID),
			attribute.String("user.username", user.Username),
		),
	)
	defer span.End()

	err := d.next.CreateUser(ctx, user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (d *TracingUserDirectory) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	ctx, span := d.tracer.Start(ctx, "UserDirectory.GetByUsername",
		trace.WithAttributes(attribute.String("user.username", username)),
	)
	defer span.End()

	user, err := d.next.GetByUsername(ctx, username)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return user, err
}
