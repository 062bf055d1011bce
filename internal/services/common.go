package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"spot-booking-backend/internal/apperrors"
	"spot-booking-backend/internal/cache"
	"spot-booking-backend/internal/logging"
	"spot-booking-backend/internal/repository"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Clock returns the current time; tests replace it to pin "today"
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// storeErr turns a store error into an AppError: ErrNotFound becomes NotFound
// with the given message, anything unexpected becomes Internal
func storeErr(err error, notFound string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFoundError(notFound)
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.NewInternalError("Internal server error", err)
}

// endSpan records err on the span before ending it
func endSpan(span trace.Span, err error) {
	if err != nil && apperrors.KindOf(err) == apperrors.KindInternal {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// invalidateSpot drops the cached detail of a spot. Failures are logged only.
func invalidateSpot(ctx context.Context, c cache.Cache, spotID string) {
	if err := c.Delete(ctx, cache.SpotDetailKey(spotID)); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("spot_id", spotID).Msg("Failed to invalidate spot cache")
	}
}

func cacheGetJSON(ctx context.Context, c cache.Cache, key string, dst interface{}) bool {
	data, err := c.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			logging.FromContext(ctx).Warn().Err(err).Str("key", key).Msg("Cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("key", key).Msg("Discarding unreadable cache entry")
		return false
	}
	return true
}

func cacheSetJSON(ctx context.Context, c cache.Cache, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("key", key).Msg("Failed to encode cache entry")
		return
	}
	if err := c.Set(ctx, key, data, ttl); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}
