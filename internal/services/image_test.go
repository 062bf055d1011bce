package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"spot-booking-backend/internal/apperrors"
	"spot-booking-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePresigner struct {
	keys []string
	err  error
}

func (p *fakePresigner) PresignPut(_ context.Context, key, contentType string, expires time.Duration) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.keys = append(p.keys, key)
	return "https://upload.example.com/" + key + "?type=" + contentType, nil
}

func (p *fakePresigner) ObjectURL(key string) string {
	return "https://cdn.example.com/" + key
}

func TestPresignSpotImage(t *testing.T) {
	ctx := context.Background()
	presigner := &fakePresigner{}
	svc := NewImageService(newTestStore(t), presigner, 10*time.Minute)

	resp, err := svc.PresignSpotImage(ctx, owner, "s1", "image/jpeg")
	require.NoError(t, err)
	require.Len(t, presigner.keys, 1)
	assert.True(t, strings.HasPrefix(presigner.keys[0], "spots/s1/"))
	assert.Equal(t, "https://cdn.example.com/"+presigner.keys[0], resp.ImageURL)
	assert.Equal(t, 600, resp.ExpiresIn)

	_, err = svc.PresignSpotImage(ctx, guest, "s1", "image/jpeg")
	assertKind(t, err, apperrors.KindForbidden)
	_, err = svc.PresignSpotImage(ctx, owner, "missing", "image/jpeg")
	assertKind(t, err, apperrors.KindNotFound)
	_, err = svc.PresignSpotImage(ctx, owner, "s1", "application/pdf")
	assertKind(t, err, apperrors.KindValidation)
	_, err = svc.PresignSpotImage(ctx, owner, "s1", "")
	assertKind(t, err, apperrors.KindValidation)

	presigner.err = errors.New("s3 down")
	_, err = svc.PresignSpotImage(ctx, owner, "s1", "image/png")
	assertKind(t, err, apperrors.KindInternal)
}

func TestPresignReviewImage(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Reviews.Create(ctx, &models.Review{ID: "r1", SpotID: "s1", UserID: "guest", Review: "ok", Stars: 4}))
	presigner := &fakePresigner{}
	svc := NewImageService(store, presigner, time.Minute)

	resp, err := svc.PresignReviewImage(ctx, guest, "r1", "image/png; charset=binary")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(presigner.keys[0], "reviews/r1/"))
	assert.Contains(t, resp.UploadURL, presigner.keys[0])

	_, err = svc.PresignReviewImage(ctx, owner, "r1", "image/png")
	assertKind(t, err, apperrors.KindForbidden)
	_, err = svc.PresignReviewImage(ctx, guest, "missing", "image/png")
	assertKind(t, err, apperrors.KindNotFound)
}

func TestPresignWithoutStorage(t *testing.T) {
	svc := NewImageService(newTestStore(t), nil, time.Minute)
	_, err := svc.PresignSpotImage(context.Background(), owner, "s1", "image/png")
	assertKind(t, err, apperrors.KindInternal)
}
