package storage

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Presigning is computed locally, so no S3 service is needed.
func TestS3Presigner_PresignPut(t *testing.T) {
	p, err := NewS3Presigner(context.Background(), S3Options{
		Region:    "us-east-1",
		Bucket:    "spot-images",
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
		Endpoint:  "http://localhost:9000",
	})
	require.NoError(t, err)

	raw, err := p.PresignPut(context.Background(), "spots/s1/abc", "image/png", 10*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/spot-images/spots/s1/abc", u.Path)
	assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
	assert.Contains(t, u.Query().Get("X-Amz-Credential"), "AKIDEXAMPLE")

	assert.Equal(t, "http://localhost:9000/spot-images/spots/s1/abc", p.ObjectURL("spots/s1/abc"))
}

func TestS3Presigner_DefaultPublicURL(t *testing.T) {
	p, err := NewS3Presigner(context.Background(), S3Options{
		Region: "eu-west-1", Bucket: "b", AccessKey: "a", SecretKey: "s",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com/k", p.ObjectURL("k"))

	p, err = NewS3Presigner(context.Background(), S3Options{
		Region: "eu-west-1", Bucket: "b", AccessKey: "a", SecretKey: "s", PublicURL: "https://cdn.example.com/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/k", p.ObjectURL("k"))
}
