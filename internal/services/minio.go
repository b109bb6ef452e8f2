package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
)

// ImageStore stocke les images compressées et renvoie leur URL publique.
type ImageStore interface {
	Upload(ctx context.Context, folder string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, imageURL string) error
}

// MinIOImages range les images dans un bucket MinIO.
type MinIOImages struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinIOImages ; publicURL vide → URL dérivée de l'endpoint du client.
func NewMinIOImages(client *minio.Client, bucket, publicURL string) *MinIOImages {
	if publicURL == "" {
		publicURL = client.EndpointURL().String()
	}
	return &MinIOImages{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

func (m *MinIOImages) Upload(ctx context.Context, folder string, data []byte, contentType string) (string, error) {
	object := path.Join(folder, gocql.TimeUUID().String()+extensionFor(contentType))

	_, err := m.client.PutObject(ctx, m.bucket, object, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType, CacheControl: "public, max-age=31536000"})
	if err != nil {
		return "", fmt.Errorf("upload MinIO: %w", err)
	}
	return m.publicURL + "/" + m.bucket + "/" + object, nil
}

// Remove supprime l'objet si l'URL pointe vers notre bucket ; sinon ne fait rien.
func (m *MinIOImages) Remove(ctx context.Context, imageURL string) error {
	object, ok := m.objectName(imageURL)
	if !ok {
		return nil
	}
	return m.client.RemoveObject(ctx, m.bucket, object, minio.RemoveObjectOptions{})
}

func (m *MinIOImages) objectName(imageURL string) (string, bool) {
	prefix := m.publicURL + "/" + m.bucket + "/"
	if !strings.HasPrefix(imageURL, prefix) {
		return "", false
	}
	object, err := url.PathUnescape(strings.TrimPrefix(imageURL, prefix))
	if err != nil || object == "" {
		return "", false
	}
	return object, true
}

// InlineImages garde l'image compressée en data URI, sans stockage objet
// (mode développement ou MinIO non configuré).
type InlineImages struct{}

func (InlineImages) Upload(_ context.Context, _ string, data []byte, contentType string) (string, error) {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func (InlineImages) Remove(context.Context, string) error { return nil }

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
