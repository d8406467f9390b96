// Package storage uploads tree pictures to S3-compatible object storage
// (Cloudflare R2) and records the stored key for each file.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/h2non/bimg"

	"github.com/oakwell/treeaid/internal/upload"
)

const thumbnailWidth = 320

type Store struct {
	client *s3.Client
	bucket string
	log    *slog.Logger
}

func New(client *s3.Client, bucket string, log *slog.Logger) *Store {
	return &Store{client: client, bucket: bucket, log: log}
}

// SavePicture uploads one picture under a uuid-prefixed key and returns the
// descriptor the repository persists. The uuid prefix also serves as the
// unique stored filename, so two users uploading "tree.jpg" never collide.
// A downscaled thumbnail is stored next to the original; thumbnail failure
// is logged and ignored.
func (s *Store) SavePicture(ctx context.Context, header *multipart.FileHeader) (upload.File, error) {
	file, err := header.Open()
	if err != nil {
		return upload.File{}, fmt.Errorf("storage: opening upload %q: %w", header.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return upload.File{}, fmt.Errorf("storage: reading upload %q: %w", header.Filename, err)
	}

	mimeType := header.Header.Get("Content-Type")
	id := uuid.New().String()
	storedName := fmt.Sprintf("%s_%s", id, header.Filename)
	key := fmt.Sprintf("trees/originals/%s", storedName)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return upload.File{}, fmt.Errorf("storage: uploading %q: %w", header.Filename, err)
	}

	s.putThumbnail(ctx, id, header.Filename, data)

	return upload.File{
		Filename:   storedName,
		MimeType:   mimeType,
		StorageKey: key,
	}, nil
}

func (s *Store) putThumbnail(ctx context.Context, id, filename string, data []byte) {
	thumb, err := bimg.NewImage(data).Process(bimg.Options{Width: thumbnailWidth})
	if err != nil {
		s.log.Warn("thumbnail generation failed", "filename", filename, "error", err)
		return
	}
	key := fmt.Sprintf("trees/thumbnails/%s_%s", id, filename)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(thumb),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		s.log.Warn("thumbnail upload failed", "key", key, "error", err)
	}
}

// Remove best-effort deletes stored objects, used to clean up after a
// failed database write so losing savers do not leave orphans in the
// bucket. Failures are logged, never propagated.
func (s *Store) Remove(ctx context.Context, files []upload.File) {
	for _, f := range files {
		keys := []string{
			f.StorageKey,
			strings.Replace(f.StorageKey, "trees/originals/", "trees/thumbnails/", 1),
		}
		for _, key := range keys {
			_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				s.log.Warn("removing stored picture failed", "key", key, "error", err)
			}
		}
	}
}

// PublicURL renders the public URL for a stored key, escaping spaces so the
// result stays a valid URL. An unconfigured base yields an empty URL.
func PublicURL(base, key string) string {
	if base == "" {
		return ""
	}
	raw := strings.ReplaceAll(fmt.Sprintf(base, key), " ", "%20")
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return parsed.String()
}
