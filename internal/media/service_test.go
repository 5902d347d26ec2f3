package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aquaticpose/aquaticpose-backend/pkg/config"
	pkgerrors "github.com/aquaticpose/aquaticpose-backend/pkg/errors"
)

type uploadedFile struct {
	fileName    string
	contentType string
	folder      string
	body        string
}

type fakeUploader struct {
	uploads   []uploadedFile
	removed   []string
	uploadErr error
	removeErr error
}

func (f *fakeUploader) Upload(ctx context.Context, fileName, contentType, folder string, r io.Reader) (*UploadResult, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.uploads = append(f.uploads, uploadedFile{
		fileName:    fileName,
		contentType: contentType,
		folder:      folder,
		body:        string(body),
	})
	publicID := fmt.Sprintf("aquaticpose/%s/%s", folder, fileName)
	return &UploadResult{
		URL:      "https://img.example.com/" + publicID,
		PublicID: publicID,
		Bytes:    int64(len(body)),
	}, nil
}

func (f *fakeUploader) Remove(ctx context.Context, publicID string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, publicID)
	return nil
}

// The model tags carry postgres column types, so the sqlite test schema is
// created with explicit DDL instead of AutoMigrate.
const testMediaDDL = `
CREATE TABLE IF NOT EXISTS media (
  id TEXT PRIMARY KEY,
  url TEXT NOT NULL,
  public_id TEXT NOT NULL UNIQUE,
  folder TEXT NOT NULL DEFAULT '',
  bytes INTEGER NOT NULL DEFAULT 0,
  user_id TEXT NOT NULL,
  created_at DATETIME
);`

func newTestService(t *testing.T) (Service, *fakeUploader, *Repository) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.Exec(testMediaDDL).Error; err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	uploader := &fakeUploader{}
	repo := NewRepository(conn)
	svc, err := NewService(repo, uploader, config.MediaConfig{MaxUploadMB: 1})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return svc, uploader, repo
}

func TestUploadImageStoresHostResult(t *testing.T) {
	svc, uploader, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	dto, err := svc.UploadImage(ctx, userID, UploadInput{
		FileName:    " betta splendens.png ",
		ContentType: "image/png",
		Folder:      "products",
		SizeBytes:   9,
		Body:        strings.NewReader("png-bytes"),
	})
	if err != nil {
		t.Fatalf("UploadImage failed: %v", err)
	}
	if dto.PublicID != "aquaticpose/products/betta-splendens.png" {
		t.Fatalf("unexpected public id %s", dto.PublicID)
	}
	if dto.URL == "" || dto.Bytes != 9 {
		t.Fatalf("unexpected dto %+v", dto)
	}
	if len(uploader.uploads) != 1 || uploader.uploads[0].body != "png-bytes" {
		t.Fatal("expected the file body to reach the uploader")
	}

	got, err := svc.GetMedia(ctx, dto.ID)
	if err != nil {
		t.Fatalf("GetMedia failed: %v", err)
	}
	if got.PublicID != dto.PublicID {
		t.Fatalf("expected persisted record, got %+v", got)
	}
}

func TestUploadImageValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	cases := []UploadInput{
		{FileName: "", ContentType: "image/png", SizeBytes: 1, Body: strings.NewReader("x")},
		{FileName: "doc.pdf", ContentType: "application/pdf", SizeBytes: 1, Body: strings.NewReader("x")},
		{FileName: "a.png", ContentType: "image/png", SizeBytes: 0, Body: strings.NewReader("")},
		{FileName: "a.png", ContentType: "image/png", SizeBytes: 2 * 1024 * 1024, Body: strings.NewReader("x")},
		{FileName: "a.png", ContentType: "image/png", SizeBytes: 1, Body: nil},
	}
	for i, input := range cases {
		_, err := svc.UploadImage(ctx, userID, input)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected VALIDATION_ERROR, got %v", i, err)
		}
	}

	_, err := svc.UploadImage(ctx, uuid.Nil, UploadInput{
		FileName: "a.png", ContentType: "image/png", SizeBytes: 1, Body: strings.NewReader("x"),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for missing user, got %v", err)
	}
}

func TestUploadImageHostFailure(t *testing.T) {
	svc, uploader, _ := newTestService(t)
	uploader.uploadErr = errors.New("host down")

	_, err := svc.UploadImage(context.Background(), uuid.New(), UploadInput{
		FileName: "a.png", ContentType: "image/png", SizeBytes: 1, Body: strings.NewReader("x"),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected DEPENDENCY_ERROR, got %v", err)
	}
}

func TestDeleteMediaRemovesHostedFile(t *testing.T) {
	svc, uploader, _ := newTestService(t)
	ctx := context.Background()

	dto, err := svc.UploadImage(ctx, uuid.New(), UploadInput{
		FileName: "a.png", ContentType: "image/png", SizeBytes: 1, Body: strings.NewReader("x"),
	})
	if err != nil {
		t.Fatalf("UploadImage failed: %v", err)
	}

	if err := svc.DeleteMedia(ctx, dto.ID); err != nil {
		t.Fatalf("DeleteMedia failed: %v", err)
	}
	if len(uploader.removed) != 1 || uploader.removed[0] != dto.PublicID {
		t.Fatalf("expected hosted file removal, got %v", uploader.removed)
	}
	if _, err := svc.GetMedia(ctx, dto.ID); pkgerrors.As(err) == nil {
		t.Fatal("expected NOT_FOUND after delete")
	}

	err = svc.DeleteMedia(ctx, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for unknown media, got %v", err)
	}
}

func TestListUserMedia(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	owner := uuid.New()
	other := uuid.New()

	for i := 0; i < 3; i++ {
		if _, err := svc.UploadImage(ctx, owner, UploadInput{
			FileName: fmt.Sprintf("pic-%d.png", i), ContentType: "image/png",
			SizeBytes: 1, Body: strings.NewReader("x"),
		}); err != nil {
			t.Fatalf("UploadImage failed: %v", err)
		}
	}
	if _, err := svc.UploadImage(ctx, other, UploadInput{
		FileName: "theirs.png", ContentType: "image/png", SizeBytes: 1, Body: strings.NewReader("x"),
	}); err != nil {
		t.Fatalf("UploadImage failed: %v", err)
	}

	rows, err := svc.ListUserMedia(ctx, owner)
	if err != nil {
		t.Fatalf("ListUserMedia failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 uploads, got %d", len(rows))
	}
}
