// Package filestore keeps uploaded payment proofs.
package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"

	"github.com/nityanand123gupta/felicity-event-management/internal/config"
)

const uploadTimeout = 60 * time.Second

type Store interface {
	Save(ctx context.Context, name string, body io.Reader) (string, error)
}

// New picks the store named by conf.Driver.
func New(conf *config.FileStoreConfig) (Store, error) {
	switch conf.Driver {
	case "cloudinary":
		return NewCloudinary(conf.Cloudinary)
	case "", "local":
		return NewLocal(conf.LocalDir, conf.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unknown filestore driver %q", conf.Driver)
	}
}

// Local writes files under a directory and serves them from publicBaseURL.
type Local struct {
	dir     string
	baseURL string
}

func NewLocal(dir, publicBaseURL string) (*Local, error) {
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("os.MkdirAll -> %w", err)
	}

	return &Local{dir: dir, baseURL: strings.TrimSuffix(publicBaseURL, "/")}, nil
}

func (l *Local) Dir() string {
	return l.dir
}

func (l *Local) Save(ctx context.Context, name string, body io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	stored := uuid.NewString() + strings.ToLower(filepath.Ext(filepath.Base(name)))
	f, err := os.Create(filepath.Join(l.dir, stored))
	if err != nil {
		return "", fmt.Errorf("os.Create -> %w", err)
	}
	defer f.Close()

	if _, err = io.Copy(f, body); err != nil {
		return "", fmt.Errorf("io.Copy -> %w", err)
	}

	return l.baseURL + "/" + stored, nil
}

// Cloudinary uploads files to a folder of a Cloudinary account.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinary(conf config.CloudinaryConfig) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(conf.CloudName, conf.APIKey, conf.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary.NewFromParams -> %w", err)
	}

	folder := conf.Folder
	if folder == "" {
		folder = "payment-proofs"
	}

	return &Cloudinary{cld: cld, folder: folder}, nil
}

func (c *Cloudinary) Save(ctx context.Context, _ string, body io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	resp, err := c.cld.Upload.Upload(ctx, body, uploader.UploadParams{
		Folder:   c.folder,
		PublicID: uuid.NewString(),
	})
	if err != nil {
		return "", fmt.Errorf("c.cld.Upload.Upload -> %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload -> %s", resp.Error.Message)
	}

	return resp.SecureURL, nil
}
