package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"registration-system/internal/status"
	"registration-system/monitoring"
	"registration-system/utils"
)

// EvidenceStore is the object-store boundary for payment proof images.
type EvidenceStore interface {
	Upload(ctx context.Context, key, mimeType string, size int64, r io.Reader) (string, error)
	SignURL(ctx context.Context, ref string) (string, error)
}

// EvidenceService validates proof uploads and resolves stored references to
// viewable URLs. Resolved URLs are cached per process; the cache is never
// invalidated proactively, signed URLs simply expire and the next session
// fetches fresh ones.
type EvidenceService struct {
	store   EvidenceStore
	maxSize int64

	mu    sync.Mutex
	cache map[string]string
}

func NewEvidenceService(store EvidenceStore, maxSize int64) *EvidenceService {
	return &EvidenceService{
		store:   store,
		maxSize: maxSize,
		cache:   make(map[string]string),
	}
}

// Validate rejects anything that is not an image within the size limit.
// Runs before any remote call.
func (s *EvidenceService) Validate(mimeType string, size int64) error {
	if !strings.HasPrefix(mimeType, "image/") {
		return status.ErrEvidenceNotImage
	}
	if size <= 0 || size > s.maxSize {
		return status.ErrEvidenceTooLarge
	}
	return nil
}

// Upload validates and stores one proof image, returning the opaque
// reference to put on the registration record.
func (s *EvidenceService) Upload(ctx context.Context, filename, mimeType string, size int64, r io.Reader) (string, error) {
	if err := s.Validate(mimeType, size); err != nil {
		return "", err
	}

	code, err := utils.GenerateCode(6)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("proofs/%s/%s", code, sanitizeFilename(filename))
	return s.store.Upload(ctx, key, mimeType, size, r)
}

// ResolveURL exchanges a proof reference for a viewable URL. Absolute
// references pass through unchanged. Repeated calls for the same reference
// hit the cache and trigger at most one exchange.
func (s *EvidenceService) ResolveURL(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", status.ErrRegistrationNotFound
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.cache[ref]; ok {
		monitoring.TrackEvidenceExchange(true)
		return cached, nil
	}

	signed, err := s.store.SignURL(ctx, ref)
	if err != nil {
		return "", err
	}

	s.cache[ref] = signed
	monitoring.TrackEvidenceExchange(false)
	return signed, nil
}

func sanitizeFilename(name string) string {
	name = path.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" || name == "." || name == "/" {
		name = "proof"
	}
	return name
}
