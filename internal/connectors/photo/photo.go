package photo

import (
	"context"
	"errors"
	"hash/fnv"
	"time"

	"pastcheck/internal/connectors"
	"pastcheck/internal/search/models"
	"pastcheck/internal/search/ports"
	"pastcheck/pkg/platform/sentinel"
)

// Reader loads stored upload bytes by reference.
type Reader interface {
	Read(ref string) ([]byte, error)
}

// Matcher simulates face detection and reverse image search over a stored
// upload. The outcome is a deterministic function of the image bytes.
type Matcher struct {
	uploads Reader
	pace    time.Duration
}

// New creates a photo matcher reading uploads through r.
func New(r Reader, pace time.Duration) *Matcher {
	return &Matcher{uploads: r, pace: pace}
}

// Match returns photo-match evidence for the referenced upload. An empty
// reference means no photo was submitted: the stage completes with nil
// evidence rather than failing the job.
func (m *Matcher) Match(ctx context.Context, photoRef string, report ports.ProgressFunc) (*models.PhotoMatch, error) {
	if photoRef == "" {
		if err := report(ctx, 100); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if err := report(ctx, 25); err != nil {
		return nil, err
	}
	if err := connectors.Pace(ctx, m.pace); err != nil {
		return nil, err
	}

	data, err := m.uploads.Read(photoRef)
	if errors.Is(err, sentinel.ErrNotFound) {
		// Upload already swept by the retention janitor.
		if err := report(ctx, 100); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	h := fnv.New64a()
	h.Write(data)
	digest := h.Sum64()

	faces := int(digest % 4)
	match := &models.PhotoMatch{
		Matched:   faces > 0 && digest%10 < 4,
		FaceCount: faces,
	}

	if err := report(ctx, 100); err != nil {
		return nil, err
	}
	return match, nil
}
