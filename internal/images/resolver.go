package images

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/collectdesk/collectdesk/internal/shared"
)

// Slot names one of the fixed evidence attachments on a record.
type Slot string

const (
	// SlotImage1 is the primary evidence photo.
	SlotImage1 Slot = "image1"
	// SlotImage2 is the secondary evidence photo.
	SlotImage2 Slot = "image2"
	// SlotSelfie is the agent selfie.
	SlotSelfie Slot = "selfie"
)

// ParseSlot validates a slot name from the request.
func ParseSlot(raw string) (Slot, error) {
	switch Slot(raw) {
	case SlotImage1, SlotImage2, SlotSelfie:
		return Slot(raw), nil
	}
	return "", shared.NewValidationError("slot", "must be image1, image2 or selfie")
}

// ImageClient is the slice of the upstream client the resolver needs.
type ImageClient interface {
	FetchImage(ctx context.Context, token, recordID, partner, slot string) (string, error)
}

// Resolver fetches evidence images on demand, one slot at a time.
// Images are large and rarely viewed, so they are never embedded in the
// listing payload and never prefetched; concurrent requests for the
// same slot collapse into one upstream call. Every fetch is scoped by
// partner so a guessed record id cannot cross tenants.
type Resolver struct {
	client ImageClient
	logger *slog.Logger
	group  singleflight.Group
}

// NewResolver builds Resolver instance.
func NewResolver(client ImageClient, logger *slog.Logger) *Resolver {
	return &Resolver{client: client, logger: logger}
}

// Resolve returns the decoded image bytes for one record slot, or
// shared.ErrNotFound when the slot holds no image.
func (r *Resolver) Resolve(ctx context.Context, token string, id shared.Identity, recordID string, slot Slot) ([]byte, error) {
	key := fmt.Sprintf("%s/%s/%s", id.Partner, recordID, slot)
	v, err, _ := r.group.Do(key, func() (any, error) {
		encoded, err := r.client.FetchImage(ctx, token, recordID, id.Partner, string(slot))
		if err != nil {
			return nil, err
		}
		if encoded == "" {
			return nil, shared.ErrNotFound
		}
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("decode image payload: %w", err)
		}
		return decoded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
