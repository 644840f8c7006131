package images

import (
	"context"
	"encoding/base64"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/collectdesk/collectdesk/internal/shared"
)

type fakeImageClient struct {
	calls   int
	payload string
	err     error

	lastRecord  string
	lastPartner string
	lastSlot    string
}

func (c *fakeImageClient) FetchImage(ctx context.Context, token, recordID, partner, slot string) (string, error) {
	c.calls++
	c.lastRecord = recordID
	c.lastPartner = partner
	c.lastSlot = slot
	return c.payload, c.err
}

func TestParseSlot(t *testing.T) {
	for _, raw := range []string{"image1", "image2", "selfie"} {
		slot, err := ParseSlot(raw)
		require.NoError(t, err)
		require.Equal(t, Slot(raw), slot)
	}

	_, err := ParseSlot("receipt")
	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestResolveDecodesPayload(t *testing.T) {
	raw := []byte{0xff, 0xd8, 0xff, 0xe0}
	client := &fakeImageClient{payload: base64.StdEncoding.EncodeToString(raw)}
	r := NewResolver(client, slog.New(slog.DiscardHandler))

	data, err := r.Resolve(context.Background(), "tok", shared.Identity{Partner: "acme"}, "c-1", SlotImage1)
	require.NoError(t, err)
	require.Equal(t, raw, data)

	require.Equal(t, "c-1", client.lastRecord)
	require.Equal(t, "acme", client.lastPartner)
	require.Equal(t, "image1", client.lastSlot)
}

func TestResolveEmptySlotIsNotFound(t *testing.T) {
	client := &fakeImageClient{payload: ""}
	r := NewResolver(client, slog.New(slog.DiscardHandler))

	_, err := r.Resolve(context.Background(), "tok", shared.Identity{Partner: "acme"}, "c-1", SlotSelfie)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestResolveRejectsBadBase64(t *testing.T) {
	client := &fakeImageClient{payload: "not base64!!"}
	r := NewResolver(client, slog.New(slog.DiscardHandler))

	_, err := r.Resolve(context.Background(), "tok", shared.Identity{Partner: "acme"}, "c-1", SlotImage2)
	require.Error(t, err)
}
