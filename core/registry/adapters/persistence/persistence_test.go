package persistence

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"registry/core/registry/domain"
	"registry/modules/db/memory"
	"registry/modules/hmac"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "registry:document"

func sampleSnapshot() domain.Snapshot {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return domain.Snapshot{
		NextIDHint: 3,
		Profiles: map[string]domain.ProfileRecord{
			"p1": {
				ID: "p1", FirstName: "Ada", LastName: "Lovelace",
				Email: "ada@example.org", Programme: "CS", Year: "2",
				Interests: []string{"math"},
				PhotoURL:  "data:image/png;base64,AAAA",
				CreatedAt: created,
			},
			"p2": {
				ID: "p2", FirstName: "Alan", LastName: "Turing",
				Email: "alan@example.org", Programme: "CS", Year: "3",
				CreatedAt: created,
			},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := NewStore(memory.NewMemoryKV(), testKey)
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, sampleSnapshot()))

	got, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), got)
}

func TestLoadMissingDocumentIsEmptyState(t *testing.T) {
	st := NewStore(memory.NewMemoryKV(), testKey)
	got, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.Profiles)
	assert.Zero(t, got.NextIDHint)
}

func TestLoadMalformedDocumentIsEmptyState(t *testing.T) {
	kv := memory.NewMemoryKV()
	_, err := kv.AtomicSet(context.Background(), testKey, "{definitely not json")
	require.NoError(t, err)

	st := NewStore(kv, testKey)
	got, err := st.Load(context.Background())
	require.NoError(t, err, "a malformed document must never be fatal")
	assert.Empty(t, got.Profiles)
}

func TestSaveDropsOversizedPhotosButKeepsRecords(t *testing.T) {
	kv := memory.NewMemoryKV()
	st := NewStore(kv, testKey, WithPhotoBudget(64))
	ctx := context.Background()

	snap := sampleSnapshot()
	rec := snap.Profiles["p1"]
	rec.PhotoURL = "data:image/png;base64," + strings.Repeat("A", 128)
	snap.Profiles["p1"] = rec

	require.NoError(t, st.Save(ctx, snap))

	// the wire document carries the marker
	raw, err := kv.AtomicGet(ctx, testKey)
	require.NoError(t, err)
	var doc document
	require.NoError(t, json.Unmarshal(raw.([]byte), &doc))
	assert.True(t, doc.Profiles["p1"].PhotoOmitted)
	assert.Nil(t, doc.Profiles["p1"].PhotoURL)
	assert.Contains(t, doc.Profiles, "p2")

	// the record round-trips, just without its photo
	got, err := st.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, got.Profiles, "p1")
	assert.Empty(t, got.Profiles["p1"].PhotoURL)
	assert.Equal(t, "Ada", got.Profiles["p1"].FirstName)
}

func TestSealedRoundTripAndTamperDetection(t *testing.T) {
	kv := memory.NewMemoryKV()
	signer, err := hmac.NewHMACSigner([]byte("test-seal-secret"))
	require.NoError(t, err)
	st := NewStore(kv, testKey, WithSigner(signer))
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, sampleSnapshot()))
	got, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), got)

	// flip bytes in the stored token: verification fails, state is empty
	raw, err := kv.AtomicGet(ctx, testKey)
	require.NoError(t, err)
	tampered := strings.Replace(string(raw.([]byte)), ".", "x.", 1)
	_, err = kv.AtomicSet(ctx, testKey, tampered)
	require.NoError(t, err)

	got, err = st.Load(ctx)
	require.NoError(t, err, "a tampered document must never be fatal")
	assert.Empty(t, got.Profiles)
}

func TestSealedDocumentIsNotPlainJSON(t *testing.T) {
	kv := memory.NewMemoryKV()
	signer, err := hmac.NewHMACSigner([]byte("test-seal-secret"))
	require.NoError(t, err)
	st := NewStore(kv, testKey, WithSigner(signer))

	require.NoError(t, st.Save(context.Background(), sampleSnapshot()))

	raw, err := kv.AtomicGet(context.Background(), testKey)
	require.NoError(t, err)
	var doc document
	assert.Error(t, json.Unmarshal(raw.([]byte), &doc))
}
