package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightpaper/internal/models"
)

func TestChallengeKeyNormalisesEmail(t *testing.T) {
	assert.Equal(t, "insightpaper:otp:ada@b.com", challengeKey("  Ada@B.com "))
}

// TestRedisChallengeStore runs against a live server when
// INSIGHTPAPER_TEST_REDIS_URL is set.
func TestRedisChallengeStore(t *testing.T) {
	url := os.Getenv("INSIGHTPAPER_TEST_REDIS_URL")
	if url == "" {
		t.Skip("INSIGHTPAPER_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	client, err := Connect(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	store := NewRedisChallengeStore(client)
	email := gofakeit.Email()
	defer store.DeleteChallenge(ctx, email)

	got, err := store.GetChallenge(ctx, email)
	require.NoError(t, err)
	assert.Nil(t, got)

	first := models.OTPChallenge{Email: email, SecurityCodeHash: "first", ExpiresAt: models.Timestamp{Time: time.Now().Add(time.Minute)}}
	second := models.OTPChallenge{Email: email, SecurityCodeHash: "second", ExpiresAt: models.Timestamp{Time: time.Now().Add(time.Minute)}}
	require.NoError(t, store.PutChallenge(ctx, first))
	require.NoError(t, store.PutChallenge(ctx, second))

	got, err = store.GetChallenge(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, "second", got.SecurityCodeHash)

	ttl, err := client.TTL(ctx, challengeKey(email)).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute)

	require.NoError(t, store.DeleteChallenge(ctx, email))
	got, err = store.GetChallenge(ctx, email)
	require.NoError(t, err)
	assert.Nil(t, got)
}
