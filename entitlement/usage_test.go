package entitlement

import (
	"context"
	"testing"
	"time"

	"smartcrm/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackUpsertsAndIncrements(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	contacts := createFeature(t, db, "contacts", models.CategoryCoreCRM, true)
	user := createUser(t, db, "u@example.com", tierPtr(models.TierSmartCRM))

	tracker := NewUsageTracker(db)
	require.NoError(t, tracker.Track(ctx, user.ID, contacts.ID))
	require.NoError(t, tracker.Track(ctx, user.ID, contacts.ID))
	require.NoError(t, tracker.Track(ctx, user.ID, contacts.ID))

	rows, err := tracker.ListUserUsage(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 3, rows[0].AccessCount)
	assert.Equal(t, "contacts", rows[0].Feature.Key)
	assert.WithinDuration(t, time.Now(), rows[0].LastAccessedAt, 5*time.Second)
}

func TestListUserUsageScopedToUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	contacts := createFeature(t, db, "contacts", models.CategoryCoreCRM, true)
	alice := createUser(t, db, "alice@example.com", tierPtr(models.TierSmartCRM))
	bob := createUser(t, db, "bob@example.com", tierPtr(models.TierSmartCRM))

	tracker := NewUsageTracker(db)
	require.NoError(t, tracker.Track(ctx, alice.ID, contacts.ID))

	rows, err := tracker.ListUserUsage(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
