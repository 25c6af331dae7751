package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yatube/backend/internal/models"
	"github.com/yatube/backend/internal/testutil"
)

func TestGORMPluginRegistersAndPassesQueries(t *testing.T) {
	db := testutil.OpenDB(t)
	require.NoError(t, db.Use(GORMPlugin()))

	user := &models.User{Username: "traced", Email: "t@example.com", PasswordHash: "x"}
	require.NoError(t, db.WithContext(context.Background()).Create(user).Error)

	var got models.User
	require.NoError(t, db.WithContext(context.Background()).First(&got, user.ID).Error)
	assert.Equal(t, "traced", got.Username)

	err := db.WithContext(context.Background()).First(&got, 9999).Error
	assert.Error(t, err, "not-found errors still propagate through the callbacks")
}

func TestInitTracerDisabled(t *testing.T) {
	tp, err := InitTracer(Config{Enabled: false})
	assert.NoError(t, err)
	assert.Nil(t, tp)
}

func TestEventsWithoutProvider(t *testing.T) {
	ctx, span := StartPostEvent(context.Background(), "post.create", 1, nil)
	assert.NotNil(t, ctx)
	EndEvent(span, nil)

	_, span = StartFollowEvent(context.Background(), "follow.create", 1, "leo")
	EndEvent(span, assert.AnError)
}
