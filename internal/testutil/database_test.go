package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/permitflow/internal/service"
	"github.com/Veraticus/permitflow/internal/testutil/permits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTestDB(t *testing.T) {
	db := SetupTestDB(t, permits.NewBuilder(t).WithFixture(permits.FixtureManhattan).Build())

	count, err := db.Storage.CountPermits(context.Background(), service.PermitFilter{})
	require.NoError(t, err)
	assert.Equal(t, len(permits.FixtureManhattan.Permits), count)
	assert.Equal(t, permits.DefaultBatchID, db.Batch.ID)
}

func TestSetupTestDB_Empty(t *testing.T) {
	db := SetupTestDB(t, nil)
	assert.Nil(t, db.Batch)

	count, err := db.Storage.CountPermits(context.Background(), service.PermitFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)
}
