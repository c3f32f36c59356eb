package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// RunHealthcheckTests executes the healthcheck contract tests.
func (suite *StoreTestSuite) RunHealthcheckTests(t *testing.T) {
	t.Run("Healthy", suite.testHealthcheckHealthy)
	t.Run("CancelledContext", suite.testHealthcheckCancelled)
}

func (suite *StoreTestSuite) testHealthcheckHealthy(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	err := store.Healthcheck(context.Background())
	require.NoError(t, err)
}

func (suite *StoreTestSuite) testHealthcheckCancelled(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Healthcheck(ctx)
	require.Error(t, err)
}
