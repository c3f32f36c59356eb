package testing

import (
	"testing"

	"github.com/anvarov/drivebox/pkg/store/namespace"
)

// StoreTestSuite is a comprehensive test suite for namespace.Store
// implementations. It tests the interface contract, not implementation
// details, making it reusable across different backends (memory,
// BadgerDB, Postgres).
type StoreTestSuite struct {
	// NewStore is a factory function that creates a fresh Store instance
	// for each test. This ensures test isolation.
	NewStore func() namespace.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(test *testing.T) {
	test.Run("Folder", suite.RunFolderTests)
	test.Run("File", suite.RunFileTests)
	test.Run("Listing", suite.RunListingTests)
	test.Run("Cascade", suite.RunCascadeTests)
	test.Run("Grant", suite.RunGrantTests)
	test.Run("Healthcheck", suite.RunHealthcheckTests)
}
