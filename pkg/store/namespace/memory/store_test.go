package memory

import (
	"testing"

	"github.com/anvarov/drivebox/pkg/store/namespace"
	namespacetesting "github.com/anvarov/drivebox/pkg/store/namespace/testing"
)

// TestMemoryStore runs the complete namespace.Store test suite against
// the in-memory implementation.
func TestMemoryStore(t *testing.T) {
	suite := &namespacetesting.StoreTestSuite{
		NewStore: func() namespace.Store {
			return NewMemoryStore()
		},
	}

	suite.Run(t)
}
