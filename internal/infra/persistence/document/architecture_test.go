package document

import (
	"testing"

	"inventoryrecord/testutil"
)

func TestStoreDependsOnBlobFacade(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InfraImportForbidden, "document store must use blob.Store, not infra drivers")
}
