package controller

import (
	"testing"

	"inventoryrecord/testutil"
)

func TestControllerDependsOnlyOnDomain(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.BackendImportForbidden, "controller must reach backends through domain.EntryStore")
}
