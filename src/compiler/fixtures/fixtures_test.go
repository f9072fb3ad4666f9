package fixtures

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vexlang/lower/compiler/driver"
)

func TestLoadRejectsUnknownName(t *testing.T) {
	_, err := Load("does-not-exist")
	require.Error(t, err)
}

func TestEveryUnitCompilesCleanly(t *testing.T) {
	for _, name := range Names() {
		unit, err := Load(name)
		require.NoErrorf(t, err, "fixture %v", name)

		pkg, diags, err := driver.Compile(context.Background(), unit, driver.Options{})
		require.NoErrorf(t, err, "fixture %v", name)
		require.Emptyf(t, diags, "fixture %v", name)
		require.Len(t, pkg.Funcs, 1)
	}
}
