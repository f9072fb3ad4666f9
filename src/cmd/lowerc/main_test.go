package main

import (
	"testing"

	"nikand.dev/go/cli"
	"github.com/stretchr/testify/require"
)

func TestCompileActRunsOverKnownFixture(t *testing.T) {
	err := compileAct(&cli.Command{Args: cli.Args{"uniform-decl"}})
	require.NoError(t, err)
}

func TestCompileActRejectsUnknownFixture(t *testing.T) {
	err := compileAct(&cli.Command{Args: cli.Args{"nope"}})
	require.Error(t, err)
}

func TestDumpCostActRunsOverKnownFixture(t *testing.T) {
	err := dumpCostAct(&cli.Command{Args: cli.Args{"varying-loop"}})
	require.NoError(t, err)
}

func TestCheckActReportsNoDiagnosticsForCleanFixture(t *testing.T) {
	err := checkAct(&cli.Command{Args: cli.Args{"varying-if"}})
	require.NoError(t, err)
}
