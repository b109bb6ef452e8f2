package main

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownKeyspaceIsRejected(t *testing.T) {
	log, _ := test.NewNullLogger()
	cmd := rootCmd(log)
	cmd.SetArgs([]string{"up", "--keyspace", "payments"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jeu de migrations inconnu")
}

func TestDownRequiresPositiveSteps(t *testing.T) {
	log, _ := test.NewNullLogger()
	cmd := rootCmd(log)
	cmd.SetArgs([]string{"down", "--steps", "0"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--steps")
}
