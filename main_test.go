package main

import (
	"errors"
	"testing"

	"smartcity-seed/internal/config"
)

func TestRootCommandFailsWithoutDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SEED_CONFIG", "")

	cmd := newRootCmd()
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	if !errors.Is(err, config.ErrMissingDatabaseURL) {
		t.Fatalf("expected missing database url error, got %v", err)
	}
}

func TestRootCommandRejectsArguments(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"extra.csv"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for positional argument")
	}
}
