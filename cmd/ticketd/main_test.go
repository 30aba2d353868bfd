package main

import (
	"errors"
	"testing"
)

func TestMain_ExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, -1},
		{"failure", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origRun, origExit := run, osExit
			defer func() { run, osExit = origRun, origExit }()

			code := -1
			run = func() error { return tt.err }
			osExit = func(c int) { code = c }

			main()
			if code != tt.want {
				t.Errorf("expected exit code %d, got %d", tt.want, code)
			}
		})
	}
}
