package app_test

import (
	"runtime"
	"strings"
	"testing"

	"go.trai.ch/pin/app"
)

func TestCurrentSystem(t *testing.T) {
	system := app.CurrentSystem()

	if !strings.HasSuffix(system, "-"+runtime.GOOS) {
		t.Errorf("expected system %q to end in the running OS", system)
	}
	if strings.Contains(system, "amd64") || strings.Contains(system, "arm64") {
		t.Errorf("expected Go arch names to be translated, got %q", system)
	}
}
