package progrock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/pin/adapters/telemetry/progrock"
)

func TestNew(t *testing.T) {
	recorder := progrock.New()
	assert.NotNil(t, recorder)
}

func TestRecorder_Integration(t *testing.T) {
	recorder := progrock.New().(*progrock.Recorder)

	_, span := recorder.Start(context.Background(), "resolve inputs")

	if _, err := span.Write([]byte("fetching nixpkgs\n")); err != nil {
		t.Errorf("failed to write to span: %v", err)
	}
	span.SetAttribute("input", "nixpkgs")
	span.End()

	recorder.EmitPlan(context.Background(), []string{"nixpkgs", "utils"})

	if err := recorder.Close(); err != nil {
		t.Errorf("failed to close recorder: %v", err)
	}
}

func TestSpan_RecordError(t *testing.T) {
	recorder := progrock.New().(*progrock.Recorder)

	_, span := recorder.Start(context.Background(), "assemble")
	span.RecordError(errors.New("build failed"))
	span.End()

	assert.NoError(t, recorder.Close())
}
