package domain_test

import (
	"errors"
	"testing"

	"go.trai.ch/pin/core/domain"
	"go.trai.ch/zerr"
)

func TestWithDetail_KeepsSentinelInChain(t *testing.T) {
	err := domain.WithDetail(domain.ErrMissingOutput, "segment", "default")
	if !errors.Is(err, domain.ErrMissingOutput) {
		t.Fatalf("sentinel not in error chain: %v", err)
	}
	if err.Error() != domain.ErrMissingOutput.Error() {
		t.Errorf("message changed: %q", err.Error())
	}
}

func TestWithDetail_CarriesMetadata(t *testing.T) {
	err := domain.WithDetail(domain.ErrUnknownInput, "input", "nixpkgs")

	zErr, ok := err.(*zerr.Error)
	if !ok {
		t.Fatalf("expected *zerr.Error, got %T", err)
	}
	if got := zErr.Metadata()["input"]; got != "nixpkgs" {
		t.Errorf("expected metadata input=nixpkgs, got %v", got)
	}
}

func TestWithDetail_ChainedWithKeepsBoth(t *testing.T) {
	err := domain.WithDetail(domain.ErrAmbiguousRevision, "input", "nixpkgs")
	err = zerr.With(err, "locator", "github:NixOS/nixpkgs")

	if !errors.Is(err, domain.ErrAmbiguousRevision) {
		t.Fatalf("sentinel lost after chained metadata: %v", err)
	}
	zErr, ok := err.(*zerr.Error)
	if !ok {
		t.Fatalf("expected *zerr.Error, got %T", err)
	}
	meta := zErr.Metadata()
	if meta["input"] != "nixpkgs" || meta["locator"] != "github:NixOS/nixpkgs" {
		t.Errorf("metadata incomplete: %v", meta)
	}
}
