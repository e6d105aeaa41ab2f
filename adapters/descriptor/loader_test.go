package descriptor_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/pin/adapters/descriptor"
	"go.trai.ch/pin/core/domain"
)

func writeDescriptor(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, descriptor.DefaultFilename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return dir
}

func TestLoad_FullDescriptor(t *testing.T) {
	dir := writeDescriptor(t, `
version: "1"
inputs:
  nixpkgs:
    url: github:NixOS/nixpkgs
  utils:
    follows: nixpkgs
outputs:
  devShells:
    x86_64-linux:
      default:
        shell:
          buildInputs:
            - nixpkgs#hello
`)

	desc, err := descriptor.NewLoader().Load(dir)
	require.NoError(t, err)

	require.Len(t, desc.Inputs, 2)

	nixpkgs := desc.Inputs["nixpkgs"]
	require.Equal(t, "nixpkgs", nixpkgs.Name.String())
	require.Equal(t, domain.LocatorGitHub, nixpkgs.Locator.Type)
	require.Equal(t, "NixOS", nixpkgs.Locator.Owner)
	require.Equal(t, "nixpkgs", nixpkgs.Locator.Repo)

	utils := desc.Inputs["utils"]
	require.Equal(t, "nixpkgs", utils.Follows.String())

	shells := desc.Outputs.Attrs["devShells"]
	require.NotNil(t, shells)
	shell := shells.Attrs["x86_64-linux"].Attrs["default"]
	require.Equal(t, domain.ExprShell, shell.Kind)
	require.Len(t, shell.BuildInputs, 1)

	hello := shell.BuildInputs[0]
	require.Equal(t, domain.ExprPackage, hello.Kind)
	require.Equal(t, "nixpkgs", hello.Input.String())
	require.Equal(t, []string{"hello"}, hello.AttrPath)
}

func TestLoad_InputShorthand(t *testing.T) {
	dir := writeDescriptor(t, `
inputs:
  nixpkgs: github:NixOS/nixpkgs/nixos-24.05
outputs:
  greeting: hello world
`)

	desc, err := descriptor.NewLoader().Load(dir)
	require.NoError(t, err)

	nixpkgs := desc.Inputs["nixpkgs"]
	require.Equal(t, "nixos-24.05", nixpkgs.Locator.Ref)

	greeting := desc.Outputs.Attrs["greeting"]
	require.Equal(t, domain.ExprLiteral, greeting.Kind)
	require.Equal(t, "hello world", greeting.Literal)
}

func TestLoad_RefAndDottedAttrPath(t *testing.T) {
	dir := writeDescriptor(t, `
inputs:
  nixpkgs: github:NixOS/nixpkgs
outputs:
  packages:
    compiler: nixpkgs#llvmPackages.clang
  default: ref:packages.compiler
`)

	desc, err := descriptor.NewLoader().Load(dir)
	require.NoError(t, err)

	compiler := desc.Outputs.Attrs["packages"].Attrs["compiler"]
	require.Equal(t, domain.ExprPackage, compiler.Kind)
	require.Equal(t, []string{"llvmPackages", "clang"}, compiler.AttrPath)

	def := desc.Outputs.Attrs["default"]
	require.Equal(t, domain.ExprRef, def.Kind)
	require.Equal(t, []string{"packages", "compiler"}, def.Ref)
}

func TestLoad_UndeclaredInputInPackageRef(t *testing.T) {
	dir := writeDescriptor(t, `
inputs:
  nixpkgs: github:NixOS/nixpkgs
outputs:
  broken: undeclared#hello
`)

	_, err := descriptor.NewLoader().Load(dir)
	require.ErrorIs(t, err, domain.ErrUnknownInput)
}

func TestLoad_FollowsUnknownTarget(t *testing.T) {
	dir := writeDescriptor(t, `
inputs:
  utils:
    follows: missing
outputs: {}
`)

	_, err := descriptor.NewLoader().Load(dir)
	require.ErrorIs(t, err, domain.ErrUnknownInput)
}

func TestLoad_FollowsChainRejected(t *testing.T) {
	dir := writeDescriptor(t, `
inputs:
  nixpkgs: github:NixOS/nixpkgs
  a:
    follows: nixpkgs
  b:
    follows: a
outputs: {}
`)

	_, err := descriptor.NewLoader().Load(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "chained follows")
}

func TestLoad_URLAndFollowsExclusive(t *testing.T) {
	dir := writeDescriptor(t, `
inputs:
  nixpkgs: github:NixOS/nixpkgs
  both:
    url: github:other/repo
    follows: nixpkgs
outputs: {}
`)

	_, err := descriptor.NewLoader().Load(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "both url and follows")
}

func TestLoad_OutputsMustBeAttrs(t *testing.T) {
	dir := writeDescriptor(t, `
inputs:
  nixpkgs: github:NixOS/nixpkgs
outputs: just a string
`)

	_, err := descriptor.NewLoader().Load(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "attribute set")
}

func TestLoad_UnsupportedVersionRejected(t *testing.T) {
	dir := writeDescriptor(t, `
version: "2"
inputs:
  nixpkgs: github:NixOS/nixpkgs
outputs: {}
`)

	_, err := descriptor.NewLoader().Load(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported descriptor version")
}

func TestLoad_AbsentVersionAccepted(t *testing.T) {
	dir := writeDescriptor(t, `
inputs:
  nixpkgs: github:NixOS/nixpkgs
outputs: {}
`)

	_, err := descriptor.NewLoader().Load(dir)
	require.NoError(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := descriptor.NewLoader().Load(t.TempDir())
	require.Error(t, err)
}

func TestLoad_InvalidLocator(t *testing.T) {
	dir := writeDescriptor(t, `
inputs:
  bad: "not-a-scheme"
outputs: {}
`)

	_, err := descriptor.NewLoader().Load(dir)
	require.ErrorIs(t, err, domain.ErrInvalidLocator)
}
