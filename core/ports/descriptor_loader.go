package ports

import "go.trai.ch/pin/core/domain"

// DescriptorLoader defines the interface for loading the environment descriptor.
//
//go:generate go run go.uber.org/mock/mockgen -source=descriptor_loader.go -destination=mocks/mock_descriptor_loader.go -package=mocks
type DescriptorLoader interface {
	// Load reads the descriptor from the given working directory and returns
	// its declared inputs and output tree.
	Load(cwd string) (*domain.Descriptor, error)
}
