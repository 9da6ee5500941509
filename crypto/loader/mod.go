// Package loader defines an abstraction to load a key from a persistent
// storage. It allows one to either read it from the storage, or to generate a
// new one and stores it for the next time.
package loader

import (
	"go.dedis.ch/ticket/crypto"
	"go.dedis.ch/ticket/crypto/ed25519"
	"golang.org/x/xerrors"
)

// Generator is the interface to implement to generate a key.
type Generator interface {
	Generate() ([]byte, error)
}

// Loader is an abstraction to load a key from a storage. It allows for instance
// to load a private key from the disk, or generate it if it doesn't exist.
type Loader interface {
	// LoadOrCreate tries to load the key and returns it if found, otherwise it
	// generates a new one using the generator and stores it.
	LoadOrCreate(Generator) ([]byte, error)

	// Load returns the key if it exists, otherwise an error.
	Load() ([]byte, error)
}

// SignerGenerator generates the private key of a new Ed25519 signer.
//
// - implements loader.Generator
type SignerGenerator struct{}

// Generate implements loader.Generator. It returns the marshaled private key
// of a fresh signer.
func (SignerGenerator) Generate() ([]byte, error) {
	signer := ed25519.NewSigner()

	data, err := signer.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal signer: %v", err)
	}

	return data, nil
}

// LoadSigner returns the Ed25519 signer stored by the loader, or creates it if
// it does not exist yet.
func LoadSigner(l Loader) (crypto.Signer, error) {
	data, err := l.LoadOrCreate(SignerGenerator{})
	if err != nil {
		return nil, xerrors.Errorf("failed to load key: %v", err)
	}

	signer, err := ed25519.NewSignerFromBytes(data)
	if err != nil {
		return nil, xerrors.Errorf("invalid key: %v", err)
	}

	return signer, nil
}
