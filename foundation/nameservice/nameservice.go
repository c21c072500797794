// Package nameservice reads the collection of key files in a folder and
// provides name resolution for account addresses.
package nameservice

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// NameService maintains a mapping of account address to the name of the
// key file that produced it.
type NameService struct {
	accounts map[string]string
}

// New constructs a name service based on the key files located in the
// specified folder.
func New(root string) (*NameService, error) {
	ns := NameService{
		accounts: make(map[string]string),
	}

	// A node without a set of account key files is fine; names
	// just won't resolve.
	if _, err := os.Stat(root); err != nil {
		return &ns, nil
	}

	fn := func(fileName string, dirEntry fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if filepath.Ext(fileName) != ".ecdsa" {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return fmt.Errorf("unable to load private key for node: %w", err)
		}

		address := crypto.PubkeyToAddress(privateKey.PublicKey).String()
		ns.accounts[address] = strings.TrimSuffix(filepath.Base(fileName), ".ecdsa")

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified address. If the address is not
// known, the address itself is returned.
func (ns *NameService) Lookup(address string) string {
	name, exists := ns.accounts[address]
	if !exists {
		return address
	}
	return name
}

// Copy returns a copy of the current address to name mapping.
func (ns *NameService) Copy() map[string]string {
	cpy := make(map[string]string, len(ns.accounts))
	for address, name := range ns.accounts {
		cpy[address] = name
	}
	return cpy
}
