package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"xdao.co/skipproof/model"
	"xdao.co/skipproof/roster"
	"xdao.co/skipproof/skipchain"
)

// ErrNoGenesis is returned when no trusted genesis is configured.
var ErrNoGenesis = errors.New("config: no genesis configured")

// Genesis is the trusted starting point of every proof.
type Genesis struct {
	ID     skipchain.BlockID
	Roster *roster.Roster
	// Block is set when the genesis came from a block file.
	Block *skipchain.Block
}

// LoadGenesis reads the configured genesis.
func (c *Config) LoadGenesis() (*Genesis, error) {
	switch {
	case c.Genesis.BlockFile != "":
		f, err := os.Open(c.resolve(c.Genesis.BlockFile))
		if err != nil {
			return nil, fmt.Errorf("config: genesis: %w", err)
		}
		defer f.Close()
		var doc model.BlockDocument
		if err := model.Decode(f, &doc); err != nil {
			return nil, fmt.Errorf("config: genesis: %w", err)
		}
		b, err := doc.Block()
		if err != nil {
			return nil, fmt.Errorf("config: genesis: %w", err)
		}
		if !b.IsGenesis() {
			return nil, fmt.Errorf("config: genesis: block %s has index %d", b.Hash(), b.Index)
		}
		if b.Roster == nil {
			return nil, fmt.Errorf("config: genesis: block %s has no roster", b.Hash())
		}
		return &Genesis{ID: b.Hash(), Roster: b.Roster, Block: b}, nil

	case c.Genesis.ID != "":
		id, err := skipchain.BlockIDFromHex(c.Genesis.ID)
		if err != nil {
			return nil, fmt.Errorf("config: genesis id: %w", err)
		}
		r, err := LoadRoster(c.resolve(c.Genesis.RosterFile))
		if err != nil {
			return nil, err
		}
		return &Genesis{ID: id, Roster: r}, nil

	default:
		return nil, ErrNoGenesis
	}
}

// LoadRoster reads a roster document in YAML or JSON.
func LoadRoster(path string) (*roster.Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: roster: %w", err)
	}
	var doc roster.Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("config: roster %s: %w", path, err)
	}
	r, err := roster.FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("config: roster %s: %w", path, err)
	}
	return r, nil
}
