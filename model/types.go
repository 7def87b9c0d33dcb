package model

import (
	"encoding/json"
	"fmt"
	"io"

	"xdao.co/skipproof/roster"
)

// BlockDocument carries a canonical block encoding.
type BlockDocument struct {
	ID   string `json:"id,omitempty"`
	Data []byte `json:"data"`
}

// SignatureDocument is a collective signature.
type SignatureDocument struct {
	Msg        string `json:"msg"`
	Sig        string `json:"sig"`
	Exceptions []int  `json:"exceptions,omitempty"`
}

type LinkDocument struct {
	From      string             `json:"from"`
	To        string             `json:"to"`
	NewRoster *roster.Document   `json:"new_roster,omitempty"`
	Signature *SignatureDocument `json:"signature"`
}

// ProofDocument is a chain of forward links from a trusted genesis block.
type ProofDocument struct {
	GenesisID     string          `json:"genesis_id"`
	GenesisRoster roster.Document `json:"genesis_roster"`
	Links         []LinkDocument  `json:"links"`
	LastBlock     *BlockDocument  `json:"last_block,omitempty"`
}

// InclusionRequest asks whether the record holding Key is part of the chain.
// Block may be omitted when Proof carries a last block.
type InclusionRequest struct {
	Key    string         `json:"key"`
	Block  *BlockDocument `json:"block,omitempty"`
	Proof  ProofDocument  `json:"proof"`
	Author string         `json:"author"`
}

// Result reports the outcome of a verification.
type Result struct {
	OK      bool   `json:"ok"`
	Tip     string `json:"tip,omitempty"`
	Roster  string `json:"roster,omitempty"`
	Check   string `json:"check,omitempty"`
	Kind    string `json:"kind,omitempty"`
	RuleID  string `json:"rule_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// Decode reads one JSON document from r, rejecting unknown fields.
func Decode(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("model: decode %T: %w", v, err)
	}
	return nil
}

// Encode writes v as indented JSON followed by a newline.
func Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
