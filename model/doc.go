// Package model defines the JSON documents exchanged with API layers and the
// CLI: proofs, links, blocks and inclusion requests.
//
// Block ids, keys and signatures are lower-case hex. Block encodings are
// base64 (encoding/json's []byte form). Decoding a document re-derives every
// id it carries and rejects any that disagree.
package model
