// Package keys manages writer keys: 32-byte seeds stored as hex files, from
// which ristretto255 private scalars are derived.
//
// Layout under the store directory:
//
//	<identifier>/root.key
//	<identifier>/roles/<role>.key
//
// Role keys are derived deterministically from the root seed, so a lost role
// file can be re-derived.
package keys
