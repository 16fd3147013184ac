// Package drive implements the upload pipeline and the access gate that sit
// between the HTTP surface and the content store and ledger.
package drive

import "context"

// SignatureVerifier checks that a caller controls an address.
type SignatureVerifier interface {
	Verify(message string, signature []byte, claimedAddress string) bool
}

// ContentStore is the content-addressed blob store.
type ContentStore interface {
	Put(ctx context.Context, data []byte, name string) (string, error)
	Get(ctx context.Context, id string) ([]byte, error)
	Health(ctx context.Context) error
	GatewayURL(id string, public bool) string
}
