package content

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// ComputeID returns the CIDv1 (raw codec, sha2-256) of data. It matches what
// an IPFS node reports for a single-block file added with raw leaves.
func ComputeID(data []byte) (string, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("hash content: %w", err)
	}
	return cid.NewCidV1(cid.Raw, sum).String(), nil
}

// ValidID reports whether id parses as a CID of any version.
func ValidID(id string) bool {
	_, err := cid.Decode(id)
	return err == nil
}
