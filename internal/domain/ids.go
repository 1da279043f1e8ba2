package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Entity IDs are pure functions of event fields: replaying the same event log
// always derives the same keys. No randomness, no wall clock.

// OwnershipID derives the NFTOwnership key for (collection, tokenId).
func OwnershipID(collectionAddress, tokenID string) string {
	return keccakID(NormalizeAddress(collectionAddress), tokenID)
}

// SummaryID derives the OwnershipSummary key for (collection, owner).
func SummaryID(collectionAddress, ownerAddress string) string {
	return keccakID(NormalizeAddress(collectionAddress), NormalizeAddress(ownerAddress))
}

// CrossChainID derives the CrossChainStatus key for (collection, tokenId).
// Subsequent transfers of the same token overwrite the same row.
func CrossChainID(collectionAddress, tokenID string) string {
	return keccakID(NormalizeAddress(collectionAddress), tokenID)
}

// TxID derives the append-only log key. The log index disambiguates multiple
// trade events emitted by one transaction.
func TxID(txHash string, logIndex uint64) string {
	return fmt.Sprintf("%s-%d", strings.ToLower(txHash), logIndex)
}

func keccakID(parts ...string) string {
	return hexutil.Encode(crypto.Keccak256([]byte(strings.Join(parts, "-"))))
}
