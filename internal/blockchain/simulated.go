package blockchain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

const nftIDChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Simulated is an in-process chain used for development and tests. It
// fabricates plausible transaction artifacts without any network access.
type Simulated struct {
	network string
	counter atomic.Uint64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulated creates a simulated chain collaborator
func NewSimulated(network string) *Simulated {
	return &Simulated{
		network: network,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// digest derives a unique hex string from the wall clock and a counter
func (s *Simulated) digest(length int) string {
	seed := fmt.Sprintf("%d-%d", time.Now().UnixNano(), s.counter.Add(1))
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])[:length]
}

func (s *Simulated) txHash() string {
	return "0x" + s.digest(12)
}

func (s *Simulated) contractAddress() string {
	return "0x" + s.digest(10)
}

func (s *Simulated) nftID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := make([]byte, 6)
	for i := range id {
		id[i] = nftIDChars[s.rng.Intn(len(nftIDChars))]
	}
	return "GEO-" + string(id)
}

func (s *Simulated) blockNumber() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return 18000000 + s.rng.Int63n(1000001)
}

func (s *Simulated) randRange(lo, hi int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.rng.Int63n(hi-lo+1)
}

func (s *Simulated) fee(lo, hi float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.rng.Float64()*(hi-lo)
}

// DeployContract simulates deploying a project contract
func (s *Simulated) DeployContract(ctx context.Context, req DeployRequest) (*DeployResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &DeployResult{
		TransactionHash: s.txHash(),
		ContractAddress: s.contractAddress(),
		BlockNumber:     s.blockNumber(),
		GasUsed:         s.randRange(20000, 30000),
		NetworkFee:      s.fee(0.005, 0.015),
		Network:         s.network,
	}, nil
}

// MintGeoNFT simulates minting a geography NFT against a contract
func (s *Simulated) MintGeoNFT(ctx context.Context, contractAddress string, metadata GeoNFTMetadata) (*MintResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if contractAddress == "" {
		return nil, fmt.Errorf("contract address is required")
	}
	return &MintResult{
		TransactionHash: s.txHash(),
		NFTID:           s.nftID(),
		BlockNumber:     s.blockNumber(),
		GasUsed:         s.randRange(15000, 25000),
		NetworkFee:      s.fee(0.003, 0.010),
		Network:         s.network,
	}, nil
}

// CreateTokens simulates minting the fungible credit tokens
func (s *Simulated) CreateTokens(ctx context.Context, contractAddress string, amount, unitPrice float64) (*TokenResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if contractAddress == "" {
		return nil, fmt.Errorf("contract address is required")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("token amount must be positive, got %v", amount)
	}
	return &TokenResult{
		TransactionHash: s.txHash(),
		BlockNumber:     s.blockNumber(),
		GasUsed:         s.randRange(25000, 35000),
		NetworkFee:      s.fee(0.008, 0.018),
		Network:         s.network,
	}, nil
}
