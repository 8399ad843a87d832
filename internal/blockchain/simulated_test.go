package blockchain

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	txHashPattern  = regexp.MustCompile(`^0x[0-9a-f]{12}$`)
	addressPattern = regexp.MustCompile(`^0x[0-9a-f]{10}$`)
	nftIDPattern   = regexp.MustCompile(`^GEO-[A-Z0-9]{6}$`)
)

func TestDeployContractShape(t *testing.T) {
	chain := NewSimulated("ethereum-testnet")

	result, err := chain.DeployContract(context.Background(), DeployRequest{
		ProjectID:   "p-1",
		ProjectType: "Mangrove",
		Location:    "Bhitarkanika",
		Area:        15,
	})
	require.NoError(t, err)
	assert.Regexp(t, txHashPattern, result.TransactionHash)
	assert.Regexp(t, addressPattern, result.ContractAddress)
	assert.GreaterOrEqual(t, result.BlockNumber, int64(18000000))
	assert.LessOrEqual(t, result.BlockNumber, int64(19000000))
	assert.GreaterOrEqual(t, result.GasUsed, int64(20000))
	assert.LessOrEqual(t, result.GasUsed, int64(30000))
	assert.GreaterOrEqual(t, result.NetworkFee, 0.005)
	assert.LessOrEqual(t, result.NetworkFee, 0.015)
	assert.Equal(t, "ethereum-testnet", result.Network)
}

func TestMintGeoNFTShape(t *testing.T) {
	chain := NewSimulated("ethereum-testnet")
	ctx := context.Background()

	result, err := chain.MintGeoNFT(ctx, "0xabcdef1234", GeoNFTMetadata{
		Latitude:  21.9,
		Longitude: 89.1,
		Area:      15,
	})
	require.NoError(t, err)
	assert.Regexp(t, txHashPattern, result.TransactionHash)
	assert.Regexp(t, nftIDPattern, result.NFTID)

	_, err = chain.MintGeoNFT(ctx, "", GeoNFTMetadata{})
	assert.Error(t, err)
}

func TestCreateTokensValidation(t *testing.T) {
	chain := NewSimulated("ethereum-testnet")
	ctx := context.Background()

	result, err := chain.CreateTokens(ctx, "0xabcdef1234", 100, 45)
	require.NoError(t, err)
	assert.Regexp(t, txHashPattern, result.TransactionHash)

	_, err = chain.CreateTokens(ctx, "", 100, 45)
	assert.Error(t, err)
	_, err = chain.CreateTokens(ctx, "0xabcdef1234", 0, 45)
	assert.Error(t, err)
}

func TestTransactionHashesUnique(t *testing.T) {
	chain := NewSimulated("ethereum-testnet")
	ctx := context.Background()

	seen := make(map[string]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := chain.DeployContract(ctx, DeployRequest{})
			assert.NoError(t, err)
			mu.Lock()
			assert.False(t, seen[result.TransactionHash], "duplicate hash %s", result.TransactionHash)
			seen[result.TransactionHash] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
}

func TestCancelledContextRefused(t *testing.T) {
	chain := NewSimulated("ethereum-testnet")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := chain.DeployContract(ctx, DeployRequest{})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = chain.MintGeoNFT(ctx, "0xabcdef1234", GeoNFTMetadata{})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = chain.CreateTokens(ctx, "0xabcdef1234", 10, 45)
	assert.ErrorIs(t, err, context.Canceled)
}
