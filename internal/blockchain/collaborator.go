// Package blockchain talks to the chain the registry anchors projects on.
// The Collaborator interface hides whether a real network or the built-in
// simulator is behind it.
package blockchain

import "context"

// DeployRequest carries the metadata anchored in a project contract
type DeployRequest struct {
	ProjectID   string  `json:"project_id"`
	ProjectType string  `json:"project_type"`
	Location    string  `json:"location"`
	Area        float64 `json:"area"`
}

// DeployResult is the outcome of a contract deployment
type DeployResult struct {
	TransactionHash string  `json:"transaction_hash"`
	ContractAddress string  `json:"contract_address"`
	BlockNumber     int64   `json:"block_number"`
	GasUsed         int64   `json:"gas_used"`
	NetworkFee      float64 `json:"network_fee"`
	Network         string  `json:"network"`
}

// MintResult is the outcome of a GeoNFT mint
type MintResult struct {
	TransactionHash string  `json:"transaction_hash"`
	NFTID           string  `json:"nft_id"`
	BlockNumber     int64   `json:"block_number"`
	GasUsed         int64   `json:"gas_used"`
	NetworkFee      float64 `json:"network_fee"`
	Network         string  `json:"network"`
}

// TokenResult is the outcome of creating the credit tokens
type TokenResult struct {
	TransactionHash string  `json:"transaction_hash"`
	BlockNumber     int64   `json:"block_number"`
	GasUsed         int64   `json:"gas_used"`
	NetworkFee      float64 `json:"network_fee"`
	Network         string  `json:"network"`
}

// GeoNFTMetadata describes the geography a GeoNFT pins down
type GeoNFTMetadata struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Area      float64 `json:"area"`
}

// Collaborator performs the registry's chain operations. Implementations
// must honor ctx cancellation; callers bound every call with a timeout.
type Collaborator interface {
	DeployContract(ctx context.Context, req DeployRequest) (*DeployResult, error)
	MintGeoNFT(ctx context.Context, contractAddress string, metadata GeoNFTMetadata) (*MintResult, error)
	CreateTokens(ctx context.Context, contractAddress string, amount, unitPrice float64) (*TokenResult, error)
}
