// Package registry orchestrates the project lifecycle across the chain,
// the credit ledger and the price source.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blue-carbon/registry-backend/internal/blockchain"
	"blue-carbon/registry-backend/internal/credits"
	"blue-carbon/registry-backend/internal/credits/calculation"
	"blue-carbon/registry-backend/internal/pricing"
	"blue-carbon/registry-backend/internal/projects"
)

// ErrNoEstimate is returned when tokenizing a project without a carbon estimate
var ErrNoEstimate = errors.New("project has no carbon estimate, run analysis first")

// ErrNoChainAddress is returned when minting against an undeployed project
var ErrNoChainAddress = errors.New("project has no chain address, deploy first")

// Service drives the verified→registered→tokenized stretch of the
// lifecycle. Chain calls run under a bounded timeout and never inside a
// ledger or project lock.
type Service struct {
	projects    *projects.Service
	credits     *credits.Service
	chain       blockchain.Collaborator
	receipts    blockchain.ReceiptRepository
	prices      pricing.Source
	callTimeout time.Duration
	logger      *zap.Logger
}

// NewService creates a registry orchestration service
func NewService(
	projectSvc *projects.Service,
	creditSvc *credits.Service,
	chain blockchain.Collaborator,
	receipts blockchain.ReceiptRepository,
	prices pricing.Source,
	callTimeout time.Duration,
	logger *zap.Logger,
) *Service {
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	return &Service{
		projects:    projectSvc,
		credits:     creditSvc,
		chain:       chain,
		receipts:    receipts,
		prices:      prices,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

func (s *Service) boundedCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.callTimeout)
}

func (s *Service) saveReceipt(ctx context.Context, receipt *blockchain.Receipt) {
	if err := s.receipts.Create(ctx, receipt); err != nil {
		s.logger.Error("failed to persist chain receipt",
			zap.String("tx_hash", receipt.TxHash),
			zap.Error(err))
	}
}

// DeployContract anchors a verified project on chain and moves it to
// registered. A chain failure leaves the project untouched.
func (s *Service) DeployContract(ctx context.Context, projectID uuid.UUID) (*blockchain.DeployResult, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status != projects.StatusVerified {
		return nil, &projects.InvalidTransitionError{From: project.Status, To: projects.StatusRegistered}
	}

	chainCtx, cancel := s.boundedCtx(ctx)
	defer cancel()
	result, err := s.chain.DeployContract(chainCtx, blockchain.DeployRequest{
		ProjectID:   project.ID.String(),
		ProjectType: project.ProjectType,
		Location:    project.Location,
		Area:        project.Area,
	})
	if err != nil {
		return nil, fmt.Errorf("contract deployment failed: %w", err)
	}

	s.saveReceipt(ctx, &blockchain.Receipt{
		ProjectID:   projectID,
		Type:        blockchain.ReceiptContractDeployment,
		TxHash:      result.TransactionHash,
		BlockNumber: result.BlockNumber,
		GasUsed:     result.GasUsed,
		NetworkFee:  result.NetworkFee,
		Network:     result.Network,
		CreatedAt:   time.Now().UTC(),
	})

	if _, err := s.projects.MarkRegistered(ctx, projectID, result.ContractAddress); err != nil {
		return nil, fmt.Errorf("contract deployed at %s but registration failed: %w", result.ContractAddress, err)
	}

	s.logger.Info("project registered on chain",
		zap.String("project_id", projectID.String()),
		zap.String("contract_address", result.ContractAddress))
	return result, nil
}

// Tokenize mints the credit tokens for a registered project and issues
// the ledger, which completes the move to tokenized. The token amount is
// the analysis-backed carbon estimate.
func (s *Service) Tokenize(ctx context.Context, projectID uuid.UUID, unitPrice *float64) (*credits.CreditLedger, *blockchain.TokenResult, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	if project.Status != projects.StatusRegistered {
		return nil, nil, &projects.InvalidTransitionError{From: project.Status, To: projects.StatusTokenized}
	}
	if project.EstimatedCredits == nil || *project.EstimatedCredits <= 0 {
		return nil, nil, ErrNoEstimate
	}
	if project.ChainAddress == nil {
		return nil, nil, ErrNoChainAddress
	}

	// fail fast before touching the chain
	if _, err := s.credits.GetLedger(ctx, projectID); err == nil {
		return nil, nil, credits.ErrAlreadyIssued
	} else if !errors.Is(err, credits.ErrLedgerNotFound) {
		return nil, nil, err
	}

	var price float64
	if unitPrice != nil {
		price = *unitPrice
	} else {
		quoteCtx, cancel := s.boundedCtx(ctx)
		price, err = s.prices.UnitPrice(quoteCtx)
		cancel()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to quote unit price: %w", err)
		}
	}
	if price <= 0 {
		return nil, nil, fmt.Errorf("unit price must be positive, got %v", price)
	}

	amount := *project.EstimatedCredits
	chainCtx, cancel := s.boundedCtx(ctx)
	defer cancel()
	result, err := s.chain.CreateTokens(chainCtx, *project.ChainAddress, amount, price)
	if err != nil {
		return nil, nil, fmt.Errorf("token creation failed: %w", err)
	}

	s.saveReceipt(ctx, &blockchain.Receipt{
		ProjectID:   projectID,
		Type:        blockchain.ReceiptTokenCreation,
		TxHash:      result.TransactionHash,
		BlockNumber: result.BlockNumber,
		GasUsed:     result.GasUsed,
		NetworkFee:  result.NetworkFee,
		Network:     result.Network,
		CreatedAt:   time.Now().UTC(),
	})

	ledger, err := s.credits.Issue(ctx, projectID, amount, price)
	if err != nil {
		return nil, result, fmt.Errorf("tokens minted (tx %s) but ledger issuance failed: %w", result.TransactionHash, err)
	}

	s.logger.Info("project tokenized",
		zap.String("project_id", projectID.String()),
		zap.Float64("total_credits", ledger.TotalCredits),
		zap.Float64("unit_price", price))
	return ledger, result, nil
}

// MintGeoNFT mints the geography NFT for a deployed project. The NFT id
// is recorded once.
func (s *Service) MintGeoNFT(ctx context.Context, projectID uuid.UUID) (*blockchain.MintResult, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.ChainAddress == nil {
		return nil, ErrNoChainAddress
	}

	chainCtx, cancel := s.boundedCtx(ctx)
	defer cancel()
	result, err := s.chain.MintGeoNFT(chainCtx, *project.ChainAddress, blockchain.GeoNFTMetadata{
		Latitude:  project.Latitude,
		Longitude: project.Longitude,
		Area:      project.Area,
	})
	if err != nil {
		return nil, fmt.Errorf("geonft mint failed: %w", err)
	}

	s.saveReceipt(ctx, &blockchain.Receipt{
		ProjectID:   projectID,
		Type:        blockchain.ReceiptGeoNFTMint,
		TxHash:      result.TransactionHash,
		BlockNumber: result.BlockNumber,
		GasUsed:     result.GasUsed,
		NetworkFee:  result.NetworkFee,
		Network:     result.Network,
		CreatedAt:   time.Now().UTC(),
	})

	if _, err := s.projects.SetGeoNFT(ctx, projectID, result.NFTID); err != nil {
		return nil, fmt.Errorf("geonft minted (tx %s) but could not be recorded: %w", result.TransactionHash, err)
	}

	s.logger.Info("geonft minted",
		zap.String("project_id", projectID.String()),
		zap.String("nft_id", result.NFTID))
	return result, nil
}

// Dashboard aggregates a project's registry view
type Dashboard struct {
	Project  *projects.Project     `json:"project"`
	Ledger   *credits.CreditLedger `json:"ledger,omitempty"`
	Receipts []*blockchain.Receipt `json:"receipts"`
	Impact   *calculation.Impact   `json:"impact,omitempty"`
}

// GetDashboard composes the project record, its ledger, chain receipts
// and the estimated broader impact.
func (s *Service) GetDashboard(ctx context.Context, projectID uuid.UUID) (*Dashboard, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{Project: project}

	ledger, err := s.credits.GetLedger(ctx, projectID)
	if err == nil {
		dashboard.Ledger = ledger
	} else if !errors.Is(err, credits.ErrLedgerNotFound) {
		return nil, err
	}

	receipts, err := s.receipts.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	dashboard.Receipts = receipts

	if project.EstimatedCredits != nil {
		impact := calculation.EstimateImpact(project.Area, *project.EstimatedCredits)
		dashboard.Impact = &impact
	}
	return dashboard, nil
}

// GetLedger exposes a project's credit ledger
func (s *Service) GetLedger(ctx context.Context, projectID uuid.UUID) (*credits.CreditLedger, error) {
	return s.credits.GetLedger(ctx, projectID)
}
