package services

import (
	"context"
	"fmt"

	"github.com/lasagnafinance/stake-ledger/internal/clock"
	"github.com/lasagnafinance/stake-ledger/internal/config"
	"github.com/lasagnafinance/stake-ledger/internal/db"
	"github.com/lasagnafinance/stake-ledger/internal/ledger"
	"github.com/lasagnafinance/stake-ledger/internal/queue"
	"github.com/lasagnafinance/stake-ledger/internal/types"
)

type Service struct {
	cfg       *config.Config
	db        db.DbInterface
	clock     clock.Clock
	publisher queue.EventPublisher
	program   ledger.ProgramID
}

func NewService(
	cfg *config.Config,
	db db.DbInterface,
	clk clock.Clock,
	publisher queue.EventPublisher,
) (*Service, error) {
	program, err := ledger.ParseProgramID(cfg.Ledger.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid program id: %w", err)
	}

	return &Service{
		cfg:       cfg,
		db:        db,
		clock:     clk,
		publisher: publisher,
		program:   program,
	}, nil
}

// AddressOf returns where the stake account of owner lives.
func (s *Service) AddressOf(owner types.Identity) ledger.Address {
	return ledger.DeriveAddress(s.program, owner)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
