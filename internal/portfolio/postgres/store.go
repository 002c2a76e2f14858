// Package postgres persists reconciled swaps so PnL can be computed
// across process restarts.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"dexflow/internal/portfolio"
	"dexflow/internal/token"
)

// Store provides Postgres persistence for executed swaps.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the swaps table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS swaps (
			chain text NOT NULL,
			tx_hash text NOT NULL,
			block_number bigint NOT NULL,
			sold_symbol text NOT NULL,
			sold_address text NOT NULL,
			sold_decimals integer NOT NULL,
			sold_amount numeric NOT NULL,
			bought_symbol text NOT NULL,
			bought_address text NOT NULL,
			bought_decimals integer NOT NULL,
			bought_amount numeric NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (chain, tx_hash)
		)
	`)
	return err
}

const upsertSwapSQL = `
	INSERT INTO swaps (
		chain, tx_hash, block_number,
		sold_symbol, sold_address, sold_decimals, sold_amount,
		bought_symbol, bought_address, bought_decimals, bought_amount,
		created_at, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now(),now())
	ON CONFLICT (chain, tx_hash)
	DO UPDATE SET
		block_number = EXCLUDED.block_number,
		sold_symbol = EXCLUDED.sold_symbol,
		sold_address = EXCLUDED.sold_address,
		sold_decimals = EXCLUDED.sold_decimals,
		sold_amount = EXCLUDED.sold_amount,
		bought_symbol = EXCLUDED.bought_symbol,
		bought_address = EXCLUDED.bought_address,
		bought_decimals = EXCLUDED.bought_decimals,
		bought_amount = EXCLUDED.bought_amount,
		updated_at = now()
`

// RecordSwap upserts a single reconciled swap.
func (s *Store) RecordSwap(ctx context.Context, chain string, swap portfolio.Swap) error {
	_, err := s.pool.Exec(ctx, upsertSwapSQL,
		chain,
		swap.TxHash,
		int64(swap.BlockNumber),
		swap.Sold.Token.Symbol,
		swap.Sold.Token.Address,
		swap.Sold.Token.Decimals,
		swap.Sold.Value.String(),
		swap.Bought.Token.Symbol,
		swap.Bought.Token.Address,
		swap.Bought.Token.Decimals,
		swap.Bought.Value.String(),
	)
	return err
}

// RecordSwaps batch-upserts reconciled swaps.
func (s *Store) RecordSwaps(ctx context.Context, chain string, swaps []portfolio.Swap) error {
	if len(swaps) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, swap := range swaps {
		batch.Queue(upsertSwapSQL,
			chain,
			swap.TxHash,
			int64(swap.BlockNumber),
			swap.Sold.Token.Symbol,
			swap.Sold.Token.Address,
			swap.Sold.Token.Decimals,
			swap.Sold.Value.String(),
			swap.Bought.Token.Symbol,
			swap.Bought.Token.Address,
			swap.Bought.Token.Decimals,
			swap.Bought.Value.String(),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range swaps {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// SwapsForAsset returns every stored swap touching the asset on either
// leg, in block order, ready for FIFO matching.
func (s *Store) SwapsForAsset(ctx context.Context, chain string, asset token.TokenInfo) ([]portfolio.Swap, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tx_hash, block_number,
			sold_symbol, sold_address, sold_decimals, sold_amount,
			bought_symbol, bought_address, bought_decimals, bought_amount
		FROM swaps
		WHERE chain = $1 AND (lower(sold_address) = lower($2) OR lower(bought_address) = lower($2))
		ORDER BY block_number ASC, tx_hash ASC
	`, chain, asset.Address)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var swaps []portfolio.Swap
	for rows.Next() {
		var (
			swap                     portfolio.Swap
			blockNumber              int64
			sold, bought             token.TokenInfo
			soldAmount, boughtAmount string
		)
		if err := rows.Scan(
			&swap.TxHash, &blockNumber,
			&sold.Symbol, &sold.Address, &sold.Decimals, &soldAmount,
			&bought.Symbol, &bought.Address, &bought.Decimals, &boughtAmount,
		); err != nil {
			return nil, err
		}
		sold.Chain = chain
		bought.Chain = chain

		soldValue, err := decimal.NewFromString(soldAmount)
		if err != nil {
			return nil, fmt.Errorf("swap %s: bad sold amount: %w", swap.TxHash, err)
		}
		boughtValue, err := decimal.NewFromString(boughtAmount)
		if err != nil {
			return nil, fmt.Errorf("swap %s: bad bought amount: %w", swap.TxHash, err)
		}

		swap.BlockNumber = uint64(blockNumber)
		swap.Sold = sold.Amount(soldValue)
		swap.Bought = bought.Amount(boughtValue)
		swaps = append(swaps, swap)
	}
	return swaps, rows.Err()
}
