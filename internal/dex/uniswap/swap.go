package uniswap

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"dexflow/internal/chain/evm"
	"dexflow/internal/dex"
	"dexflow/internal/metrics"
	"dexflow/internal/token"
)

// swapDeadlineSeconds is added to the latest block timestamp to form the
// router deadline.
const swapDeadlineSeconds = 300

// swapPlan carries everything the two-phase execution needs after the
// venue has quoted the trade and located its pool.
type swapPlan struct {
	venue      string
	base       token.TokenInfo
	quote      token.TokenInfo
	baseAmount decimal.Decimal
	price      decimal.Decimal
	slippage   token.Slippage
	router     common.Address

	// buildCalldata packs the venue-specific router call.
	buildCalldata func(rawIn, minOut, deadline *big.Int) ([]byte, error)
}

// executeSwap runs the approve-then-swap sequence. Pre-flight failures
// (zero amount, insufficient balance) and approval failures return an
// error with nothing traded; a revert of the swap transaction itself is
// reported through the SwapResult.
func executeSwap(ctx context.Context, backend Backend, submitter Submitter, logger *zap.Logger, plan swapPlan) (dex.SwapResult, error) {
	rawIn := plan.base.ToBaseUnits(plan.baseAmount)
	if rawIn.Sign() <= 0 {
		return dex.SwapResult{}, fmt.Errorf("swap amount must be positive, got %s %s", plan.baseAmount, plan.base.Symbol)
	}
	baseAddr, err := evm.ParseAddress(plan.base.Address)
	if err != nil {
		return dex.SwapResult{}, err
	}
	quoteAddr, err := evm.ParseAddress(plan.quote.Address)
	if err != nil {
		return dex.SwapResult{}, err
	}

	balance, err := backend.TokenBalanceRaw(ctx, baseAddr, submitter.Address())
	if err != nil {
		return dex.SwapResult{}, err
	}
	if balance.Cmp(rawIn) < 0 {
		return dex.SwapResult{}, fmt.Errorf("%w: have %s, need %s %s",
			dex.ErrInsufficientBalance, plan.base.FromBaseUnits(balance), plan.baseAmount, plan.base.Symbol)
	}

	expectedOut := plan.baseAmount.Mul(plan.price)
	minOut := plan.slippage.MinimumAmount(plan.quote.ToBaseUnits(expectedOut))

	logger.Info("approving router spend",
		zap.String("venue", plan.venue),
		zap.String("token", plan.base.Symbol),
		zap.String("router", plan.router.Hex()),
		zap.String("amount", rawIn.String()))
	approveData, err := evm.PackApprove(plan.router, rawIn)
	if err != nil {
		return dex.SwapResult{}, err
	}
	approveReceipt, err := submitter.Submit(ctx, baseAddr, approveData, nil)
	if err != nil {
		metrics.SwapsCompleted.WithLabelValues(plan.venue, "error").Inc()
		return dex.SwapResult{}, fmt.Errorf("%w: %w", dex.ErrApprovalFailed, err)
	}
	logger.Info("approval confirmed", zap.String("tx", approveReceipt.TxHash.Hex()))

	header, err := backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return dex.SwapResult{}, err
	}
	deadline := new(big.Int).SetUint64(header.Time + swapDeadlineSeconds)

	data, err := plan.buildCalldata(rawIn, minOut, deadline)
	if err != nil {
		return dex.SwapResult{}, err
	}

	logger.Info("submitting swap",
		zap.String("venue", plan.venue),
		zap.String("base", plan.base.Symbol),
		zap.String("quote", plan.quote.Symbol),
		zap.String("amount_in", rawIn.String()),
		zap.String("min_out", minOut.String()),
		zap.String("expected_price", plan.price.String()),
		zap.Int64("slippage_bps", plan.slippage.Bps()))
	metrics.SwapsSubmitted.WithLabelValues(plan.venue).Inc()

	receipt, err := submitter.Submit(ctx, plan.router, data, nil)
	if err != nil {
		var revertErr *dex.RevertError
		if errors.As(err, &revertErr) {
			metrics.SwapsCompleted.WithLabelValues(plan.venue, "reverted").Inc()
			logger.Warn("swap reverted",
				zap.String("tx", revertErr.TxHash),
				zap.String("reason", revertErr.Reason))
			return dex.Failure(plan.base.Amount(plan.baseAmount), plan.quote, revertErr.TxHash, revertErr.Reason), nil
		}
		metrics.SwapsCompleted.WithLabelValues(plan.venue, "error").Inc()
		return dex.SwapResult{}, err
	}

	received := sumTransfersTo(receipt.Logs, quoteAddr, submitter.Address())
	var blockNumber uint64
	if receipt.BlockNumber != nil {
		blockNumber = receipt.BlockNumber.Uint64()
	}
	metrics.SwapsCompleted.WithLabelValues(plan.venue, "confirmed").Inc()
	logger.Info("swap confirmed",
		zap.String("tx", receipt.TxHash.Hex()),
		zap.Uint64("block", blockNumber),
		zap.String("received", received.String()))
	return dex.Successful(plan.base.Amount(plan.baseAmount), plan.quote.AmountFromBaseUnits(received), receipt.TxHash.Hex(), blockNumber), nil
}
