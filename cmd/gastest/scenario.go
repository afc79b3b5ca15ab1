package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/nftgas/gastest/internal/gasreport"
	"github.com/nftgas/gastest/params"
	"github.com/nftgas/gastest/sandbox"
)

type initArgs struct {
	OwnerID string `json:"owner_id"`
}

type tokenMetadata struct {
	Title       string `json:"title"`
	Description string `json:"dscription"` // key spelling the contract has always been sent
	Copies      uint64 `json:"copies"`
}

type mintArgs struct {
	TokenID       string        `json:"token_id"`
	ReceiverID    string        `json:"receiver_id"`
	TokenMetadata tokenMetadata `json:"token_metadata"`
}

// runScenario deploys the contract, initialises it and mints one token,
// writing the report of the mint to out. A failed call is returned as an
// error after its outcome has been reported.
func runScenario(ctx context.Context, w *sandbox.Worker, cfg *ScenarioConfig, out io.Writer) (*gasreport.Summary, error) {
	deposit, err := params.ParseYocto(cfg.Deposit)
	if err != nil {
		return nil, fmt.Errorf("invalid deposit: %w", err)
	}
	wasm, err := os.ReadFile(cfg.Wasm)
	if err != nil {
		return nil, err
	}
	contract, err := w.DevDeploy(ctx, wasm)
	if err != nil {
		return nil, err
	}
	summary := &gasreport.Summary{Contract: contract.ID()}

	outcome, err := contract.Call("new_default_meta").
		Args(initArgs{OwnerID: contract.ID()}).
		Gas(cfg.Gas).
		Transact(ctx)
	if err != nil {
		return nil, fmt.Errorf("new_default_meta: %w", err)
	}
	if err := summary.Add("new_default_meta", outcome); err != nil {
		return nil, err
	}
	log.Debug("Initialised contract", "contract", contract.ID(), "status", outcome.Status.Kind, "gas", summary.Steps[0].GasBurnt)
	if err := outcome.Err(); err != nil {
		return summary, fmt.Errorf("new_default_meta: %w", err)
	}

	outcome, err = contract.Call("nft_mint").
		Args(mintArgs{
			TokenID:    cfg.TokenID,
			ReceiverID: w.RootAccount().ID(),
			TokenMetadata: tokenMetadata{
				Title:       "Olympus Mons",
				Description: "Tallest mountain in charted solar system",
				Copies:      1,
			},
		}).
		Deposit(deposit).
		Gas(cfg.Gas).
		Transact(ctx)
	if err != nil {
		return nil, fmt.Errorf("nft_mint: %w", err)
	}
	if err := summary.Add("nft_mint", outcome); err != nil {
		return nil, err
	}

	if cfg.JSON {
		if err := summary.WriteJSON(out); err != nil {
			return nil, err
		}
	} else {
		p := gasreport.NewPrinter(out)
		p.Outcome("nft_mint", outcome)
		p.Gas(summary.Steps[1].GasBurnt)
		if cfg.Summary {
			summary.Render(out)
		}
	}
	if err := outcome.Err(); err != nil {
		return summary, fmt.Errorf("nft_mint: %w", err)
	}
	return summary, nil
}
