package sandboxtest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
)

// Gas reported by the toy NFT contract.
const (
	InitGas uint64 = 2_986_542_093_125
	MintGas uint64 = 8_173_094_462_109
)

// MintStorageCost is the minimum deposit nft_mint accepts.
var MintStorageCost = big.NewInt(6_370_000_000_000_000_000) // 0.00637 NEAR

// NFT is a minimal NEP-171 contract state shared by every contract account of
// a node.
type NFT struct {
	mu     sync.Mutex
	owner  map[string]string            // contract -> owner_id
	tokens map[string]map[string]string // contract -> token id -> receiver
}

type mintArgs struct {
	TokenID       string                 `json:"token_id"`
	ReceiverID    string                 `json:"receiver_id"`
	TokenMetadata map[string]interface{} `json:"token_metadata"`
}

// RegisterNFT installs the NFT contract's methods on n.
func RegisterNFT(n *Node) *NFT {
	nft := &NFT{
		owner:  make(map[string]string),
		tokens: make(map[string]map[string]string),
	}
	n.HandleMethod("new_default_meta", nft.init)
	n.HandleMethod("nft_mint", nft.mint)
	n.HandleView("nft_metadata", nft.metadata)
	return nft
}

func (nft *NFT) init(call *Call) (*Result, error) {
	var args struct {
		OwnerID string `json:"owner_id"`
	}
	if err := json.Unmarshal(call.Args, &args); err != nil || args.OwnerID == "" {
		return nil, errors.New("Failed to deserialize input from JSON.")
	}
	nft.mu.Lock()
	defer nft.mu.Unlock()
	if _, ok := nft.owner[call.Receiver]; ok {
		return nil, errors.New("The contract has already been initialized")
	}
	nft.owner[call.Receiver] = args.OwnerID
	nft.tokens[call.Receiver] = make(map[string]string)
	return &Result{Gas: InitGas}, nil
}

func (nft *NFT) mint(call *Call) (*Result, error) {
	var args mintArgs
	if err := json.Unmarshal(call.Args, &args); err != nil || args.TokenID == "" || args.ReceiverID == "" {
		return nil, errors.New("Failed to deserialize input from JSON.")
	}
	nft.mu.Lock()
	defer nft.mu.Unlock()
	owner, ok := nft.owner[call.Receiver]
	if !ok {
		return nil, errors.New("The contract is not initialized")
	}
	if call.Predecessor != owner {
		return nil, errors.New("Unauthorized")
	}
	if call.Deposit.Cmp(MintStorageCost) < 0 {
		return nil, fmt.Errorf("Must attach %s yoctoNEAR to cover storage", MintStorageCost)
	}
	if _, ok := nft.tokens[call.Receiver][args.TokenID]; ok {
		return nil, errors.New("token_id must be unique")
	}
	nft.tokens[call.Receiver][args.TokenID] = args.ReceiverID

	event, _ := json.Marshal(map[string]interface{}{
		"standard": "nep171",
		"version":  "1.0.0",
		"event":    "nft_mint",
		"data":     []map[string]interface{}{{"owner_id": args.ReceiverID, "token_ids": []string{args.TokenID}}},
	})
	token, _ := json.Marshal(map[string]interface{}{
		"token_id": args.TokenID,
		"owner_id": args.ReceiverID,
		"metadata": args.TokenMetadata,
	})
	return &Result{Value: token, Logs: []string{"EVENT_JSON:" + string(event)}, Gas: MintGas}, nil
}

func (nft *NFT) metadata([]byte) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"spec":   "nft-1.0.0",
		"name":   "Example NEAR non-fungible token",
		"symbol": "EXAMPLE",
	})
}

// Tokens returns the owner of every token minted on contract.
func (nft *NFT) Tokens(contract string) map[string]string {
	nft.mu.Lock()
	defer nft.mu.Unlock()
	out := make(map[string]string, len(nft.tokens[contract]))
	for id, owner := range nft.tokens[contract] {
		out[id] = owner
	}
	return out
}
