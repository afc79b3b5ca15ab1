package types

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mintOutcomeJSON = `{
  "status": {"SuccessValue": "eyJ0b2tlbl9pZCI6IjAifQ=="},
  "transaction": {"signer_id": "dev-1.test.near", "nonce": 2},
  "transaction_outcome": {
    "proof": [],
    "block_hash": "5rZ9MZHsYoDkbC2N6jU8y7Vg1P9K3F6pRk4sd2yq1Xd4",
    "id": "9Gm4k1uNjgb4fA3XkBZ4i8w1L6n5RDWfkzbnc8PfGzU2",
    "outcome": {
      "logs": [],
      "receipt_ids": ["3kS8o5PNpmxw3dTXWUMaMfEhxfmSeJg2VChB1LZRMfWC"],
      "gas_burnt": 2428213172574,
      "tokens_burnt": "242821317257400000000",
      "executor_id": "dev-1.test.near",
      "status": {"SuccessReceiptId": "3kS8o5PNpmxw3dTXWUMaMfEhxfmSeJg2VChB1LZRMfWC"}
    }
  },
  "receipts_outcome": [
    {
      "proof": [],
      "block_hash": "6DqV2u9dUyJ1c7r7wWm2t2kJX1VbK9sT2Zi5rYh3G1Fp",
      "id": "3kS8o5PNpmxw3dTXWUMaMfEhxfmSeJg2VChB1LZRMfWC",
      "outcome": {
        "logs": ["EVENT_JSON:{\"standard\":\"nep171\",\"event\":\"nft_mint\"}"],
        "receipt_ids": ["AQ8gyoRfpZGjSD9HYx2ta8pkrGgT6vFV7tWA7xhsV9Gm"],
        "gas_burnt": 10341374186634,
        "tokens_burnt": "1034137418663400000000",
        "executor_id": "dev-1.test.near",
        "status": {"SuccessValue": ""}
      }
    },
    {
      "proof": [],
      "block_hash": "6DqV2u9dUyJ1c7r7wWm2t2kJX1VbK9sT2Zi5rYh3G1Fp",
      "id": "AQ8gyoRfpZGjSD9HYx2ta8pkrGgT6vFV7tWA7xhsV9Gm",
      "outcome": {
        "logs": [],
        "receipt_ids": [],
        "gas_burnt": 223182562500,
        "tokens_burnt": "0",
        "executor_id": "test.near",
        "status": {"SuccessValue": ""}
      }
    }
  ]
}`

func TestDecodeFinalExecutionOutcome(t *testing.T) {
	var out FinalExecutionOutcome
	require.NoError(t, json.Unmarshal([]byte(mintOutcomeJSON), &out))

	assert.Equal(t, StatusSuccessValue, out.Status.Kind)
	assert.Equal(t, `{"token_id":"0"}`, string(out.Status.SuccessValue))
	assert.Equal(t, StatusSuccessReceiptID, out.TransactionOutcome.Outcome.Status.Kind)
	require.Len(t, out.ReceiptsOutcome, 2)

	gas, err := out.TotalGasBurnt()
	require.NoError(t, err)
	assert.Equal(t, uint64(2428213172574+10341374186634+223182562500), gas)

	assert.Equal(t, "1276958735920800000000", out.TotalTokensBurnt().String())
	assert.Equal(t, []string{`EVENT_JSON:{"standard":"nep171","event":"nft_mint"}`}, out.Logs())
	assert.NoError(t, out.Err())
	assert.Empty(t, out.ReceiptFailures())

	var ret struct {
		TokenID string `json:"token_id"`
	}
	require.NoError(t, out.JSON(&ret))
	assert.Equal(t, "0", ret.TokenID)
}

func TestTotalGasBurntOverflow(t *testing.T) {
	out := FinalExecutionOutcome{
		TransactionOutcome: ExecutionOutcomeWithID{Outcome: ExecutionOutcome{GasBurnt: math.MaxUint64 - 1}},
		ReceiptsOutcome: []ExecutionOutcomeWithID{
			{Outcome: ExecutionOutcome{GasBurnt: 1}},
			{Outcome: ExecutionOutcome{GasBurnt: 1}},
		},
	}
	_, err := out.TotalGasBurnt()
	assert.True(t, errors.Is(err, ErrGasOverflow))

	out.ReceiptsOutcome = out.ReceiptsOutcome[:1]
	gas, err := out.TotalGasBurnt()
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), gas)
}

func TestExecutionStatusForms(t *testing.T) {
	tests := []struct {
		in   string
		kind string
	}{
		{`"Unknown"`, StatusUnknown},
		{`"NotStarted"`, StatusNotStarted},
		{`"Started"`, StatusStarted},
		{`{"SuccessValue":""}`, StatusSuccessValue},
		{`{"SuccessReceiptId":"abc"}`, StatusSuccessReceiptID},
		{`{"Failure":{"ActionError":{"index":0,"kind":{"FunctionCallError":{"ExecutionError":"Smart contract panicked: Token already exists"}}}}}`, StatusFailure},
	}
	for _, tc := range tests {
		var s ExecutionStatus
		require.NoError(t, json.Unmarshal([]byte(tc.in), &s), tc.in)
		assert.Equal(t, tc.kind, s.Kind)

		// Re-encoding yields an equivalent document.
		enc, err := json.Marshal(s)
		require.NoError(t, err)
		assert.JSONEq(t, tc.in, string(enc))
	}

	for _, bad := range []string{`"Bogus"`, `{}`, `{"SuccessValue":"","Failure":{}}`, `{"Other":1}`, `{"SuccessValue":"!!"}`, `42`} {
		var s ExecutionStatus
		assert.Error(t, json.Unmarshal([]byte(bad), &s), bad)
	}
}

func TestFailedOutcome(t *testing.T) {
	raw := `{
	  "status": {"Failure": {"ActionError": {"index": 0, "kind": {"FunctionCallError": {"ExecutionError": "Smart contract panicked: Token already exists"}}}}},
	  "transaction_outcome": {"id": "a", "block_hash": "b", "outcome": {"logs": [], "receipt_ids": ["r"], "gas_burnt": 100, "tokens_burnt": "1", "executor_id": "x", "status": {"SuccessReceiptId": "r"}}},
	  "receipts_outcome": [
	    {"id": "r", "block_hash": "b", "outcome": {"logs": [], "receipt_ids": [], "gas_burnt": 200, "tokens_burnt": "2", "executor_id": "x", "status": {"Failure": {"ActionError": {"index": 0}}}}}
	  ]
	}`
	var out FinalExecutionOutcome
	require.NoError(t, json.Unmarshal([]byte(raw), &out))

	err := out.Err()
	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Contains(t, err.Error(), "Token already exists")
	assert.Len(t, out.ReceiptFailures(), 1)

	gas, err := out.TotalGasBurnt()
	require.NoError(t, err)
	assert.Equal(t, uint64(300), gas)

	var v interface{}
	assert.Error(t, out.JSON(&v))
}
