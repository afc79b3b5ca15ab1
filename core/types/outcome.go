package types

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
)

// Execution status kinds reported by the node.
const (
	StatusUnknown          = "Unknown"
	StatusNotStarted       = "NotStarted"
	StatusStarted          = "Started"
	StatusFailure          = "Failure"
	StatusSuccessValue     = "SuccessValue"
	StatusSuccessReceiptID = "SuccessReceiptId"
)

var (
	ErrGasOverflow   = errors.New("gas burnt overflows uint64")
	ErrInvalidStatus = errors.New("invalid execution status")
)

// ExecutionStatus is the result of a transaction or receipt. On the wire it is
// either a bare string or an object with a single key naming the kind.
type ExecutionStatus struct {
	Kind             string
	SuccessValue     []byte
	SuccessReceiptID string
	Failure          json.RawMessage
}

func (s *ExecutionStatus) UnmarshalJSON(input []byte) error {
	var kind string
	if err := json.Unmarshal(input, &kind); err == nil {
		switch kind {
		case StatusUnknown, StatusNotStarted, StatusStarted:
			*s = ExecutionStatus{Kind: kind}
			return nil
		}
		return fmt.Errorf("%w: %q", ErrInvalidStatus, kind)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(input, &obj); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("%w: %d keys", ErrInvalidStatus, len(obj))
	}
	for key, raw := range obj {
		*s = ExecutionStatus{Kind: key}
		switch key {
		case StatusSuccessValue:
			var enc string
			if err := json.Unmarshal(raw, &enc); err != nil {
				return err
			}
			val, err := base64.StdEncoding.DecodeString(enc)
			if err != nil {
				return fmt.Errorf("invalid success value: %w", err)
			}
			s.SuccessValue = val
		case StatusSuccessReceiptID:
			if err := json.Unmarshal(raw, &s.SuccessReceiptID); err != nil {
				return err
			}
		case StatusFailure:
			s.Failure = append(json.RawMessage(nil), raw...)
		default:
			return fmt.Errorf("%w: %q", ErrInvalidStatus, key)
		}
	}
	return nil
}

func (s ExecutionStatus) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case StatusSuccessValue:
		return json.Marshal(map[string]string{s.Kind: base64.StdEncoding.EncodeToString(s.SuccessValue)})
	case StatusSuccessReceiptID:
		return json.Marshal(map[string]string{s.Kind: s.SuccessReceiptID})
	case StatusFailure:
		failure := s.Failure
		if len(failure) == 0 {
			failure = json.RawMessage("null")
		}
		return json.Marshal(map[string]json.RawMessage{s.Kind: failure})
	case "":
		return json.Marshal(StatusUnknown)
	default:
		return json.Marshal(s.Kind)
	}
}

// IsFailure reports whether execution failed.
func (s ExecutionStatus) IsFailure() bool { return s.Kind == StatusFailure }

// ExecutionError is a failed execution status turned into an error.
type ExecutionError struct {
	Raw json.RawMessage
}

func (e *ExecutionError) Error() string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, e.Raw); err != nil {
		return "execution failed: " + string(e.Raw)
	}
	return "execution failed: " + buf.String()
}

// Balance is a yoctoNEAR amount, a decimal string on the wire.
type Balance big.Int

func (b *Balance) UnmarshalJSON(input []byte) error {
	var s string
	if err := json.Unmarshal(input, &s); err != nil {
		return err
	}
	if _, ok := (*big.Int)(b).SetString(s, 10); !ok {
		return fmt.Errorf("invalid balance %q", s)
	}
	return nil
}

func (b Balance) MarshalJSON() ([]byte, error) {
	return json.Marshal((*big.Int)(&b).String())
}

func (b Balance) String() string {
	return (*big.Int)(&b).String()
}

// Int returns the balance as a big integer.
func (b *Balance) Int() *big.Int {
	return new(big.Int).Set((*big.Int)(b))
}

// ExecutionOutcome is the effect of executing one transaction or receipt.
type ExecutionOutcome struct {
	Logs        []string        `json:"logs"`
	ReceiptIDs  []string        `json:"receipt_ids"`
	GasBurnt    uint64          `json:"gas_burnt"`
	TokensBurnt Balance         `json:"tokens_burnt"`
	ExecutorID  string          `json:"executor_id"`
	Status      ExecutionStatus `json:"status"`
}

// ExecutionOutcomeWithID pairs an outcome with the id of what produced it.
type ExecutionOutcomeWithID struct {
	ID        string           `json:"id"`
	BlockHash string           `json:"block_hash"`
	Outcome   ExecutionOutcome `json:"outcome"`
}

// FinalExecutionOutcome is the result of a committed transaction.
type FinalExecutionOutcome struct {
	Status             ExecutionStatus          `json:"status"`
	Transaction        json.RawMessage          `json:"transaction,omitempty"`
	TransactionOutcome ExecutionOutcomeWithID   `json:"transaction_outcome"`
	ReceiptsOutcome    []ExecutionOutcomeWithID `json:"receipts_outcome"`
}

// TotalGasBurnt sums the gas burnt by the transaction and all of its receipts.
func (o *FinalExecutionOutcome) TotalGasBurnt() (uint64, error) {
	total := o.TransactionOutcome.Outcome.GasBurnt
	for _, r := range o.ReceiptsOutcome {
		if r.Outcome.GasBurnt > math.MaxUint64-total {
			return 0, ErrGasOverflow
		}
		total += r.Outcome.GasBurnt
	}
	return total, nil
}

// TotalTokensBurnt sums the yoctoNEAR burnt for gas.
func (o *FinalExecutionOutcome) TotalTokensBurnt() *big.Int {
	total := o.TransactionOutcome.Outcome.TokensBurnt.Int()
	for i := range o.ReceiptsOutcome {
		total.Add(total, (*big.Int)(&o.ReceiptsOutcome[i].Outcome.TokensBurnt))
	}
	return total
}

// Logs returns the logs of every receipt in execution order.
func (o *FinalExecutionOutcome) Logs() []string {
	logs := append([]string(nil), o.TransactionOutcome.Outcome.Logs...)
	for _, r := range o.ReceiptsOutcome {
		logs = append(logs, r.Outcome.Logs...)
	}
	return logs
}

// Err returns an *ExecutionError when the transaction failed.
func (o *FinalExecutionOutcome) Err() error {
	if o.Status.IsFailure() {
		return &ExecutionError{Raw: o.Status.Failure}
	}
	return nil
}

// ReceiptFailures returns the failures of individual receipts. A transaction
// can succeed overall while some of its receipts failed.
func (o *FinalExecutionOutcome) ReceiptFailures() []error {
	var errs []error
	for _, r := range o.ReceiptsOutcome {
		if r.Outcome.Status.IsFailure() {
			errs = append(errs, &ExecutionError{Raw: r.Outcome.Status.Failure})
		}
	}
	return errs
}

// JSON decodes the success value of the transaction into v.
func (o *FinalExecutionOutcome) JSON(v interface{}) error {
	if err := o.Err(); err != nil {
		return err
	}
	if o.Status.Kind != StatusSuccessValue {
		return fmt.Errorf("%w: no success value in %s status", ErrInvalidStatus, o.Status.Kind)
	}
	return json.Unmarshal(o.Status.SuccessValue, v)
}
