package txbuilder

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"ibtbridge/types"
	"ibtbridge/units"

	log "github.com/sirupsen/logrus"
)

// form parameter names
const (
	ParamTo               = "to"
	ParamFrom             = "from"
	ParamOwner            = "owner"
	ParamAmount           = "amount"
	ParamDestinationChain = "destinationChain"
)

// Builder validates a form and turns it into a call for one chain family.
type Builder interface {
	Build(ctx context.Context, kind types.OperationKind, params map[string]string) (types.CallDescriptor, error)
}

// Decimals is where a builder learns how to scale amounts. It is always
// asked, never assumed.
type Decimals interface {
	Decimals(ctx context.Context, token string) (uint8, error)
}

func requireFields(params map[string]string, fields ...string) error {
	for _, f := range fields {
		if strings.TrimSpace(params[f]) == "" {
			return types.NewValidationError(types.MissingField, f, fmt.Sprintf("%s is required", f))
		}
	}
	return nil
}

func requireAddresses(params map[string]string, valid func(string) bool, fields ...string) error {
	for _, f := range fields {
		v, ok := params[f]
		if !ok || v == "" {
			continue
		}
		if !valid(strings.TrimSpace(v)) {
			return types.NewValidationError(types.MalformedAddress, f, fmt.Sprintf("%s is not a valid address", f))
		}
	}
	return nil
}

func requirePositive(amount string) error {
	d, err := units.ParseAmount(amount)
	if err != nil || !d.IsPositive() {
		return types.NewValidationError(types.NonPositiveAmount, ParamAmount, "amount must be greater than zero")
	}
	return nil
}

// scale converts amount to base units and checks it against the chain's
// integer range. An amount below one base unit truncates to zero and is
// rejected like any other non positive amount.
func scale(amount string, decimals uint8, maxBits int) (*big.Int, error) {
	raw, err := units.ToBaseUnits(amount, int(decimals), maxBits)
	if errors.Is(err, units.ErrAmountOutOfRange) {
		return nil, types.NewValidationError(types.AmountOutOfRange, ParamAmount, fmt.Sprintf("amount does not fit in %d bits", maxBits))
	}
	if err != nil {
		return nil, types.NewValidationError(types.NonPositiveAmount, ParamAmount, "amount must be greater than zero")
	}
	if raw.Sign() <= 0 {
		return nil, types.NewValidationError(types.NonPositiveAmount, ParamAmount, fmt.Sprintf("amount is smaller than 1e-%d", decimals))
	}
	return raw, nil
}

func unsupported(kind types.OperationKind) error {
	log.Printf("Unsupported operation kind %q", kind)
	return types.NewValidationError(types.MissingField, "kind", fmt.Sprintf("unsupported operation %q", kind))
}
