package transfer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	domainerrors "github.com/courier-service/courier_service/internal/domain/errors"
)

const (
	// usdcDecimals is the stablecoin's minor-unit precision.
	usdcDecimals = 6

	// MaxFeeDivisor caps the bridge fee at baseUnits/MaxFeeDivisor. Protocol
	// tuning value taken from observed usage; semantics intentionally not
	// inferred.
	MaxFeeDivisor = 5000

	// MinFinalityThreshold selects the protocol's fast-transfer finality
	// tier. Protocol tuning value; semantics intentionally not inferred.
	MinFinalityThreshold uint32 = 1000

	// ZeroBytes32 is the bridging protocol's "any caller may complete the
	// mint" destination-caller placeholder.
	ZeroBytes32 = "0x0000000000000000000000000000000000000000000000000000000000000000"
)

// ToBaseUnits converts a decimal USD amount into the stablecoin's integer
// base units (amount × 10^6). Fractional digits beyond the 6th are
// truncated. The amount must be positive.
func ToBaseUnits(amount decimal.Decimal) (uint64, error) {
	if !amount.IsPositive() {
		return 0, fmt.Errorf("%w: amount must be positive, got %s", domainerrors.ErrInvalidAmount, amount)
	}
	shifted := amount.Shift(usdcDecimals).Truncate(0)
	if !shifted.BigInt().IsUint64() {
		return 0, fmt.Errorf("%w: amount %s exceeds representable range", domainerrors.ErrInvalidAmount, amount)
	}
	return shifted.BigInt().Uint64(), nil
}

// FromBaseUnits converts integer base units back to a decimal USD amount.
func FromBaseUnits(baseUnits uint64) decimal.Decimal {
	return decimal.NewFromUint64(baseUnits).Shift(-usdcDecimals)
}

// MaxFee computes the proportional fee ceiling for a burn: integer division,
// truncating.
func MaxFee(baseUnits uint64) uint64 {
	return baseUnits / MaxFeeDivisor
}

// PadRecipient encodes an EVM address as the protocol's canonical 32-byte
// left-padded recipient value.
func PadRecipient(address string) (string, error) {
	if err := validateAddress(address); err != nil {
		return "", err
	}
	return "0x" + strings.Repeat("0", 24) + address[2:], nil
}

// ExtractAddress recovers the original address from a padded recipient.
func ExtractAddress(padded string) (string, error) {
	if len(padded) != 66 || !strings.HasPrefix(padded, "0x") {
		return "", fmt.Errorf("%w: not a 32-byte value: %q", domainerrors.ErrInvalidAddress, padded)
	}
	return "0x" + padded[26:], nil
}

func validateAddress(address string) error {
	if len(address) != 42 || !strings.HasPrefix(address, "0x") {
		return fmt.Errorf("%w: %q", domainerrors.ErrInvalidAddress, address)
	}
	for _, r := range address[2:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return fmt.Errorf("%w: %q", domainerrors.ErrInvalidAddress, address)
		}
	}
	return nil
}
