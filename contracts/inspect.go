package contracts

import (
	"context"
	"fmt"
)

// inspectSender is used for read-only calls that do not depend on the
// caller. Dev-inspect accepts any sender.
var inspectSender = Address{}

// View runs a single Move call through dev-inspect and returns its return
// values. A call that aborts comes back as an *AbortError.
func (c *Client) View(ctx context.Context, pkg Address, module, function string, args ...Arg) ([]ReturnValue, error) {
	tx := NewTransaction()
	tx.MoveCall(pkg, module, function, args...)

	res, err := c.DevInspect(ctx, inspectSender, tx)
	if err != nil {
		return nil, err
	}
	if res.Error != "" {
		return nil, fmt.Errorf("failed to inspect %s::%s: %w", module, function, ParseAbort(res.Error))
	}
	if res.Effects != nil && !res.Effects.Status.Success() {
		return nil, fmt.Errorf("failed to inspect %s::%s: %w", module, function, ParseAbort(res.Effects.Status.Error))
	}
	if len(res.Results) == 0 {
		return nil, fmt.Errorf("%w: %s::%s returned no results", ErrNotFound, module, function)
	}
	return res.Results[len(res.Results)-1].ReturnValues, nil
}

func (c *Client) viewFirst(ctx context.Context, pkg Address, module, function string, args ...Arg) ([]byte, error) {
	values, err := c.View(ctx, pkg, module, function, args...)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %s::%s returned nothing", ErrNotFound, module, function)
	}
	return values[0].Bytes, nil
}

// ViewU64 calls a view function returning u64.
func (c *Client) ViewU64(ctx context.Context, pkg Address, module, function string, args ...Arg) (uint64, error) {
	b, err := c.viewFirst(ctx, pkg, module, function, args...)
	if err != nil {
		return 0, err
	}
	v, err := DecodeU64(b)
	if err != nil {
		return 0, fmt.Errorf("failed to decode %s::%s result: %w", module, function, err)
	}
	return v, nil
}

// ViewBool calls a view function returning bool.
func (c *Client) ViewBool(ctx context.Context, pkg Address, module, function string, args ...Arg) (bool, error) {
	b, err := c.viewFirst(ctx, pkg, module, function, args...)
	if err != nil {
		return false, err
	}
	v, err := DecodeBool(b)
	if err != nil {
		return false, fmt.Errorf("failed to decode %s::%s result: %w", module, function, err)
	}
	return v, nil
}
