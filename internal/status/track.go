package status

import (
	"context"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/chain"
	"github.com/Mohsinsiddi/tokendesk/internal/contract"
	"github.com/ethereum/go-ethereum/common"
)

// SendFunc broadcasts one transaction.
type SendFunc func(ctx context.Context) (*contract.Pending, error)

// Track runs send, waits up to timeout for the receipt and reports each
// stage of op to rep. A reverted receipt is returned with its error.
func Track(ctx context.Context, rep Reporter, op Op, timeout time.Duration, send SendFunc) (*chain.Receipt, error) {
	if rep == nil {
		rep = Discard
	}

	p, err := send(ctx)
	if err != nil {
		rep.Report(Failed(op, common.Hash{}, err))
		return nil, err
	}
	rep.Report(Sent(op, p.Hash))

	r, err := p.Wait(ctx, timeout)
	if err != nil {
		rep.Report(Failed(op, p.Hash, err))
		return r, err
	}
	rep.Report(Confirmed(op, p.Hash, r.BlockNumber))
	return r, nil
}
