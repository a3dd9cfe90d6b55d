package rowstore

import (
	"errors"

	"github.com/wildforest/ticketsync/internal/domain/ticket"
	"github.com/wildforest/ticketsync/pkg/metrics"
)

// Sentinel kinds for this package.
var (
	ErrRowOutOfRange = errors.New("row out of range")
	ErrNoHeader      = errors.New("sheet has no header row")
)

// classify makes sure every error leaving the client carries a remote kind.
// Errors a grid did not classify, timeouts included, count as unavailable.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ticket.ErrRemoteUnavailable) || errors.Is(err, ticket.ErrRemoteRejected) {
		return err
	}
	return ticket.WrapKind(op, ticket.ErrRemoteUnavailable, err)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ticket.ErrRemoteRejected):
		return metrics.OutcomeRejected
	case errors.Is(err, ticket.ErrRemoteUnavailable):
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeError
	}
}
