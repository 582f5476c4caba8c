// Package transfer executes a validated transfer intent against a vault
// snapshot, driving exactly one of two mutually exclusive protocols to a
// terminal outcome: the classic multi-signature broadcast, or the sponsored
// account-abstraction user-operation flow with receipt polling. Every state
// transition is surfaced to the caller in order.
package transfer

import (
	"context"
	"time"

	"github.com/nocturnelabs/vaultdesk/internal/chains"
	"github.com/nocturnelabs/vaultdesk/internal/pkg/logger"
	"github.com/nocturnelabs/vaultdesk/internal/pkg/x/chflow"
	"github.com/nocturnelabs/vaultdesk/internal/vaultsync"
	"github.com/nocturnelabs/vaultdesk/internal/wallet"
)

// defaultReceiptPollInterval is the fixed delay between receipt requests while
// a gasless transfer is in the polling state.
const defaultReceiptPollInterval = 3 * time.Second

// transitionHandler observes one state transition. Handlers run synchronously
// on the transfer's own flow, so the next state is never entered before the
// handler returns.
type transitionHandler func(ctx context.Context, t Transition)

// Service executes transfer intents.
type Service interface {
	// Execute drives the intent against the snapshot to a terminal state,
	// selecting the protocol from the snapshot's account-abstraction flag.
	//
	// Preconditions checked before any network call: the intent is
	// well-formed with a positive amount, and the transport's signer is among
	// the snapshot's owners (ErrSignerNotOwner otherwise).
	//
	// The transport must be freshly acquired for this transfer; two
	// concurrent transfers must never share one, or one transfer's chain
	// switch could race the other's in-flight calls.
	Execute(ctx context.Context, intent Intent, snapshot vaultsync.Snapshot, transport wallet.Transport) (Result, error)
}

type service struct {
	chains     chains.Registry
	encoder    TransferEncoder
	vaults     VaultExecutorFactory
	operations OperationClientFactory

	pollInterval      time.Duration
	transitionHandler transitionHandler
	transitionCh      chan<- Transition
}

var _ Service = (*service)(nil)

type config struct {
	pollInterval      time.Duration
	transitionHandler transitionHandler
	transitionCh      chan<- Transition
}

// Option configures the executor.
type Option func(*config)

// WithReceiptPollInterval overrides the fixed delay between receipt polls.
func WithReceiptPollInterval(d time.Duration) Option {
	return func(c *config) {
		c.pollInterval = d
	}
}

// WithTransitionHandler replaces the default (logging) transition observer.
func WithTransitionHandler(h transitionHandler) Option {
	return func(c *config) {
		c.transitionHandler = h
	}
}

// WithTransitionChannel additionally delivers every transition to the given
// channel, in order. Delivery blocks until the channel accepts the value or
// the transfer's context is done, so a subscriber never misses a transition.
func WithTransitionChannel(ch chan<- Transition) Option {
	return func(c *config) {
		c.transitionCh = ch
	}
}

// defaultOnTransition logs each state transition.
func defaultOnTransition(ctx context.Context, t Transition) {
	if t.Err != nil {
		logger.Error(ctx, "transfer failed",
			"transfer.status", string(t.Status),
			"error", t.Err,
		)
		return
	}

	logger.Info(ctx, "transfer state changed",
		"transfer.status", string(t.Status),
		"transfer.tx_hash", t.TxHash,
		"transfer.operation_hash", t.OperationHash,
	)
}

// emit delivers one transition to the configured handler and, when set, the
// transition channel.
func (s *service) emit(ctx context.Context, t Transition) {
	s.transitionHandler(ctx, t)

	if s.transitionCh != nil {
		chflow.Send(ctx, s.transitionCh, t)
	}
}

// New creates a transfer executor over the given chain registry, asset
// encoder, and per-path protocol client factories.
func New(cr chains.Registry, encoder TransferEncoder, vaults VaultExecutorFactory, operations OperationClientFactory, opts ...Option) *service {
	cfg := config{
		pollInterval:      defaultReceiptPollInterval,
		transitionHandler: defaultOnTransition,
		transitionCh:      nil,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		chains:            cr,
		encoder:           encoder,
		vaults:            vaults,
		operations:        operations,
		pollInterval:      cfg.pollInterval,
		transitionHandler: cfg.transitionHandler,
		transitionCh:      cfg.transitionCh,
	}
}
