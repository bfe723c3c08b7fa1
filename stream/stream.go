// Package stream follows a program's transactions live: it subscribes to log
// mentions over websocket, fetches each mentioned transaction, and hands the
// normalized record to a caller-supplied handler.
package stream

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/sirupsen/logrus"

	"github.com/franco-bianco/swapdecode-go/swapdecode"
)

const (
	retryBaseDelay = 5 * time.Second
	retryMaxDelay  = 60 * time.Second
)

// Handler receives one normalized transaction record. Handler errors are
// logged and isolated; one bad transaction never stops the stream.
type Handler func(ctx context.Context, rec *swapdecode.TransactionRecord) error

// Subscriber is a reconnecting log subscription for one program. Each
// connection lifecycle moves through connecting, open, and closed-awaiting-
// retry; Run drives the cycle until its context is cancelled.
type Subscriber struct {
	rpcClient  *rpc.Client
	wsEndpoint string
	program    solana.PublicKey
	commitment rpc.CommitmentType
	handler    Handler
	log        *logrus.Logger
}

func NewSubscriber(rpcClient *rpc.Client, wsEndpoint string, program solana.PublicKey, handler Handler, log *logrus.Logger) *Subscriber {
	if log == nil {
		log = logrus.New()
	}
	return &Subscriber{
		rpcClient:  rpcClient,
		wsEndpoint: wsEndpoint,
		program:    program,
		commitment: rpc.CommitmentConfirmed,
		handler:    handler,
		log:        log,
	}
}

// Run blocks until ctx is cancelled. A dropped connection is retried with
// bounded exponential backoff; a successful session resets the backoff.
func (s *Subscriber) Run(ctx context.Context) error {
	delay := retryBaseDelay

	for {
		err := s.runSession(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.log.Warnf("subscription to %s dropped: %v, retrying in %s", s.program, err, delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > retryMaxDelay {
			delay = retryMaxDelay
		}
	}
}

// runSession holds one websocket connection open and pumps notifications
// until it fails or ctx is cancelled.
func (s *Subscriber) runSession(ctx context.Context) error {
	s.log.Infof("connecting to %s", s.wsEndpoint)

	client, err := ws.Connect(ctx, s.wsEndpoint)
	if err != nil {
		return err
	}
	defer client.Close()

	sub, err := client.LogsSubscribeMentions(s.program, s.commitment)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	s.log.Infof("subscribed to %s mentions", s.program)

	for {
		notification, err := sub.Recv(ctx)
		if err != nil {
			return err
		}
		if notification == nil {
			return errors.New("subscription closed")
		}
		if notification.Value.Err != nil {
			// Failed transactions hold no trade.
			continue
		}

		if err := s.dispatch(ctx, notification.Value.Signature); err != nil {
			s.log.Warnf("failed to process %s: %v", notification.Value.Signature, err)
		}
	}
}

func (s *Subscriber) dispatch(ctx context.Context, signature solana.Signature) error {
	rec, err := s.fetchRecord(ctx, signature)
	if err != nil {
		return err
	}
	if rec.Failed {
		return nil
	}
	return s.handler(ctx, rec)
}

// fetchRecord pulls the full transaction by signature. The subscription only
// carries logs; amounts and balances need the real transaction body.
func (s *Subscriber) fetchRecord(ctx context.Context, signature solana.Signature) (*swapdecode.TransactionRecord, error) {
	maxVersion := uint64(0)
	res, err := s.rpcClient.GetTransaction(ctx, signature, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     s.commitment,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return nil, err
	}

	rec, err := swapdecode.NewRecordFromRPC(res)
	if err != nil {
		return nil, err
	}
	rec.Signature = signature
	return rec, nil
}
