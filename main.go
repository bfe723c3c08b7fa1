package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/franco-bianco/swapdecode-go/stream"
	"github.com/franco-bianco/swapdecode-go/swapdecode"
	"github.com/franco-bianco/swapdecode-go/tokenmeta"
)

/*
Usage:
  swapdecode <signature>   decode one transaction and print the swap record
  swapdecode               follow the router live and print every swap

Env (.env is loaded when present):
  RPC_ENDPOINT            default: mainnet-beta public RPC
  RPC_WEBSOCKET_ENDPOINT  default: mainnet-beta public websocket
  PRICE_API_BASE          default: https://api.jup.ag

Example transactions:
- Simple route: DBctXdTTtvn7Rr4ikeJFCBz4AtHmJRyjHGQFpE59LuY3Shb7UcRJThAXC7TGRXXskXuu9LEm9RqtU6mWxe5cjPF
- Multi-hop with fee: 46Jp5EEUrmdCVcE3jeewqUmsMHhqiWWtj243UZNDFZ3mmma6h2DF4AkgPE9ToRYVLVrfKQCJphrvxbNk68Lub9vw
- Raydium direct (balance-diff path): 5kaAWK5X9DdMmsWm6skaUXLd6prFisuYJavd9B62A941nRGcrmwvncg3tRtUfn7TcMLsrrmjCChdEjK3sjxS6YG9
*/

func main() {
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})

	rpcEndpoint := os.Getenv("RPC_ENDPOINT")
	if rpcEndpoint == "" {
		rpcEndpoint = rpc.MainNetBeta.RPC
	}
	wsEndpoint := os.Getenv("RPC_WEBSOCKET_ENDPOINT")
	if wsEndpoint == "" {
		wsEndpoint = rpc.MainNetBeta.WS
	}

	rpcClient := rpc.New(rpcEndpoint)
	provider := tokenmeta.NewService(rpcClient, log)
	decoder := swapdecode.NewDecoder(provider, log)

	if len(os.Args) > 1 {
		if err := decodeOne(rpcClient, decoder, os.Args[1]); err != nil {
			log.Fatalf("decode failed: %s", err)
		}
		return
	}

	follow(rpcClient, wsEndpoint, decoder, log)
}

func decodeOne(rpcClient *rpc.Client, decoder *swapdecode.Decoder, sig string) error {
	txSig, err := solana.SignatureFromBase58(sig)
	if err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}

	ctx := context.Background()
	var maxTxVersion uint64 = 0
	tx, err := rpcClient.GetTransaction(
		ctx,
		txSig,
		&rpc.GetTransactionOpts{
			Commitment:                     rpc.CommitmentConfirmed,
			MaxSupportedTransactionVersion: &maxTxVersion,
		},
	)
	if err != nil {
		return fmt.Errorf("error getting tx: %w", err)
	}

	rec, err := swapdecode.NewRecordFromRPC(tx)
	if err != nil {
		return err
	}

	record, err := decoder.DecodeSwap(ctx, rec)
	if err != nil {
		return err
	}

	data, _ := json.MarshalIndent(record, "", "  ")
	fmt.Println(string(data))
	return nil
}

func follow(rpcClient *rpc.Client, wsEndpoint string, decoder *swapdecode.Decoder, log *logrus.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := func(ctx context.Context, rec *swapdecode.TransactionRecord) error {
		record, err := decoder.DecodeSwap(ctx, rec)
		if err != nil {
			// Not every mention is a trade.
			if errors.Is(err, swapdecode.ErrNoSwapFound) {
				return nil
			}
			return err
		}
		data, _ := json.MarshalIndent(record, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	sub := stream.NewSubscriber(rpcClient, wsEndpoint, swapdecode.JUPITER_V6_PROGRAM_ID, handler, log)
	if err := sub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("stream stopped: %s", err)
	}
}
