package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/franco-bianco/swapdecode-go/swapdecode"
	"github.com/franco-bianco/swapdecode-go/tokenmeta"
)

func main() {
	rpcClient := rpc.New(rpc.MainNetBeta.RPC)
	txSig := solana.MustSignatureFromBase58("DBctXdTTtvn7Rr4ikeJFCBz4AtHmJRyjHGQFpE59LuY3Shb7UcRJThAXC7TGRXXskXuu9LEm9RqtU6mWxe5cjPF")

	var maxTxVersion uint64 = 0
	tx, err := rpcClient.GetTransaction(
		context.TODO(),
		txSig,
		&rpc.GetTransactionOpts{
			Commitment:                     rpc.CommitmentConfirmed,
			MaxSupportedTransactionVersion: &maxTxVersion,
		},
	)
	if err != nil {
		log.Fatalf("error getting tx: %s", err)
	}

	rec, err := swapdecode.NewRecordFromRPC(tx)
	if err != nil {
		log.Fatalf("error converting tx: %s", err)
	}

	decoder := swapdecode.NewDecoder(tokenmeta.NewService(rpcClient, nil), nil)
	record, err := decoder.DecodeSwap(context.TODO(), rec)
	if err != nil {
		log.Fatalf("error decoding swap: %s", err)
	}

	data, _ := json.MarshalIndent(record, "", "  ")
	fmt.Println(string(data))
}
