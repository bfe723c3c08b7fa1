package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/franco-bianco/swapdecode-go/swapdecode"
)

// Decodes a direct Raydium V4 trade. No router events here: the record comes
// out of the balance-diff classifier alone, so no price provider is needed.
func main() {
	rpcClient := rpc.New(rpc.MainNetBeta.RPC)
	txSig := solana.MustSignatureFromBase58("5kaAWK5X9DdMmsWm6skaUXLd6prFisuYJavd9B62A941nRGcrmwvncg3tRtUfn7TcMLsrrmjCChdEjK3sjxS6YG9")

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

	diff, err := swapdecode.ClassifyBalanceDiff(rec, swapdecode.RAYDIUM_AUTHORITY, swapdecode.WSOL_MINT)
	if err != nil {
		log.Fatalf("error classifying balances: %s", err)
	}
	if diff == nil {
		log.Fatal("no recognized pool in transaction")
	}

	data, _ := json.MarshalIndent(diff, "", "  ")
	fmt.Println(string(data))
}
