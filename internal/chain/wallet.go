package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/yolodolo42/ledgers/internal/network"
)

// ErrTransferFailed is returned when a mined transfer has status 0.
var ErrTransferFailed = errors.New("transfer reverted")

// Wallet is an externally managed Ethereum wallet: it owns the account and
// the key, and reports which chain it is connected to.
type Wallet interface {
	// CurrentAccount returns the selected account, or "" when none is unlocked.
	CurrentAccount(ctx context.Context) (string, error)

	// CurrentNetwork returns the chain name (see network.DefaultChains), or
	// "private" for an unknown chain id.
	CurrentNetwork(ctx context.Context) (string, error)

	// PersonalSign asks the wallet to personal-sign message as address.
	PersonalSign(ctx context.Context, message []byte, address string) ([]byte, error)

	// SendTransfer sends amount wei from one address to another and returns
	// once the transfer is mined.
	SendTransfer(ctx context.Context, from, to string, amount *big.Int) (string, error)
}

// RPCWallet drives a wallet exposed over JSON-RPC, such as a node with
// managed accounts or a signer bridge.
type RPCWallet struct {
	rpc    *rpc.Client
	client *ethclient.Client

	// PollInterval paces receipt polling in SendTransfer.
	PollInterval time.Duration

	mu sync.Mutex
}

var _ Wallet = (*RPCWallet)(nil)

// DialWallet connects to a wallet endpoint.
func DialWallet(ctx context.Context, rawURL string) (*RPCWallet, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	c, err := rpc.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to wallet: %w", err)
	}
	return NewRPCWallet(c), nil
}

// NewRPCWallet wraps an existing RPC client.
func NewRPCWallet(c *rpc.Client) *RPCWallet {
	return &RPCWallet{
		rpc:          c,
		client:       ethclient.NewClient(c),
		PollInterval: 2 * time.Second,
	}
}

func (w *RPCWallet) CurrentAccount(ctx context.Context) (string, error) {
	var accounts []common.Address
	if err := w.rpc.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", nil
	}
	return accounts[0].Hex(), nil
}

func (w *RPCWallet) CurrentNetwork(ctx context.Context) (string, error) {
	id, err := w.client.ChainID(ctx)
	if err != nil {
		return "", err
	}
	return network.ChainNameByID(id), nil
}

func (w *RPCWallet) PersonalSign(ctx context.Context, message []byte, address string) ([]byte, error) {
	var sig hexutil.Bytes
	if err := w.rpc.CallContext(ctx, &sig, "personal_sign", hexutil.Bytes(message), common.HexToAddress(address)); err != nil {
		return nil, err
	}
	return sig, nil
}

type transferArgs struct {
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to"`
	Value *hexutil.Big    `json:"value"`
}

func (w *RPCWallet) SendTransfer(ctx context.Context, from, to string, amount *big.Int) (string, error) {
	// One outstanding transfer at a time keeps wallet nonces ordered.
	w.mu.Lock()
	defer w.mu.Unlock()

	recipient := common.HexToAddress(to)
	args := transferArgs{
		From:  common.HexToAddress(from),
		To:    &recipient,
		Value: (*hexutil.Big)(amount),
	}

	var hash common.Hash
	if err := w.rpc.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return "", err
	}

	if err := w.waitMined(ctx, hash); err != nil {
		return hash.Hex(), err
	}
	return hash.Hex(), nil
}

type receiptStatus struct {
	Status hexutil.Uint64 `json:"status"`
}

func (w *RPCWallet) waitMined(ctx context.Context, hash common.Hash) error {
	interval := w.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		var receipt *receiptStatus
		if err := w.rpc.CallContext(ctx, &receipt, "eth_getTransactionReceipt", hash); err != nil {
			return fmt.Errorf("failed to get receipt for %s: %w", hash.Hex(), err)
		}
		if receipt != nil {
			if receipt.Status == 0 {
				return ErrTransferFailed
			}
			return nil
		}
		// A null receipt means not yet mined.

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *RPCWallet) Close() {
	w.rpc.Close()
}
