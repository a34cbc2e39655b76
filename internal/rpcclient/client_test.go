package rpcclient

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/guildcred/guildcred/internal/registry"
	"github.com/guildcred/guildcred/internal/rpc"
	"github.com/guildcred/guildcred/internal/storage"
	"github.com/guildcred/guildcred/pkg/crypto"
	"github.com/guildcred/guildcred/pkg/types"
)

type testEnv struct {
	client    *Client
	authority *crypto.PrivateKey
	minter    types.Address
	alice     types.Address
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	authority, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	minter := types.Address{0x41}
	alice := types.Address{0xA1}

	reg, err := registry.Open(storage.NewMemory(), registry.Params{
		Authority: authority.Address(),
		Admins:    []types.Address{minter},
		Minters:   []types.Address{minter},
		Clock:     func() time.Time { return time.Unix(1700000000, 0) },
		Logger:    zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}

	// Create and start RPC server on random port.
	srv := rpc.New("127.0.0.1:0", reg, "testnet")
	if err := srv.Start(); err != nil {
		t.Fatalf("start rpc: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })

	return &testEnv{
		client:    New("http://" + srv.Addr() + "/"),
		authority: authority,
		minter:    minter,
		alice:     alice,
	}
}

func TestClient_GetInfo(t *testing.T) {
	env := setupTestEnv(t)

	info, err := env.client.GetInfo()
	if err != nil {
		t.Fatalf("GetInfo error: %v", err)
	}
	if info.Network != "testnet" {
		t.Errorf("network = %q, want testnet", info.Network)
	}
	if info.Authority != env.authority.Address().String() {
		t.Errorf("authority = %q", info.Authority)
	}
	if info.TotalMinted != 0 {
		t.Errorf("total minted = %d, want 0", info.TotalMinted)
	}
}

func TestClient_MintAndQuery(t *testing.T) {
	env := setupTestEnv(t)

	sig, err := env.authority.SignMessage([]byte("client-nonce"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	id, err := env.client.MintWithSignature(rpc.MintWithSignatureParam{
		Recipient:  env.alice.String(),
		URI:        "ipfs://meta",
		CeramicURI: "ceramic://stream",
		Nonce:      "client-nonce",
		Signature:  hex.EncodeToString(sig),
	})
	if err != nil {
		t.Fatalf("MintWithSignature error: %v", err)
	}
	if id != 0 {
		t.Errorf("id = %d, want 0", id)
	}

	cred, err := env.client.GetCredential(id)
	if err != nil {
		t.Fatalf("GetCredential error: %v", err)
	}
	if cred.Owner != env.alice.String() || cred.URI != "ipfs://meta" {
		t.Errorf("credential = %+v", cred)
	}

	balance, err := env.client.BalanceOf(env.alice.String())
	if err != nil {
		t.Fatalf("BalanceOf error: %v", err)
	}
	if balance.Balance != 1 {
		t.Errorf("balance = %d, want 1", balance.Balance)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.client.GetCredential(42)
	if err == nil {
		t.Fatal("expected error for missing credential")
	}
	rpcErr, ok := err.(*RPCError)
	if !ok {
		t.Fatalf("expected RPCError, got %T: %v", err, err)
	}
	if rpcErr.Code != rpc.CodeNotFound {
		t.Errorf("error code = %d, want %d", rpcErr.Code, rpc.CodeNotFound)
	}
}

func TestClient_Call_InvalidEndpoint(t *testing.T) {
	client := New("http://127.0.0.1:1/") // port 1, should refuse

	if _, err := client.GetInfo(); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestClient_Call_MethodNotFound(t *testing.T) {
	env := setupTestEnv(t)

	err := env.client.Call("nonexistent_method", nil, nil)
	if err == nil {
		t.Fatal("expected error for unknown method")
	}
	rpcErr, ok := err.(*RPCError)
	if !ok {
		t.Fatalf("expected RPCError, got %T: %v", err, err)
	}
	if rpcErr.Code != -32601 {
		t.Errorf("error code = %d, want -32601", rpcErr.Code)
	}
}
