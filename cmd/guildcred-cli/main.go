// guildcred-cli is a command-line client for interacting with a guildcredd daemon.
package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/guildcred/guildcred/config"
	"github.com/guildcred/guildcred/internal/gateway"
	"github.com/guildcred/guildcred/internal/rpc"
	"github.com/guildcred/guildcred/internal/rpcclient"
	"github.com/guildcred/guildcred/pkg/types"
)

// keystoreDir returns the keystore path matching guildcredd's layout:
// <datadir>/<network>/keystore
func keystoreDir(dataDir, network string) string {
	return filepath.Join(dataDir, network, "keystore")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// Parse global flags that appear before the subcommand.
	rpcURL := "http://127.0.0.1:8657"
	dataDir := config.DefaultDataDir()
	network := "mainnet"

	// Scan for --rpc, --datadir, and --network before the subcommand.
	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--rpc" && len(args) > 1:
			rpcURL = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--rpc="):
			rpcURL = args[0][len("--rpc="):]
			args = args[1:]
		case args[0] == "--datadir" && len(args) > 1:
			dataDir = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--datadir="):
			dataDir = args[0][len("--datadir="):]
			args = args[1:]
		case args[0] == "--network" && len(args) > 1:
			network = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--network="):
			network = args[0][len("--network="):]
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	// Set address prefix based on network.
	if network == "testnet" {
		types.SetAddressPrefix(types.TestnetPrefix)
	} else {
		types.SetAddressPrefix(types.MainnetPrefix)
	}

	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	ksDir := keystoreDir(dataDir, network)
	client := rpcclient.New(rpcURL)
	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "status":
		cmdStatus(client)
	case "cred":
		cmdCred(client, cmdArgs)
	case "balance":
		cmdBalance(client, cmdArgs)
	case "mint":
		cmdMint(client, cmdArgs)
	case "admin-mint":
		cmdAdminMint(client, cmdArgs)
	case "batch-mint":
		cmdBatchMint(client, cmdArgs)
	case "transfer":
		cmdTransfer(client, cmdArgs)
	case "burn":
		cmdBurn(client, cmdArgs)
	case "guild":
		cmdGuild(client, cmdArgs)
	case "admin":
		cmdAdmin(client, cmdArgs)
	case "gateway":
		cmdGateway(client, cmdArgs, ksDir)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: guildcred-cli [global flags] <command> [flags]

Global flags:
  --rpc <url>         RPC endpoint (default: http://127.0.0.1:8657)
  --datadir <path>    Data directory (default: ~/.guildcred)
  --network <net>     mainnet (default) or testnet

Commands:
  status                          Show registry status
  cred <id>                       Show credential details
  balance <address>               Show credentials held by an address
  mint --to <addr> --uri <uri> [--ceramic <uri>] [--nonce <n> --sig <hex>]
                                  Mint with an authority-signed nonce;
                                  requests a voucher from the daemon when
                                  --nonce/--sig are omitted
  admin-mint --caller <addr> --to <addr> --uri <uri> [--ceramic <uri>]
                                  Mint directly as a privileged minter
  batch-mint --caller <addr> --recipients <file.json>
                                  Mint to multiple recipients (JSON file)
  transfer --caller <addr> --from <addr> --to <addr> --id <id> [--safe]
                                  Transfer a credential
  burn --caller <addr> --id <id>  Burn a credential

  guild add --caller <addr> --name <n> [--admins a,b,c]
                                  Register a guild
  guild info <index>              Show guild details
  guild list                      List registered guilds

  admin toggle-validity --caller <addr> --id <id>
  admin toggle-transfers --caller <addr>
  admin pause --caller <addr>
  admin unpause --caller <addr>
  admin grant --caller <addr> --role <admin|minter> --address <addr>
  admin revoke --caller <addr> --role <admin|minter> --address <addr>
  admin set-authority --caller <addr> --authority <addr>

  gateway init                    Create the authority keystore
  gateway address                 Show the stored authority address
  gateway sign <nonce>            Sign a nonce with the local keystore
  gateway issue                   Request a fresh voucher from the daemon
`)
}

// ── status ──────────────────────────────────────────────────────────────

func cmdStatus(client *rpcclient.Client) {
	info, err := client.GetInfo()
	if err != nil {
		fatal("registry_getInfo: %v", err)
	}

	fmt.Printf("Network:    %s\n", info.Network)
	fmt.Printf("Authority:  %s\n", info.Authority)
	fmt.Printf("Minted:     %d\n", info.TotalMinted)
	fmt.Printf("Guilds:     %d\n", info.GuildCount)
	fmt.Printf("Transfers:  %s\n", onOff(info.TransfersEnabled))
	fmt.Printf("Paused:     %v\n", info.Paused)
	fmt.Printf("Gateway:    %s\n", onOff(info.GatewayEnabled))
}

func onOff(v bool) string {
	if v {
		return "enabled"
	}
	return "disabled"
}

// ── cred ────────────────────────────────────────────────────────────────

func cmdCred(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: guildcred-cli cred <id>")
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fatal("invalid credential id: %v", err)
	}

	cred, err := client.GetCredential(id)
	if err != nil {
		fatal("cred_get: %v", err)
	}

	fmt.Printf("ID:       %d\n", cred.ID)
	fmt.Printf("Owner:    %s\n", cred.Owner)
	fmt.Printf("URI:      %s\n", cred.URI)
	if cred.CeramicURI != "" {
		fmt.Printf("Ceramic:  %s\n", cred.CeramicURI)
	}
	ts := time.Unix(cred.CreatedAt, 0).UTC()
	fmt.Printf("Created:  %s\n", ts.Format("2006-01-02 15:04:05 UTC"))
	fmt.Printf("Valid:    %v\n", cred.Valid)
}

// ── balance ─────────────────────────────────────────────────────────────

func cmdBalance(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: guildcred-cli balance <address>")
	}
	if _, err := types.ParseAddress(args[0]); err != nil {
		fatal("invalid address: %v", err)
	}

	balance, err := client.BalanceOf(args[0])
	if err != nil {
		fatal("cred_balanceOf: %v", err)
	}

	fmt.Printf("Address:  %s\n", balance.Address)
	fmt.Printf("Balance:  %d\n", balance.Balance)
	for _, id := range balance.IDs {
		fmt.Printf("  credential %d\n", id)
	}
}

// ── mint ────────────────────────────────────────────────────────────────

func cmdMint(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("mint", flag.ExitOnError)
	to := fs.String("to", "", "Recipient address")
	uri := fs.String("uri", "", "Metadata URI")
	ceramic := fs.String("ceramic", "", "Ceramic stream URI")
	nonce := fs.String("nonce", "", "Authority-signed nonce")
	sig := fs.String("sig", "", "Nonce signature (hex, 65 bytes)")
	fs.Parse(args)

	if *to == "" || *uri == "" {
		fatal("Usage: guildcred-cli mint --to <addr> --uri <uri> [--ceramic <uri>] [--nonce <n> --sig <hex>]")
	}
	if _, err := types.ParseAddress(*to); err != nil {
		fatal("invalid recipient address: %v", err)
	}
	if (*nonce == "") != (*sig == "") {
		fatal("--nonce and --sig must be provided together")
	}

	// No voucher supplied: ask a gateway-enabled daemon for one.
	if *nonce == "" {
		voucher, err := client.IssueVoucher()
		if err != nil {
			fatal("gateway_issueVoucher: %v", err)
		}
		*nonce = voucher.Nonce
		*sig = voucher.Signature
	}

	id, err := client.MintWithSignature(rpc.MintWithSignatureParam{
		Recipient:  *to,
		URI:        *uri,
		CeramicURI: *ceramic,
		Nonce:      *nonce,
		Signature:  *sig,
	})
	if err != nil {
		fatal("cred_mintWithSignature: %v", err)
	}
	fmt.Printf("Minted credential %d to %s\n", id, *to)
}

// ── admin-mint ──────────────────────────────────────────────────────────

func cmdAdminMint(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("admin-mint", flag.ExitOnError)
	caller := fs.String("caller", "", "Minter address")
	to := fs.String("to", "", "Recipient address")
	uri := fs.String("uri", "", "Metadata URI")
	ceramic := fs.String("ceramic", "", "Ceramic stream URI")
	fs.Parse(args)

	if *caller == "" || *to == "" || *uri == "" {
		fatal("Usage: guildcred-cli admin-mint --caller <addr> --to <addr> --uri <uri> [--ceramic <uri>]")
	}

	var result rpc.MintResult
	if err := client.Call("cred_adminMint", rpc.AdminMintParam{
		Caller:     *caller,
		Recipient:  *to,
		URI:        *uri,
		CeramicURI: *ceramic,
	}, &result); err != nil {
		fatal("cred_adminMint: %v", err)
	}
	fmt.Printf("Minted credential %d to %s\n", result.ID, *to)
}

// ── batch-mint ──────────────────────────────────────────────────────────

func cmdBatchMint(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("batch-mint", flag.ExitOnError)
	caller := fs.String("caller", "", "Minter address")
	recipientsFile := fs.String("recipients", "", "Path to JSON recipients file")
	fs.Parse(args)

	if *caller == "" || *recipientsFile == "" {
		fatal("Usage: guildcred-cli batch-mint --caller <addr> --recipients <file.json>")
	}

	data, err := os.ReadFile(*recipientsFile)
	if err != nil {
		fatal("read recipients file: %v", err)
	}

	type jsonRecipient struct {
		To         string `json:"to"`
		URI        string `json:"uri"`
		CeramicURI string `json:"ceramic_uri"`
	}
	var jsonRecipients []jsonRecipient
	if err := json.Unmarshal(data, &jsonRecipients); err != nil {
		fatal("parse recipients JSON: %v", err)
	}
	if len(jsonRecipients) == 0 {
		fatal("recipients file is empty")
	}

	params := rpc.BatchAdminMintParam{Caller: *caller}
	for _, r := range jsonRecipients {
		params.Recipients = append(params.Recipients, r.To)
		params.URIs = append(params.URIs, r.URI)
		params.CeramicURIs = append(params.CeramicURIs, r.CeramicURI)
	}

	var result rpc.BatchMintResult
	if err := client.Call("cred_batchAdminMint", params, &result); err != nil {
		fatal("cred_batchAdminMint: %v", err)
	}

	fmt.Printf("Minted %d credentials\n", len(result.IDs))
	for i, id := range result.IDs {
		fmt.Printf("  [%d] credential %d -> %s\n", i, id, jsonRecipients[i].To)
	}
}

// ── transfer ────────────────────────────────────────────────────────────

func cmdTransfer(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("transfer", flag.ExitOnError)
	caller := fs.String("caller", "", "Caller address")
	from := fs.String("from", "", "Current owner address")
	to := fs.String("to", "", "Recipient address")
	id := fs.Uint64("id", 0, "Credential ID")
	safe := fs.Bool("safe", false, "Apply recipient guards")
	fs.Parse(args)

	if *caller == "" || *from == "" || *to == "" {
		fatal("Usage: guildcred-cli transfer --caller <addr> --from <addr> --to <addr> --id <id> [--safe]")
	}

	if err := client.Call("cred_transfer", rpc.TransferParam{
		Caller: *caller,
		From:   *from,
		To:     *to,
		ID:     *id,
		Safe:   *safe,
	}, nil); err != nil {
		fatal("cred_transfer: %v", err)
	}
	fmt.Printf("Transferred credential %d to %s\n", *id, *to)
}

// ── burn ────────────────────────────────────────────────────────────────

func cmdBurn(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("burn", flag.ExitOnError)
	caller := fs.String("caller", "", "Caller address")
	id := fs.Uint64("id", 0, "Credential ID")
	fs.Parse(args)

	if *caller == "" {
		fatal("Usage: guildcred-cli burn --caller <addr> --id <id>")
	}

	if err := client.Call("cred_burn", rpc.BurnParam{Caller: *caller, ID: *id}, nil); err != nil {
		fatal("cred_burn: %v", err)
	}
	fmt.Printf("Burned credential %d\n", *id)
}

// ── guild ───────────────────────────────────────────────────────────────

func cmdGuild(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: guildcred-cli guild <add|info|list>")
	}

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("guild add", flag.ExitOnError)
		caller := fs.String("caller", "", "Admin address")
		name := fs.String("name", "", "Guild name")
		admins := fs.String("admins", "", "Comma-separated guild admin addresses")
		fs.Parse(args[1:])

		if *caller == "" || *name == "" {
			fatal("Usage: guildcred-cli guild add --caller <addr> --name <n> [--admins a,b,c]")
		}

		params := rpc.GuildAddParam{Caller: *caller, Name: *name}
		if *admins != "" {
			params.Admins = strings.Split(*admins, ",")
		}

		var result rpc.GuildResult
		if err := client.Call("guild_add", params, &result); err != nil {
			fatal("guild_add: %v", err)
		}
		fmt.Printf("Registered guild %d: %s\n", result.ID, result.Name)

	case "info":
		if len(args) < 2 {
			fatal("Usage: guildcred-cli guild info <index>")
		}
		index, err := strconv.ParseUint(args[1], 10, 16)
		if err != nil {
			fatal("invalid guild index: %v", err)
		}

		var result rpc.GuildResult
		if err := client.Call("guild_get", rpc.GuildGetParam{Index: uint16(index)}, &result); err != nil {
			fatal("guild_get: %v", err)
		}
		printGuild(&result)

	case "list":
		var count uint16
		if err := client.Call("guild_count", nil, &count); err != nil {
			fatal("guild_count: %v", err)
		}
		if count == 0 {
			fmt.Println("No guilds registered")
			return
		}
		for i := uint16(0); i < count; i++ {
			var result rpc.GuildResult
			if err := client.Call("guild_get", rpc.GuildGetParam{Index: i}, &result); err != nil {
				fatal("guild_get: %v", err)
			}
			fmt.Printf("[%d] %s (%d admins)\n", result.ID, result.Name, len(result.Admins))
		}

	default:
		fatal("Unknown guild subcommand: %s", args[0])
	}
}

func printGuild(g *rpc.GuildResult) {
	fmt.Printf("ID:      %d\n", g.ID)
	fmt.Printf("Name:    %s\n", g.Name)
	fmt.Printf("Admins:  %d\n", len(g.Admins))
	for _, a := range g.Admins {
		fmt.Printf("  %s\n", a)
	}
}

// ── admin ───────────────────────────────────────────────────────────────

func cmdAdmin(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: guildcred-cli admin <toggle-validity|toggle-transfers|pause|unpause|grant|revoke|set-authority>")
	}

	sub := args[0]
	subArgs := args[1:]

	switch sub {
	case "toggle-validity":
		fs := flag.NewFlagSet("admin toggle-validity", flag.ExitOnError)
		caller := fs.String("caller", "", "Admin address")
		id := fs.Uint64("id", 0, "Credential ID")
		fs.Parse(subArgs)
		if *caller == "" {
			fatal("Usage: guildcred-cli admin toggle-validity --caller <addr> --id <id>")
		}

		var result rpc.ToggleResult
		if err := client.Call("admin_toggleValidity", rpc.AdminIDParam{Caller: *caller, ID: *id}, &result); err != nil {
			fatal("admin_toggleValidity: %v", err)
		}
		fmt.Printf("Credential %d validity: %v\n", *id, result.Enabled)

	case "toggle-transfers":
		caller := callerFlag(sub, subArgs)
		var result rpc.ToggleResult
		if err := client.Call("admin_toggleTransfers", rpc.CallerParam{Caller: caller}, &result); err != nil {
			fatal("admin_toggleTransfers: %v", err)
		}
		fmt.Printf("Transfers: %s\n", onOff(result.Enabled))

	case "pause":
		caller := callerFlag(sub, subArgs)
		if err := client.Call("admin_pause", rpc.CallerParam{Caller: caller}, nil); err != nil {
			fatal("admin_pause: %v", err)
		}
		fmt.Println("Registry paused")

	case "unpause":
		caller := callerFlag(sub, subArgs)
		if err := client.Call("admin_unpause", rpc.CallerParam{Caller: caller}, nil); err != nil {
			fatal("admin_unpause: %v", err)
		}
		fmt.Println("Registry unpaused")

	case "grant", "revoke":
		fs := flag.NewFlagSet("admin "+sub, flag.ExitOnError)
		caller := fs.String("caller", "", "Admin address")
		role := fs.String("role", "", "Role name (admin or minter)")
		address := fs.String("address", "", "Target address")
		fs.Parse(subArgs)
		if *caller == "" || *role == "" || *address == "" {
			fatal("Usage: guildcred-cli admin %s --caller <addr> --role <admin|minter> --address <addr>", sub)
		}

		method := "admin_grantRole"
		verb := "Granted"
		if sub == "revoke" {
			method = "admin_revokeRole"
			verb = "Revoked"
		}
		if err := client.Call(method, rpc.RoleParam{Caller: *caller, Role: *role, Address: *address}, nil); err != nil {
			fatal("%s: %v", method, err)
		}
		fmt.Printf("%s role %q for %s\n", verb, *role, *address)

	case "set-authority":
		fs := flag.NewFlagSet("admin set-authority", flag.ExitOnError)
		caller := fs.String("caller", "", "Admin address")
		authority := fs.String("authority", "", "New authority address")
		fs.Parse(subArgs)
		if *caller == "" || *authority == "" {
			fatal("Usage: guildcred-cli admin set-authority --caller <addr> --authority <addr>")
		}

		if err := client.Call("admin_setAuthority", rpc.SetAuthorityParam{Caller: *caller, Authority: *authority}, nil); err != nil {
			fatal("admin_setAuthority: %v", err)
		}
		fmt.Printf("Authority set to %s\n", *authority)

	default:
		fatal("Unknown admin subcommand: %s", sub)
	}
}

func callerFlag(name string, args []string) string {
	fs := flag.NewFlagSet("admin "+name, flag.ExitOnError)
	caller := fs.String("caller", "", "Admin address")
	fs.Parse(args)
	if *caller == "" {
		fatal("Usage: guildcred-cli admin %s --caller <addr>", name)
	}
	return *caller
}

// ── gateway ─────────────────────────────────────────────────────────────

func cmdGateway(client *rpcclient.Client, args []string, ksDir string) {
	if len(args) < 1 {
		fatal("Usage: guildcred-cli gateway <init|address|sign|issue>")
	}

	switch args[0] {
	case "init":
		gatewayInit(ksDir)
	case "address":
		ks := openKeystore(ksDir)
		addr, err := ks.Address()
		if err != nil {
			fatal("read keystore: %v", err)
		}
		fmt.Println(addr)
	case "sign":
		if len(args) < 2 {
			fatal("Usage: guildcred-cli gateway sign <nonce>")
		}
		gatewaySign(ksDir, args[1])
	case "issue":
		voucher, err := client.IssueVoucher()
		if err != nil {
			fatal("gateway_issueVoucher: %v", err)
		}
		fmt.Printf("Nonce:      %s\n", voucher.Nonce)
		fmt.Printf("Signature:  %s\n", voucher.Signature)
	default:
		fatal("Unknown gateway subcommand: %s", args[0])
	}
}

func gatewayInit(ksDir string) {
	ks := openKeystore(ksDir)
	if ks.Exists() {
		fatal("authority keystore already exists at %s", ksDir)
	}

	mnemonic, err := gateway.GenerateMnemonic()
	if err != nil {
		fatal("generate mnemonic: %v", err)
	}
	seed, err := gateway.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		fatal("derive seed: %v", err)
	}

	signer, err := gateway.NewSigner(seed)
	if err != nil {
		fatal("derive authority key: %v", err)
	}
	address := signer.Address().String()
	signer.Zero()

	password, err := readPassword("Enter keystore passphrase: ")
	if err != nil {
		fatal("read passphrase: %v", err)
	}
	confirm, err := readPassword("Confirm passphrase: ")
	if err != nil {
		fatal("read passphrase: %v", err)
	}
	if !bytes.Equal(password, confirm) {
		fatal("passphrases do not match")
	}

	if err := ks.Create(seed, password, address, gateway.DefaultParams()); err != nil {
		fatal("create keystore: %v", err)
	}
	for i := range seed {
		seed[i] = 0
	}

	fmt.Printf("Authority address: %s\n\n", address)
	fmt.Println("Recovery mnemonic (write it down, it is shown only once):")
	fmt.Printf("\n  %s\n\n", mnemonic)
	fmt.Println("Configure the daemon with this authority and restart it with --gateway.")
}

func gatewaySign(ksDir, nonce string) {
	ks := openKeystore(ksDir)
	if !ks.Exists() {
		fatal("no authority keystore at %s (run: guildcred-cli gateway init)", ksDir)
	}

	password, err := readPassword("Enter keystore passphrase: ")
	if err != nil {
		fatal("read passphrase: %v", err)
	}
	seed, err := ks.Load(password)
	if err != nil {
		fatal("unlock keystore: %v", err)
	}

	signer, err := gateway.NewSigner(seed)
	for i := range seed {
		seed[i] = 0
	}
	if err != nil {
		fatal("derive authority key: %v", err)
	}
	defer signer.Zero()

	sig, err := signer.SignNonce(nonce)
	if err != nil {
		fatal("sign nonce: %v", err)
	}
	fmt.Printf("Nonce:      %s\n", nonce)
	fmt.Printf("Signature:  %s\n", hex.EncodeToString(sig))
}

func openKeystore(ksDir string) *gateway.Keystore {
	ks, err := gateway.NewKeystore(ksDir)
	if err != nil {
		fatal("open keystore: %v", err)
	}
	return ks
}

// ── Password helper ─────────────────────────────────────────────────────

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
