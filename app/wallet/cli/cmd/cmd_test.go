package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the wallet with the arguments and returns its output.
func execute(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	return strings.TrimSpace(out.String())
}

func TestWalletCommands(t *testing.T) {
	dir := t.TempDir()

	common := []string{
		"--account-path", filepath.Join(dir, "accounts"),
		"--store", "sqlite://" + filepath.Join(dir, "ledger.db"),
		"--genesis", filepath.Join("..", "..", "..", "..", "zblock", "genesis.json"),
	}
	run := func(args ...string) string {
		return execute(t, append(args, common...)...)
	}

	out := run("generate", "--account", "kennedy")
	require.Contains(t, out, "kennedy.ecdsa")
	kennedy := strings.Fields(out)[1]

	out = run("generate", "--account", "miner1")
	miner := strings.Fields(out)[1]
	assert.Equal(t, miner, run("address", "--account", "miner1"))

	out = run("mine", "--account", "miner1", "--workers", "2", "--empty")
	require.True(t, strings.HasPrefix(out, "block 1 "), out)

	txID := run("send", "--account", "miner1", "--to", "kennedy", "--value", "20")
	assert.Len(t, txID, 64)

	var b balance
	require.NoError(t, json.Unmarshal([]byte(run("balance", "--account", "miner1", "--address", kennedy)), &b))
	assert.Equal(t, kennedy, b.Account)
	assert.Equal(t, 20.0, b.Balance, "unconfirmed outputs are spendable")
	assert.Equal(t, 0.0, b.Confirmed)
	assert.Equal(t, 20.0, b.Received)

	require.NoError(t, json.Unmarshal([]byte(run("balance", "--account", "miner1", "--address", miner)), &b))
	assert.InDelta(t, 29.8, b.Balance, 1e-9)
	assert.InDelta(t, 50.0, b.Confirmed, 1e-9)
	assert.InDelta(t, 50.0, b.Spent, 1e-9)

	out = run("mine", "--account", "miner1")
	require.True(t, strings.HasPrefix(out, "block 2 "), out)

	require.NoError(t, json.Unmarshal([]byte(run("balance", "--account", "miner1", "--address", kennedy)), &b))
	assert.Equal(t, 20.0, b.Balance)
	assert.Equal(t, 20.0, b.Confirmed)
	assert.Equal(t, 0.0, b.Received)

	out = run("search", "--account", "miner1", txID)
	assert.Contains(t, out, txID)

	assert.Equal(t, "chain verified", run("verify", "--account", "miner1"))
}
