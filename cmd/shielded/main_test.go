// Copyright 2024 The go-shielded Authors
// This file is part of go-shielded.
//
// go-shielded is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-shielded is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-shielded. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/go-shielded/common"
	"github.com/probechain/go-shielded/crypto"
	"github.com/probechain/go-shielded/ledger"
	"github.com/probechain/go-shielded/params"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

const testProgram = `program token.aleo;

interface point:
    x as field;
    y as field;

record token:
    owner as address.private;
    balance as u64.private;
    amount as u64.public;
`

// runShielded runs the CLI with args and returns what it wrote.
func runShielded(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{clientIdentifier, "--verbosity", "0"}, args...))
	return out.String(), err
}

func writeProgram(t *testing.T) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "token.aleo")
	require.NoError(t, os.WriteFile(file, []byte(testProgram), 0644))
	return file
}

func TestKeygenFromMnemonic(t *testing.T) {
	first, err := runShielded(t, "keygen", "--mnemonic", testMnemonic)
	require.NoError(t, err)
	second, err := runShielded(t, "keygen", "--mnemonic", testMnemonic)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	pk, err := crypto.PrivateKeyFromMnemonic(params.Testnet, testMnemonic, "")
	require.NoError(t, err)
	addr, err := pk.Address()
	require.NoError(t, err)
	assert.Contains(t, first, pk.String())
	assert.Contains(t, first, addr.String())

	other, err := runShielded(t, "keygen", "--mnemonic", testMnemonic, "--password", "secret")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	_, err = runShielded(t, "keygen", "--mnemonic", "not a mnemonic")
	assert.Error(t, err)
	_, err = runShielded(t, "keygen", "--mnemonic", testMnemonic, "--new-mnemonic")
	assert.Error(t, err)
}

func TestKeygenRandom(t *testing.T) {
	a, err := runShielded(t, "keygen")
	require.NoError(t, err)
	b, err := runShielded(t, "keygen")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "aleokey1")

	fresh, err := runShielded(t, "keygen", "--new-mnemonic")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(fresh, "Mnemonic:"), fresh)
}

func TestCastCommand(t *testing.T) {
	out, err := runShielded(t, "cast", "cast  r0   r1.x into r2 as point.private")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "cast r0 r1.x into r2 as point.private", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "0x0000"), lines[1])

	decoded, err := runShielded(t, "cast", "--decode", lines[1])
	require.NoError(t, err)
	assert.Equal(t, lines[0], strings.TrimSpace(decoded))

	_, err = runShielded(t, "cast", "cast r0 into r1")
	assert.Error(t, err)
	_, err = runShielded(t, "cast", "--decode", "0x7f00")
	assert.Error(t, err)
	_, err = runShielded(t, "cast")
	assert.Error(t, err)
}

func TestEvalCommand(t *testing.T) {
	file := writeProgram(t)

	out, err := runShielded(t, "eval", "--program", file, "cast 1field 2field into r0 as point.public")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "1field")
	assert.Contains(t, lines[0], "2field")
	assert.Equal(t, "point", lines[1])

	_, err = runShielded(t, "eval", "--program", file, "cast 1field 2u8 into r0 as point.public")
	assert.Error(t, err)
	_, err = runShielded(t, "eval", "--program", file, "cast r5 2field into r0 as point.public")
	assert.Error(t, err)
	_, err = runShielded(t, "eval", "cast 1field 2field into r0 as point.public")
	assert.Error(t, err)
}

func TestRecordsLifecycle(t *testing.T) {
	file := writeProgram(t)
	datadir := filepath.Join(t.TempDir(), "ledger")

	pk, err := crypto.PrivateKeyFromSeed(params.Testnet, common.Uint64ToField(7))
	require.NoError(t, err)
	vk, err := pk.ViewKey()
	require.NoError(t, err)
	addr, err := vk.Address()
	require.NoError(t, err)

	out, err := runShielded(t, "--datadir", datadir, "records", "add", "--program", file,
		"cast "+addr.String()+" 1500000u64 9u64 into r0 as token.record")
	require.NoError(t, err)
	cm := strings.TrimSpace(out)
	require.True(t, strings.HasPrefix(cm, "0x"), cm)

	list := func(filter string) string {
		out, err := runShielded(t, "--datadir", datadir, "records", "list",
			"--viewkey", vk.String(), "--privatekey", pk.String(), "--filter", filter)
		require.NoError(t, err, filter)
		return out
	}
	unspent := list("unspent")
	assert.Contains(t, unspent, cm)
	assert.Contains(t, unspent, "1.500000")
	assert.NotContains(t, list("spent"), cm)

	_, err = runShielded(t, "--datadir", datadir, "records", "spend", "--privatekey", pk.String(), cm)
	require.NoError(t, err)

	for _, filter := range []string{"spent", "slow-spent", "all"} {
		assert.Contains(t, list(filter), cm, filter)
	}
	for _, filter := range []string{"unspent", "slow-unspent"} {
		assert.NotContains(t, list(filter), cm, filter)
	}

	_, err = runShielded(t, "--datadir", datadir, "records", "spend", "--privatekey", pk.String(), common.Uint64ToField(1).Hex())
	assert.Error(t, err)
	_, err = runShielded(t, "--datadir", datadir, "records", "list", "--viewkey", vk.String(), "--filter", "slow-spent")
	assert.Error(t, err)
	_, err = runShielded(t, "records", "list", "--viewkey", vk.String())
	assert.Error(t, err)
}

func TestDumpConfig(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.toml")
	_, err := runShielded(t, "dumpconfig", file)
	require.NoError(t, err)

	var cfg shieldedConfig
	require.NoError(t, loadConfig(file, &cfg))
	assert.Equal(t, *params.Testnet, cfg.Network)
	assert.Equal(t, ledger.DefaultConfig, cfg.Ledger)

	// A config file feeds back into the commands.
	cfg.Ledger.Workers = 3
	out, err := tomlSettings.Marshal(&cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(file, out, 0644))
	dumped, err := runShielded(t, "--config", file, "dumpconfig")
	require.NoError(t, err)
	assert.Contains(t, dumped, "Workers = 3")

	require.NoError(t, os.WriteFile(file, []byte("[Ledger]\nWorkers = 0\n"), 0644))
	_, err = runShielded(t, "--config", file, "dumpconfig")
	assert.Error(t, err)
	require.NoError(t, os.WriteFile(file, []byte("[Ledger]\nUnknown = 1\n"), 0644))
	_, err = runShielded(t, "--config", file, "dumpconfig")
	assert.Error(t, err)
}
