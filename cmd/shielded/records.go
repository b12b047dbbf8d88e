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
	"errors"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/go-shielded/common"
	"github.com/probechain/go-shielded/crypto"
	"github.com/probechain/go-shielded/ledger"
	"github.com/probechain/go-shielded/ledgerdb/leveldb"
	"github.com/probechain/go-shielded/log"
	"github.com/probechain/go-shielded/params"
	"github.com/probechain/go-shielded/program"
	"github.com/probechain/go-shielded/record"
)

var (
	viewKeyFlag = cli.StringFlag{
		Name:  "viewkey",
		Usage: "View key (aleoview1...) of the account to scan for",
	}
	privateKeyFlag = cli.StringFlag{
		Name:  "privatekey",
		Usage: "Private key (aleokey1...) of the spending account",
	}
	filterFlag = cli.StringFlag{
		Name:  "filter",
		Usage: "Record filter: all, spent, unspent, slow-spent or slow-unspent",
		Value: "unspent",
	}

	recordsCommand = cli.Command{
		Name:      "records",
		Usage:     "Manage the records of a ledger",
		ArgsUsage: "",
		Category:  "LEDGER COMMANDS",
		Description: `
The records commands operate on the LevelDB ledger in --datadir.`,
		Subcommands: []cli.Command{
			{
				Action:    addRecord,
				Name:      "add",
				Usage:     "Encrypt a record produced by a cast and store it",
				ArgsUsage: "<instruction>",
				Flags: []cli.Flag{
					programFlag,
				},
				Description: `
Evaluates a cast into a record type over literal operands, encrypts the record
to its owner and prints the commitment it is stored under.`,
			},
			{
				Action:    listRecords,
				Name:      "list",
				Usage:     "List the records owned by a view key",
				ArgsUsage: " ",
				Flags: []cli.Flag{
					viewKeyFlag,
					privateKeyFlag,
					filterFlag,
				},
				Description: `
Scans the ledger for records owned by --viewkey. The slow filters derive
serial numbers and need --privatekey as well.`,
			},
			{
				Action:    spendRecord,
				Name:      "spend",
				Usage:     "Mark a record as spent",
				ArgsUsage: "<commitment>",
				Flags: []cli.Flag{
					privateKeyFlag,
				},
			},
		},
	}
)

// Database handles and cache of the ledger store, in megabytes and files.
const (
	ledgerCache   = 16
	ledgerHandles = 16
)

// openLedger opens the ledger in the configured data directory.
func openLedger(cfg *shieldedConfig) (*ledger.Ledger, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("missing --%s", dataDirFlag.Name)
	}
	db, err := leveldb.New(cfg.DataDir, ledgerCache, ledgerHandles, "shielded/db/ledger/", false)
	if err != nil {
		return nil, err
	}
	l, err := ledger.New(&cfg.Network, db, &cfg.Ledger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func privateKeyArg(ctx *cli.Context, net *params.Network) (*crypto.PrivateKey, error) {
	s := ctx.String(privateKeyFlag.Name)
	if s == "" {
		return nil, nil
	}
	return crypto.ParsePrivateKey(net, s)
}

func addRecord(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	prog, err := loadProgram(ctx, &cfg.Network)
	if err != nil {
		return err
	}
	text, err := instructionArg(ctx)
	if err != nil {
		return err
	}
	value, _, err := evaluate(prog, text)
	if err != nil {
		return err
	}
	rec, ok := value.(*program.Record)
	if !ok {
		return fmt.Errorf("instruction produced %s, not a record", value)
	}
	c, err := record.Encrypt(&cfg.Network, rec, nil)
	if err != nil {
		return err
	}

	l, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer l.Close()
	cm, err := l.AddRecord(c)
	if err != nil {
		return err
	}
	log.Info("Stored record", "commitment", cm)
	fmt.Fprintln(ctx.App.Writer, cm.Hex())
	return nil
}

func listRecords(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	if !ctx.IsSet(viewKeyFlag.Name) {
		return fmt.Errorf("missing --%s", viewKeyFlag.Name)
	}
	vk, err := crypto.ParseViewKey(&cfg.Network, ctx.String(viewKeyFlag.Name))
	if err != nil {
		return err
	}
	pk, err := privateKeyArg(ctx, &cfg.Network)
	if err != nil {
		return err
	}
	filter, ok := ledger.ParseFilter(ctx.String(filterFlag.Name), pk)
	if !ok {
		return fmt.Errorf("invalid filter %q", ctx.String(filterFlag.Name))
	}

	l, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer l.Close()
	it, err := l.FindRecords(vk, filter)
	if err != nil {
		return err
	}
	defer it.Release()

	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"Commitment", "Owner", "Balance", "Entries"})
	for it.Next() {
		rec := it.Record()
		owner, _ := program.OwnerAddress(rec.Owner())
		balance, _ := program.BalanceValue(rec.Balance())
		table.Append([]string{
			it.Commitment().Hex(),
			owner.String(),
			params.FormatCredits(balance),
			strconv.Itoa(len(rec.Entries())),
		})
	}
	if err := it.Error(); err != nil {
		return err
	}
	table.Render()
	return nil
}

func spendRecord(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	pk, err := privateKeyArg(ctx, &cfg.Network)
	if err != nil {
		return err
	}
	if pk == nil {
		return fmt.Errorf("missing --%s", privateKeyFlag.Name)
	}
	if ctx.NArg() != 1 {
		return errors.New("expected one commitment argument")
	}
	var cm common.Field
	if err := cm.UnmarshalText([]byte(ctx.Args().First())); err != nil {
		return fmt.Errorf("invalid commitment: %v", err)
	}

	l, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer l.Close()
	if err := l.SpendRecord(pk, cm); err != nil {
		return err
	}
	log.Info("Spent record", "commitment", cm)
	return nil
}
