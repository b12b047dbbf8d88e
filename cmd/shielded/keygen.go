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
	"fmt"

	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/go-shielded/crypto"
)

var (
	mnemonicFlag = cli.StringFlag{
		Name:  "mnemonic",
		Usage: "Derive the account from this BIP-39 mnemonic",
	}
	newMnemonicFlag = cli.BoolFlag{
		Name:  "new-mnemonic",
		Usage: "Generate a fresh BIP-39 mnemonic and derive the account from it",
	}
	passwordFlag = cli.StringFlag{
		Name:  "password",
		Usage: "BIP-39 passphrase used with --mnemonic or --new-mnemonic",
	}

	keygenCommand = cli.Command{
		Action:    keygen,
		Name:      "keygen",
		Usage:     "Generate an account",
		ArgsUsage: " ",
		Flags: []cli.Flag{
			mnemonicFlag,
			newMnemonicFlag,
			passwordFlag,
		},
		Category: "ACCOUNT COMMANDS",
		Description: `
Generates a private key and prints it with the view key and address derived
from it. With --mnemonic the key is recovered from an existing phrase.`,
	}
)

func keygen(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	net := &cfg.Network

	if ctx.IsSet(mnemonicFlag.Name) && ctx.Bool(newMnemonicFlag.Name) {
		return fmt.Errorf("--%s and --%s are mutually exclusive", mnemonicFlag.Name, newMnemonicFlag.Name)
	}
	mnemonic := ctx.String(mnemonicFlag.Name)
	if ctx.Bool(newMnemonicFlag.Name) {
		if mnemonic, err = crypto.NewMnemonic(); err != nil {
			return err
		}
	}

	var pk *crypto.PrivateKey
	if mnemonic != "" {
		pk, err = crypto.PrivateKeyFromMnemonic(net, mnemonic, ctx.String(passwordFlag.Name))
	} else {
		pk, err = crypto.GenerateKey(net, nil)
	}
	if err != nil {
		return err
	}
	vk, err := pk.ViewKey()
	if err != nil {
		return err
	}
	addr, err := vk.Address()
	if err != nil {
		return err
	}

	out := ctx.App.Writer
	if ctx.Bool(newMnemonicFlag.Name) {
		fmt.Fprintf(out, "Mnemonic:    %s\n", mnemonic)
	}
	fmt.Fprintf(out, "Private key: %s\n", pk)
	fmt.Fprintf(out, "View key:    %s\n", vk)
	fmt.Fprintf(out, "Address:     %s\n", addr)
	return nil
}
