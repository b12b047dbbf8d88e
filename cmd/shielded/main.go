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

// shielded is the command line interface to the record VM and ledger.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/go-shielded/log"
)

const clientIdentifier = "shielded"

var (
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: int(log.LvlWarn),
	}
	dataDirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "Directory of the ledger database",
	}
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = clientIdentifier
	app.Usage = "typed record VM and private record ledger"
	app.Flags = []cli.Flag{
		configFileFlag,
		verbosityFlag,
		dataDirFlag,
	}
	app.Commands = []cli.Command{
		keygenCommand,
		castCommand,
		evalCommand,
		recordsCommand,
		dumpConfigCommand,
	}
	sort.Sort(cli.CommandsByName(app.Commands))
	app.Before = func(ctx *cli.Context) error {
		setupLogging(ctx)
		return nil
	}
	return app
}

// setupLogging routes the root logger to stderr, colourised on terminals.
func setupLogging(ctx *cli.Context) {
	usecolor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
	output := io.Writer(os.Stderr)
	if usecolor {
		output = colorable.NewColorableStderr()
	}
	lvl := log.Lvl(ctx.GlobalInt(verbosityFlag.Name))
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(output, log.TerminalFormat(usecolor))))
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
