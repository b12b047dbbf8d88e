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
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/go-shielded/params"
	"github.com/probechain/go-shielded/program"
	"github.com/probechain/go-shielded/vm"
)

var (
	programFlag = cli.StringFlag{
		Name:  "program",
		Usage: "File holding the program declarations",
	}
	decodeFlag = cli.BoolFlag{
		Name:  "decode",
		Usage: "Treat the argument as a hex encoded instruction",
	}

	castCommand = cli.Command{
		Action:    castInstruction,
		Name:      "cast",
		Usage:     "Parse or decode a cast instruction",
		ArgsUsage: "<instruction>",
		Flags: []cli.Flag{
			decodeFlag,
		},
		Category: "VM COMMANDS",
		Description: `
Parses the instruction text and prints its canonical form followed by its
binary encoding. With --decode the argument is a 0x-prefixed encoding and the
instruction text is printed instead.`,
	}
	evalCommand = cli.Command{
		Action:    evalInstruction,
		Name:      "eval",
		Usage:     "Evaluate an instruction over literal operands",
		ArgsUsage: "<instruction>",
		Flags: []cli.Flag{
			programFlag,
		},
		Category: "VM COMMANDS",
		Description: `
Evaluates one instruction against the types declared in --program and prints
the value written to its destination together with the inferred output type.
Operands must be literals.`,
	}
)

// instructionArg joins the positional arguments into one instruction text.
func instructionArg(ctx *cli.Context) (string, error) {
	if ctx.NArg() == 0 {
		return "", errors.New("missing instruction argument")
	}
	return strings.Join(ctx.Args(), " "), nil
}

func castInstruction(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	text, err := instructionArg(ctx)
	if err != nil {
		return err
	}
	out := ctx.App.Writer

	if ctx.Bool(decodeFlag.Name) {
		blob, err := hexutil.Decode(text)
		if err != nil {
			return err
		}
		inst, err := vm.DecodeInstruction(&cfg.Network, blob)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, inst)
		return nil
	}
	inst, err := vm.ParseInstruction(&cfg.Network, text)
	if err != nil {
		return err
	}
	blob, err := vm.EncodeInstruction(&cfg.Network, inst)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, inst)
	fmt.Fprintln(out, hexutil.Encode(blob))
	return nil
}

// loadProgram parses the file named by --program.
func loadProgram(ctx *cli.Context, net *params.Network) (*program.Program, error) {
	file := ctx.String(programFlag.Name)
	if file == "" {
		return nil, fmt.Errorf("missing --%s", programFlag.Name)
	}
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	prog, err := program.Parse(net, string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return prog, nil
}

// evaluate runs a single cast whose operands are all literals and returns the
// value it produced and the inferred register type.
func evaluate(prog *program.Program, text string) (program.StackValue, program.RegisterType, error) {
	var none program.RegisterType
	inst, err := vm.ParseInstruction(prog.Network(), text)
	if err != nil {
		return nil, none, err
	}
	cast, ok := inst.(*vm.Cast)
	if !ok {
		return nil, none, fmt.Errorf("cannot evaluate %s", inst.Opcode())
	}
	var inputs []program.RegisterType
	for _, op := range cast.Operands() {
		lit, ok := op.(program.Literal)
		if !ok {
			return nil, none, fmt.Errorf("operand %s is not a literal", op)
		}
		inputs = append(inputs, program.PlaintextRegister(program.LiteralPlaintext(lit.Type())))
	}
	typ, err := cast.OutputType(prog, inputs)
	if err != nil {
		return nil, none, err
	}
	stack := vm.NewStack(prog)
	if err := vm.Run(stack, cast); err != nil {
		return nil, none, err
	}
	value, err := stack.Load(cast.Destination())
	if err != nil {
		return nil, none, err
	}
	return value, typ, nil
}

func evalInstruction(ctx *cli.Context) error {
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
	value, typ, err := evaluate(prog, text)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "%s\n%s\n", value, typ)
	return nil
}
