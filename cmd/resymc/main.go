// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Command resymc is a batch command-line front end for browsing and
// extracting types from PDB files: list type names, dump a single
// type's reconstructed C++ declaration, or diff a type's declaration
// across two PDBs.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/resymgo/resym"
	"github.com/resymgo/resym/pdbtypes"
)

// The CLI only ever needs two slots: one PDB for list/dump, two for
// diff.
const (
	pdbMainSlot   resym.Slot = 0
	pdbDiffToSlot resym.Slot = 1
)

var (
	caseInsensitive bool
	useRegex        bool

	printHeader           bool
	printDependencies     bool
	printAccessSpecifiers bool
	flavorName            string

	outputFilePath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "resymc",
		Short: "resymc browses and extracts types from PDB files",
		Long:  "resymc is a utility that allows browsing and extracting types from PDB files.",
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("resymc version %s\n", resym.Version)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list <pdb-path> <type-name-filter>",
		Short: "List types from a given PDB file",
		Args:  cobra.ExactArgs(2),
		RunE:  runList,
	}
	listCmd.Flags().BoolVarP(&caseInsensitive, "case-insensitive", "i", false, "do not match case")
	listCmd.Flags().BoolVarP(&useRegex, "use-regex", "r", false, "use regular expressions")
	listCmd.Flags().StringVarP(&outputFilePath, "output", "o", "", "path of the output file (default: stdout)")

	dumpCmd := &cobra.Command{
		Use:   "dump <pdb-path> <type-name>",
		Short: "Dump a type from a given PDB file",
		Args:  cobra.ExactArgs(2),
		RunE:  runDump,
	}
	dumpCmd.Flags().BoolVarP(&printHeader, "print-header", "H", false, "print the file header")
	dumpCmd.Flags().BoolVarP(&printDependencies, "print-dependencies", "d", false, "print declarations of referenced types")
	dumpCmd.Flags().BoolVarP(&printAccessSpecifiers, "print-access-specifiers", "a", false, "print C++ access specifiers")
	dumpCmd.Flags().StringVarP(&flavorName, "flavor", "f", "portable", "primitive spelling flavor: portable, microsoft, or raw")
	dumpCmd.Flags().StringVarP(&outputFilePath, "output", "o", "", "path of the output file (default: stdout)")

	diffCmd := &cobra.Command{
		Use:   "diff <from-pdb-path> <to-pdb-path> <type-name>",
		Short: "Compute a diff for a type across two PDB files",
		Args:  cobra.ExactArgs(3),
		RunE:  runDiff,
	}
	diffCmd.Flags().BoolVarP(&printHeader, "print-header", "H", false, "print the dual-PDB file header")
	diffCmd.Flags().BoolVarP(&printDependencies, "print-dependencies", "d", false, "print declarations of referenced types")
	diffCmd.Flags().BoolVarP(&printAccessSpecifiers, "print-access-specifiers", "a", false, "print C++ access specifiers")
	diffCmd.Flags().StringVarP(&flavorName, "flavor", "f", "portable", "primitive spelling flavor: portable, microsoft, or raw")
	diffCmd.Flags().StringVarP(&outputFilePath, "output", "o", "", "path of the output file (default: stdout)")

	rootCmd.AddCommand(versionCmd, listCmd, dumpCmd, diffCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runList(cmd *cobra.Command, args []string) error {
	pdbPath, filter := args[0], args[1]
	ctx := context.Background()

	backend := resym.NewBackend(16, nil)
	defer backend.Close()

	if err := backend.Load(ctx, pdbMainSlot, pdbPath, nil); err != nil {
		return err
	}
	types, err := backend.ListTypes(ctx, pdbMainSlot, filter, useRegex, caseInsensitive)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput()
	if err != nil {
		return err
	}
	defer closeOut()

	for _, t := range types {
		fmt.Fprintln(out, t.Name)
	}
	return nil
}

func runDump(cmd *cobra.Command, args []string) error {
	pdbPath, typeName := args[0], args[1]
	ctx := context.Background()

	flavor, err := pdbtypes.ParseFlavor(flavorName)
	if err != nil {
		return err
	}

	backend := resym.NewBackend(16, nil)
	defer backend.Close()

	if err := backend.Load(ctx, pdbMainSlot, pdbPath, nil); err != nil {
		return err
	}

	params := resym.ReconstructParams{
		Flavor: flavor,
		Options: pdbtypes.ReconstructOptions{
			PrimitivesFlavor:        flavor,
			ReconstructDependencies: printDependencies,
			PrintAccessSpecifiers:   printAccessSpecifiers,
			PrintHeader:             printHeader,
		},
	}
	text, err := backend.ReconstructByName(ctx, pdbMainSlot, typeName, params)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput()
	if err != nil {
		return err
	}
	defer closeOut()

	fmt.Fprint(out, text)
	return nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	fromPath, toPath, typeName := args[0], args[1], args[2]
	ctx := context.Background()

	flavor, err := pdbtypes.ParseFlavor(flavorName)
	if err != nil {
		return err
	}

	backend := resym.NewBackend(16, nil)
	defer backend.Close()

	if err := backend.Load(ctx, pdbMainSlot, fromPath, nil); err != nil {
		return err
	}
	if err := backend.Load(ctx, pdbDiffToSlot, toPath, nil); err != nil {
		return err
	}

	params := resym.ReconstructParams{
		Flavor: flavor,
		Options: pdbtypes.ReconstructOptions{
			PrimitivesFlavor:        flavor,
			ReconstructDependencies: printDependencies,
			PrintAccessSpecifiers:   printAccessSpecifiers,
			PrintHeader:             printHeader,
		},
	}
	diff, err := backend.DiffByName(ctx, pdbMainSlot, pdbDiffToSlot, typeName, params)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput()
	if err != nil {
		return err
	}
	defer closeOut()

	fmt.Fprint(out, diff.Text)
	return nil
}

func openOutput() (*os.File, func(), error) {
	if outputFilePath == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(outputFilePath)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
