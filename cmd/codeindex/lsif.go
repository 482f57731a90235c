package main

import (
	"fmt"
	"os"

	"github.com/gnana997/codeindex/pkg/lsif"
)

// runExport writes the persisted graph as an LSIF JSON-lines dump.
func runExport(args []string) error {
	fs := newFlagSet("export")
	root := fs.String("root", ".", "project root")
	if err := fs.Parse(args); err != nil {
		return err
	}
	outPath := fs.Arg(0)
	if outPath == "" {
		return fmt.Errorf("usage: codeindex export <file.lsif> [-root path]")
	}

	projectRoot, err := resolveProjectRoot(*root)
	if err != nil {
		return err
	}
	st, err := openStoreReadOnly(projectRoot)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	g, err := loadGraph(st)
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer f.Close()

	if err := lsif.Export(g, f); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	fmt.Printf("exported to %s\n", outPath)
	return nil
}

// runImport replaces the store's graph with one parsed from an LSIF dump.
func runImport(args []string) error {
	fs := newFlagSet("import")
	root := fs.String("root", ".", "project root")
	if err := fs.Parse(args); err != nil {
		return err
	}
	inPath := fs.Arg(0)
	if inPath == "" {
		return fmt.Errorf("usage: codeindex import <file.lsif> [-root path]")
	}

	f, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", inPath, err)
	}
	defer f.Close()

	g, err := lsif.Import(f)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	projectRoot, err := resolveProjectRoot(*root)
	if err != nil {
		return err
	}
	st, err := openStore(projectRoot)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := st.SaveGraphSnapshot(g.ToSnapshot()); err != nil {
		return fmt.Errorf("save graph snapshot: %w", err)
	}
	fmt.Printf("imported %s into %s\n", inPath, storeDir(projectRoot))
	return nil
}
