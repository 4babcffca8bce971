package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sghaida/vdto/proxy/codegen"
)

func newProxyCmd(a *app) *cobra.Command {
	var (
		declPath string
		outPath  string
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Generate a proxy source from a YAML declaration",
		Long: `Reads a proxy declaration, scans the target package, and writes a Go file
declaring <Type>Proxy next to the target (or at --out).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if declPath == "" {
				return fmt.Errorf("vdtogen: missing --decl")
			}
			return a.generateProxy(cmd, declPath, outPath, dryRun)
		},
	}

	cmd.Flags().StringVar(&declPath, "decl", "", "proxy declaration file (YAML)")
	cmd.Flags().StringVar(&outPath, "out", "", "output file (overrides the declaration)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the source instead of writing it")
	cmd.Flags().String(keyOutSuffix, "", "suffix of derived output files (default "+defaultOutSuffix+")")
	return cmd
}

func (a *app) generateProxy(cmd *cobra.Command, declPath, outPath string, dryRun bool) error {
	d, raw, err := loadDeclaration(a.fs, declPath)
	if err != nil {
		return err
	}

	b, err := d.builder(a.fs, declPath)
	if err != nil {
		return err
	}

	src, err := codegen.Render(b, d.renderOptions(declPath, raw))
	if err != nil {
		return err
	}

	if outPath == "" {
		outPath = d.outputPath(declPath, a.v.GetString(keyOutSuffix))
	}
	a.logger.Debug("proxy rendered",
		zap.String("declaration", declPath),
		zap.String("class", b.Class().Name),
		zap.String("output", outPath),
		zap.Int("bytes", len(src)),
	)

	if dryRun {
		_, err := cmd.OutOrStdout().Write(src)
		return err
	}

	if err := a.fs.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("vdtogen: mkdir %s: %w", filepath.Dir(outPath), err)
	}
	if err := afero.WriteFile(a.fs, outPath, src, 0o644); err != nil {
		return fmt.Errorf("vdtogen: write %s: %w", outPath, err)
	}

	a.logger.Info("proxy written", zap.String("class", b.Class().Name), zap.String("output", outPath))
	printOK(cmd.OutOrStdout(), "%s -> %s", b.Class().Name, outPath)
	return nil
}
