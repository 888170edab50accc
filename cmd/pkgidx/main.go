package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/pkgidx/internal/auxdict"
	"github.com/standardbeagle/pkgidx/internal/bytestore"
	"github.com/standardbeagle/pkgidx/internal/config"
	"github.com/standardbeagle/pkgidx/internal/debug"
	"github.com/standardbeagle/pkgidx/internal/manifest"
	"github.com/standardbeagle/pkgidx/internal/types"
	"github.com/standardbeagle/pkgidx/internal/updater"
	"github.com/standardbeagle/pkgidx/internal/version"
)

func main() {
	app := &cli.App{
		Name:    "pkgidx",
		Usage:   "package-manifest search index engine",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "index-dir",
				Aliases:  []string{"d"},
				Usage:    "directory holding the committed on-disk index",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a KDL config file (defaults used if absent)",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "suppress debug log output",
			},
		},
		Before: func(c *cli.Context) error {
			debug.SetQuietMode(c.Bool("quiet"))
			return nil
		},
		Commands: []*cli.Command{
			rebuildCommand(),
			addCommand(),
			fastUpdateCommand(),
			statusCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "pkgidx:", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	indexDir := c.String("index-dir")
	configPath := c.String("config")
	if configPath == "" {
		return config.Default(indexDir), nil
	}
	return config.Load(configPath, indexDir)
}

func rebuildCommand() *cli.Command {
	return &cli.Command{
		Name:      "rebuild",
		Usage:     "build the index from a manifest fixture, merging into any committed index",
		ArgsUsage: "<manifest-fixture.json> [pfmri...]",
		Action: func(c *cli.Context) error {
			if c.Args().Len() < 1 {
				return cli.Exit("rebuild requires a manifest fixture path", 1)
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			src, err := loadJSONSource(c.Args().First())
			if err != nil {
				return err
			}
			pfmris := pfmriArgs(c, src)

			u := updater.New(cfg, src, nil, nil)
			res, err := u.Rebuild(context.Background(), pfmris)
			if err != nil {
				return err
			}
			printResult(res)
			return nil
		},
	}
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "incrementally add newly-installed packages to the index",
		ArgsUsage: "<manifest-fixture.json> <pfmri...>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() < 2 {
				return cli.Exit("add requires a manifest fixture path and at least one PFMRI", 1)
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			src, err := loadJSONSource(c.Args().First())
			if err != nil {
				return err
			}
			pfmris := pfmriArgs(c, src)

			u := updater.New(cfg, src, nil, nil)
			res, err := u.ServerAdd(context.Background(), pfmris)
			if err != nil {
				return err
			}
			printResult(res)
			return nil
		},
	}
}

func fastUpdateCommand() *cli.Command {
	return &cli.Command{
		Name:  "fast-update",
		Usage: "apply a client-side plan's adds/removes without touching the main dictionary",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "add", Usage: "PFMRI to add (repeatable)"},
			&cli.StringSliceFlag{Name: "remove", Usage: "PFMRI to remove (repeatable)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			added := toPFMRIs(c.StringSlice("add"))
			removed := toPFMRIs(c.StringSlice("remove"))

			// fast-update never touches the manifest source; a nil Source
			// is safe as long as no rebuild is requested mid-command.
			u := updater.New(cfg, nil, nil, &stderrRebuildRequester{})
			res, err := u.FastUpdate(context.Background(), added, removed)
			if err != nil {
				return err
			}
			printResult(res)
			if res.RebuildPending {
				fmt.Println("fast-add set crossed its threshold; a full rebuild was requested")
			}
			return nil
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "report the committed index's version and set sizes",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			if _, err := os.Stat(cfg.TempDir()); err == nil {
				fmt.Println("partial indexing: TMP directory present, a prior update did not commit")
			}

			full, err := auxdict.LoadStringSet(filepath.Join(cfg.IndexDir, auxdict.FullFmriSetFile))
			if err != nil {
				fmt.Println("no committed index found")
				return nil
			}
			ver, err := bytestore.Open(context.Background(), filepath.Join(cfg.IndexDir, auxdict.FullFmriSetFile), 0)
			if err != nil {
				return err
			}
			fastAdd, err := auxdict.LoadStringSet(filepath.Join(cfg.IndexDir, auxdict.FastAddSetFile))
			if err != nil {
				return err
			}
			fastRem, err := auxdict.LoadStringSet(filepath.Join(cfg.IndexDir, auxdict.FastRemoveSetFile))
			if err != nil {
				return err
			}

			fmt.Printf("version:     %d\n", ver)
			fmt.Printf("packages:    %d\n", full.Len())
			fmt.Printf("fast-add:    %d\n", fastAdd.Len())
			fmt.Printf("fast-remove: %d\n", fastRem.Len())
			return nil
		},
	}
}

// pfmriArgs returns the PFMRIs named after the fixture-path argument, or
// every PFMRI the fixture declares if none were named explicitly.
func pfmriArgs(c *cli.Context, src *jsonSource) []types.PFMRI {
	rest := c.Args().Slice()[1:]
	if len(rest) == 0 {
		return src.packages()
	}
	return toPFMRIs(rest)
}

func toPFMRIs(ss []string) []types.PFMRI {
	out := make([]types.PFMRI, len(ss))
	for i, s := range ss {
		out[i] = types.PFMRI(s)
	}
	return out
}

func printResult(res *updater.Result) {
	fmt.Printf("version:        %d\n", res.Version)
	fmt.Printf("tokens emitted: %d\n", res.TokensEmitted)
	fmt.Printf("packages added: %d\n", res.PackagesAdded)
}

// stderrRebuildRequester is the fast-update command's RebuildRequester: it
// cannot itself perform a full rebuild (that needs a manifest source this
// command was never given), so it reports the threshold crossing and lets
// the operator re-invoke "rebuild" with the right fixture.
type stderrRebuildRequester struct{}

func (stderrRebuildRequester) RebuildSearchIndex(ctx context.Context, progress manifest.Progress) error {
	fmt.Fprintln(os.Stderr, "pkgidx: fast-add set exceeded its threshold, run \"pkgidx rebuild\" to persist it")
	return nil
}
