// Command pftool inspects, merges and exports parameter files.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/uplang/pf"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "pftool: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for lookup faults and 1 for everything else.
func exitCode(err error) int {
	var ge *pf.GetError
	if errors.As(err, &ge) {
		return 2
	}
	return 1
}

func newApp(stdout, stderr io.Writer) *cli.App {
	logger := zap.NewNop()

	parser := func() *pf.Parser {
		return pf.NewParser().WithLogger(logger)
	}

	return &cli.App{
		Name:      "pftool",
		Usage:     "inspect typed attribute files and hierarchical parameter files",
		Writer:    stdout,
		ErrWriter: stderr,
		// Errors are mapped to exit codes in main.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log parse and merge decisions",
				EnvVars: []string{"PFTOOL_VERBOSE"},
			},
		},
		Before: func(c *cli.Context) error {
			config := zap.NewProductionConfig()
			if c.Bool("verbose") {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			l, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger = l
			return nil
		},
		After: func(c *cli.Context) error {
			_ = logger.Sync()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "dump",
				Usage:     "render a parameter file in block syntax",
				ArgsUsage: "FILE",
				Action: func(c *cli.Context) error {
					if err := wantArgs(c, 1); err != nil {
						return err
					}
					p, err := parser().LoadPf(c.Args().Get(0))
					if err != nil {
						return err
					}
					_, err = io.WriteString(c.App.Writer, p.String())
					return err
				},
			},
			{
				Name:      "get",
				Usage:     "print one scalar attribute",
				ArgsUsage: "FILE KEY",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Usage: "required kind: long, double, string or bool"},
					&cli.StringFlag{Name: "branch", Usage: "slash-separated branch path"},
				},
				Action: func(c *cli.Context) error {
					if err := wantArgs(c, 2); err != nil {
						return err
					}
					p, err := parser().LoadPf(c.Args().Get(0))
					if err != nil {
						return err
					}
					p, err = descend(p, c.String("branch"))
					if err != nil {
						return err
					}
					v, err := lookup(p, c.Args().Get(1), c.String("type"))
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(c.App.Writer, v)
					return err
				},
			},
			{
				Name:      "tbl",
				Usage:     "print the rows of a table",
				ArgsUsage: "FILE TAG",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "branch", Usage: "slash-separated branch path"},
				},
				Action: func(c *cli.Context) error {
					if err := wantArgs(c, 2); err != nil {
						return err
					}
					p, err := parser().LoadPf(c.Args().Get(0))
					if err != nil {
						return err
					}
					p, err = descend(p, c.String("branch"))
					if err != nil {
						return err
					}
					rows, err := p.GetTbl(c.Args().Get(1))
					if err != nil {
						return err
					}
					for _, row := range rows {
						fmt.Fprintln(c.App.Writer, row)
					}
					return nil
				},
			},
			{
				Name:      "merge",
				Usage:     "merge a flat attribute file into the scalars of a parameter file",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "flat", Usage: "flat attribute file", Required: true},
				},
				Action: func(c *cli.Context) error {
					if err := wantArgs(c, 1); err != nil {
						return err
					}
					flat, err := parser().LoadMetadata(c.String("flat"))
					if err != nil {
						return err
					}
					p, err := parser().LoadPf(c.Args().Get(0))
					if err != nil {
						return err
					}
					_, err = p.AsMetadata().Merge(flat).WriteTo(c.App.Writer)
					return err
				},
			},
			{
				Name:      "layer",
				Usage:     "layer parameter files, later files overriding earlier ones",
				ArgsUsage: "FILE...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "table-strategy",
						Usage:   "how overlay tables combine: replace, append or unique",
						Value:   pf.TableReplace,
						EnvVars: []string{"PFTOOL_TABLE_STRATEGY"},
					},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return fmt.Errorf("layer: at least one FILE is required")
					}
					p, err := pf.NewLayering().
						WithParser(parser()).
						WithLogger(logger).
						WithOptions(pf.LayerOptions{TableStrategy: c.String("table-strategy")}).
						Load(c.Args().Slice()...)
					if err != nil {
						return err
					}
					_, err = io.WriteString(c.App.Writer, p.String())
					return err
				},
			},
			{
				Name:      "export",
				Usage:     "export a parameter file",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Usage: "yaml or text", Value: "yaml"},
				},
				Action: func(c *cli.Context) error {
					if err := wantArgs(c, 1); err != nil {
						return err
					}
					p, err := parser().LoadPf(c.Args().Get(0))
					if err != nil {
						return err
					}
					switch c.String("format") {
					case "yaml":
						enc := yaml.NewEncoder(c.App.Writer)
						enc.SetIndent(2)
						if err := enc.Encode(p); err != nil {
							return err
						}
						return enc.Close()
					case "text":
						_, err = io.WriteString(c.App.Writer, p.String())
						return err
					default:
						return fmt.Errorf("export: unknown format %q", c.String("format"))
					}
				},
			},
			{
				Name:  "man",
				Usage: "print the manual page",
				Action: func(c *cli.Context) error {
					man, err := c.App.ToMan()
					if err != nil {
						return err
					}
					_, err = io.WriteString(c.App.Writer, man)
					return err
				},
			},
		},
	}
}

func wantArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return fmt.Errorf("%s: expected %d argument(s) %s, got %d",
			c.Command.Name, n, c.Command.ArgsUsage, c.NArg())
	}
	return nil
}

// descend follows a slash-separated branch path.
func descend(p *pf.AntelopePf, path string) (*pf.AntelopePf, error) {
	for _, tag := range strings.Split(path, "/") {
		if tag == "" {
			continue
		}
		next, err := p.GetBranch(tag)
		if err != nil {
			return nil, err
		}
		p = next
	}
	return p, nil
}

func lookup(p *pf.AntelopePf, key, kindTag string) (pf.Value, error) {
	want := pf.KindInvalid
	if kindTag != "" {
		k, err := pf.ParseKind(kindTag)
		if err != nil {
			return pf.Value{}, err
		}
		want = k
	}
	v, ok := p.Lookup(key)
	if !ok {
		return pf.Value{}, &pf.GetError{Key: key, Space: pf.SpaceAttribute, Want: want}
	}
	if want != pf.KindInvalid && v.Kind() != want {
		return pf.Value{}, &pf.GetError{Key: key, Space: pf.SpaceAttribute, Want: want, Found: v.Kind()}
	}
	return v, nil
}
