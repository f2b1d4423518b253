package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"xform/internal/config"
	"xform/internal/engine"
	"xform/internal/logging"
)

func main() {
	cfgPath := flag.String("config", "xform.yml", "engine config file")
	name := flag.String("transform", "", "registered transform to run")
	deps := flag.String("deps", "", "comma separated dependency files of every input")
	list := flag.Bool("list", false, "list registered transforms and exit")
	flag.Parse()

	logging.InitFromEnv()
	if err := run(*cfgPath, *name, splitList(*deps), *list, flag.Args()); err != nil {
		logging.L().Error("xform failed", "err", err)
		os.Exit(1)
	}
}

func run(cfgPath, name string, deps []string, list bool, inputs []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := engine.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer e.Close()

	if list {
		for _, n := range e.Transforms() {
			c, _ := e.Describe(n)
			reg := c.Registration
			fmt.Printf("%-24s %-20s %s -> %s  %s\n", n, c.Alias, reg.From(), reg.To(),
				reg.Transformer().Fingerprint().String()[:16])
		}
		return nil
	}
	if name == "" {
		return fmt.Errorf("-transform is required")
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no inputs given")
	}

	results, err := e.Run(ctx, name, inputs, deps)
	if err != nil {
		return err
	}
	for _, r := range results {
		for _, out := range r.Outputs {
			fmt.Printf("%s\t%s\n", r.Input, out)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
