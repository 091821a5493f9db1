/*
 * Copyright 2018-2020, CS Systemes d'Information, http://csgroup.eu
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command nse-demo drives the Network Scripting Engine against a
// handful of in-memory hosts, using internal/scandb to build the
// Script Index and internal/asyncio as the asynchronous I/O layer.
// It exists to exercise lib/nse end-to-end outside of tests; it is not
// a real scanner front-end.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"github.com/gonse/netscan/internal/asyncio"
	"github.com/gonse/netscan/internal/scandb"
	"github.com/gonse/netscan/lib/nse"
	_ "github.com/gonse/netscan/scripts"
)

func main() {
	app := &cli.App{
		Name:  "nse-demo",
		Usage: "run the netscan scripting engine against demo hosts",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "script", Usage: "rule to select (category, filename, or directory); repeatable"},
			&cli.BoolFlag{Name: "default", Usage: "run the default category when no --script is given", Value: true},
			&cli.BoolFlag{Name: "version", Usage: "also run the reserved version rule"},
			&cli.StringFlag{Name: "script-args", Usage: "script argument preload string, e.g. oshint=linux,b=2"},
			&cli.StringFlag{Name: "db-dir", Usage: "scandb cache directory", Value: "./.nse-demo-db"},
			&cli.IntFlag{Name: "v", Usage: "verbosity level"},
			&cli.IntFlag{Name: "d", Usage: "debug level"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "nse-demo: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	viper.SetEnvPrefix("nse_demo")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.SetDefault("db-dir", "./.nse-demo-db")

	dbDir := viper.GetString("db-dir")
	if c.IsSet("db-dir") {
		dbDir = c.String("db-dir")
	}
	indexPath := filepath.Join(dbDir, "index.yaml")

	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return fmt.Errorf("creating db dir: %w", err)
	}
	if err := scandb.Generate(dbDir, indexPath); err != nil {
		return fmt.Errorf("generating script index: %w", err)
	}

	api := newDemoHostAPI(indexPath, c.Bool("default"), c.Bool("version"), c.String("script-args"), c.Int("v"), c.Int("d"))

	newAsyncIO := func(wake nse.WakeFunc) nse.AsyncIO { return asyncio.New(wake) }
	engine, err := nse.New(api, c.StringSlice("script"), newAsyncIO)
	if err != nil {
		return fmt.Errorf("loading scripts: %w", err)
	}

	hosts := demoHosts()
	if err := engine.Scan(hosts); err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	color.New(color.FgGreen).Println("Scan results:")
	for _, h := range hosts {
		fmt.Printf("Host: %s (%s)\n", h.Address, h.Hostname)
		for _, line := range api.hostOutput[h.Identity] {
			fmt.Printf("  | %s\n", line)
		}
		for _, p := range api.Ports(h) {
			for _, line := range api.portOutput[portKey(h, p)] {
				fmt.Printf("  %d/%s | %s\n", p.Number, p.Protocol, line)
			}
		}
	}
	return nil
}

func demoHosts() []*nse.Host {
	return []*nse.Host{
		{Identity: "h1", Address: "192.0.2.10", Hostname: "web.example.test"},
		{Identity: "h2", Address: "192.0.2.20", Hostname: "edge.example.test"},
	}
}

func portKey(h *nse.Host, p *nse.Port) string {
	return fmt.Sprintf("%s:%d", h.Identity, p.Number)
}
