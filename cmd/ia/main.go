// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

// Command ia talks to an Internet-Archive-compatible service: upload and
// download files, read and edit item metadata, search, delete.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"sigs.k8s.io/yaml"

	"github.com/openarchive/archive-cli-sdk/sdk/config"
)

const usageText = `usage: ia <command> [options] [arguments]

commands:
  upload        upload files to an item
  download      download files from an item
  metadata      print or modify item metadata
  search        query the archive
  list          list the files of an item
  delete        delete files from an item
  status-check  check whether the storage endpoint accepts requests
  help          show this message

Run 'ia <command> --help' for command options.`

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		if err != pflag.ErrHelp {
			fmt.Fprintln(os.Stderr, "ia: "+err.Error())
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, usageText)
		return fmt.Errorf("missing command")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "upload":
		return cmdUpload(ctx, rest)
	case "download":
		return cmdDownload(ctx, rest)
	case "metadata":
		return cmdMetadata(ctx, rest)
	case "search":
		return cmdSearch(ctx, rest)
	case "list":
		return cmdList(ctx, rest)
	case "delete":
		return cmdDelete(ctx, rest)
	case "status-check":
		return cmdStatusCheck(ctx, rest)
	case "help", "-h", "--help":
		fmt.Println(usageText)
		return nil
	}
	fmt.Fprintln(os.Stderr, usageText)
	return fmt.Errorf("unknown command %q", cmd)
}

// newFlagSet builds a pflag set with the flags every command shares.
func newFlagSet(name string) (*pflag.FlagSet, *string) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	configFile := fs.StringP("config", "c", "", "path to the credentials file")
	return fs, configFile
}

func loadConfig(ctx context.Context, configFile string) (*config.Config, error) {
	return config.Load(ctx, nil, configFile)
}

// printFormatted renders v as pretty JSON or YAML on stdout.
func printFormatted(v any, format string) error {
	switch format {
	case "", "json":
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
	case "yaml":
		b, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Print(string(b))
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	return nil
}

// parseHeaderArgs turns "Key:Value" flag values into a header map.
func parseHeaderArgs(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	h := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, ":")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid header %q, expected key:value", a)
		}
		h[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return h, nil
}
