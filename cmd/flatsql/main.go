// Copyright 2023-2024 Flatbase, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	flags "github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	flatsql "github.com/flatbase/flatsql"
	"github.com/flatbase/flatsql/output"
	"github.com/flatbase/flatsql/sql"
)

type options struct {
	Headers  bool   `short:"H" long:"headers" description:"Emit a header row"`
	Format   string `short:"F" long:"format" default:"tsv" choice:"tsv" choice:"csv" choice:"json" choice:"json_array" choice:"html" choice:"sql" choice:"table" description:"Output format"`
	File     string `short:"f" long:"file" description:"Read the query from a file"`
	ReadOnly bool   `short:"0" long:"read-only" description:"Refuse CREATE and INSERT"`
	Verbose  bool   `short:"v" long:"verbose" description:"Enable debug logging"`

	Args struct {
		Query string `positional-arg-name:"query"`
	} `positional-args:"yes"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Usage = `[OPTIONS] "SELECT <fields, ...> FROM <file> [WHERE] [ORDER BY] [OFFSET FETCH FIRST]"`

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, flagsErr.Message)
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(logrus.InfoLevel)
	if opts.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	stdinIsTTY := term.IsTerminal(int(os.Stdin.Fd()))

	query, queryFromStdin, err := readQuery(&opts, stdinIsTTY)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if query == "" {
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}

	// When stdin is redirected and the query came from elsewhere, it is
	// the data source named "stdin".
	var stdin io.Reader
	if !stdinIsTTY && !queryFromStdin {
		stdin = os.Stdin
	}

	format, _ := output.ParseFormat(opts.Format)

	engine := flatsql.New(flatsql.Config{
		Stdin:    stdin,
		ReadOnly: opts.ReadOnly,
	})

	ctx := sql.NewContext(context.Background(),
		sql.WithLogger(logrus.NewEntry(logrus.StandardLogger())))

	err = engine.Query(ctx, query, os.Stdout, output.Options{
		Format:  format,
		Headers: opts.Headers,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// readQuery picks the query text: the -f file, the positional argument,
// or redirected stdin, in that order.
func readQuery(opts *options, stdinIsTTY bool) (string, bool, error) {
	if opts.File != "" {
		text, err := os.ReadFile(opts.File)
		if err != nil {
			return "", false, fmt.Errorf("couldn't open file %s", opts.File)
		}
		if len(text) == 0 {
			return "", false, fmt.Errorf("file '%s' was empty", opts.File)
		}
		return string(text), false, nil
	}

	if opts.Args.Query != "" {
		return opts.Args.Query, false, nil
	}

	if !stdinIsTTY {
		text, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", true, err
		}
		return string(text), true, nil
	}

	return "", false, nil
}
