// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/gogama/httpfacade"
	"github.com/gogama/httpfacade/config"
	"github.com/spf13/cobra"
)

type globals struct {
	configPath string
	tag        string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "httpfacade",
		Short: "One-call HTTP fetch, form post and file upload",
		Long: `One-call HTTP fetch, form post and file upload.

Responses are cached on disk when the server allows it. Settings are read
from an optional TOML file given with --config.`,
		SilenceUsage: true,
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "TOML configuration file")
	flags.StringVar(&g.tag, "tag", "cli", "tag attached to the request; an interrupt cancels every request with this tag")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "log each request attempt")

	root.AddCommand(newGetCmd(g), newPostCmd(g), newUploadCmd(g))
	return root
}

func newGetCmd(g *globals) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get URL",
		Short: "Fetch a URL and write the response body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, f *httpfacade.Facade) error {
				s, err := f.FetchStream(ctx, args[0], httpfacade.WithTag(g.tag))
				if err != nil {
					return err
				}
				defer s.Close()
				w := cmd.OutOrStdout()
				if output != "" && output != "-" {
					file, err := os.Create(output)
					if err != nil {
						return err
					}
					defer file.Close()
					w = file
				}
				_, err = io.Copy(w, s)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "write the body to FILE instead of standard output")
	return cmd
}

func newPostCmd(g *globals) *cobra.Command {
	var fields []string
	cmd := &cobra.Command{
		Use:   "post URL",
		Short: "Submit a URL-encoded form and write the response body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := parseFields(fields)
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, f *httpfacade.Facade) error {
				text, err := f.SubmitForm(ctx, args[0], form, httpfacade.WithTag(g.tag))
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), text)
				return err
			})
		},
	}
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "form field as key=value (repeatable)")
	return cmd
}

func newUploadCmd(g *globals) *cobra.Command {
	var fields, files []string
	cmd := &cobra.Command{
		Use:   "upload URL",
		Short: "Upload files as multipart/form-data and write the response body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := parseFields(fields)
			if err != nil {
				return err
			}
			fieldNames := make([]string, len(files))
			paths := make([]string, len(files))
			for i, pair := range files {
				name, path, ok := strings.Cut(pair, "=")
				if !ok || name == "" || path == "" {
					return fmt.Errorf("invalid --file %q, want field=path", pair)
				}
				fieldNames[i], paths[i] = name, path
			}
			return g.run(cmd, func(ctx context.Context, f *httpfacade.Facade) error {
				text, err := f.UploadFiles(ctx, args[0], form, paths, fieldNames, httpfacade.WithTag(g.tag))
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), text)
				return err
			})
		},
	}
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "form field as key=value (repeatable)")
	cmd.Flags().StringArrayVar(&files, "file", nil, "file part as field=path (repeatable)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func parseFields(pairs []string) (map[string]string, error) {
	fields := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid field %q, want key=value", pair)
		}
		fields[k] = v
	}
	return fields, nil
}

// run builds a facade from the global flags and calls fn with it. A
// server error response has its body copied to standard error.
func (g *globals) run(cmd *cobra.Command, fn func(context.Context, *httpfacade.Facade) error) error {
	cfg := config.Default()
	if g.configPath != "" {
		var err error
		if cfg, err = config.Load(g.configPath); err != nil {
			return err
		}
	}
	if g.verbose {
		cfg.Log.Level = "debug"
	}
	logger := &log.Logger{
		Handler: cli.New(cmd.ErrOrStderr()),
		Level:   log.MustParseLevel(cfg.Log.Level),
	}
	f, err := httpfacade.New(cfg, httpfacade.UseLogger(logger))
	if err != nil {
		return err
	}
	defer f.Close()

	ctx := cmd.Context()
	if err := ctx.Err(); err != nil {
		logger.WithField("tag", g.tag).Warn("interrupted")
		return err
	}
	stop := context.AfterFunc(ctx, func() { f.Cancel(g.tag) })
	defer stop()

	err = fn(ctx, f)
	if ctx.Err() != nil {
		logger.WithField("tag", g.tag).Warn("interrupted")
	}
	var appErr *httpfacade.ApplicationError
	if errors.As(err, &appErr) {
		_, _ = cmd.ErrOrStderr().Write(appErr.Body)
	}
	return err
}
