package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/TurriJP/ossub-downloader/internal/config"
	"github.com/TurriJP/ossub-downloader/internal/creds"
	"github.com/TurriJP/ossub-downloader/internal/logging"
	"github.com/TurriJP/ossub-downloader/internal/opensubtitles"
	"github.com/TurriJP/ossub-downloader/internal/prompt"
	"github.com/TurriJP/ossub-downloader/internal/subtitles"
	"github.com/TurriJP/ossub-downloader/internal/syncer"
	"github.com/TurriJP/ossub-downloader/internal/transport"
	"github.com/TurriJP/ossub-downloader/internal/video"
)

type options struct {
	lang       string
	useName    bool
	multi      bool
	sync       bool
	output     string
	configPath string
	verbose    bool
}

// searcherFactory builds the remote search client for one run.
type searcherFactory func(cfg *config.Config, log *logrus.Logger, account creds.Credentials) (subtitles.Searcher, error)

// app holds the collaborators a run needs so tests can swap the terminal, the
// remote service and the working directory.
type app struct {
	stdout      io.Writer
	stderr      io.Writer
	prompt      prompt.Prompter
	getwd       func() (string, error)
	newSearcher searcherFactory
	newSyncer   func(cfg *config.Config) synchronizer
}

func newApp() *app {
	return &app{
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		prompt:      prompt.NewTerminal(),
		getwd:       os.Getwd,
		newSearcher: newRemoteSearcher,
		newSyncer: func(cfg *config.Config) synchronizer {
			return syncer.New(cfg.SyncCommand)
		},
	}
}

func newRemoteSearcher(cfg *config.Config, log *logrus.Logger, account creds.Credentials) (subtitles.Searcher, error) {
	client, err := opensubtitles.New(opensubtitles.Config{
		Endpoint:      cfg.Endpoint,
		UserAgent:     cfg.UserAgent,
		LoginLanguage: cfg.LoginLanguage,
		Username:      account.Username,
		PasswordHash:  account.PasswordHash,
		SearchLimit:   cfg.SearchLimit,
		Timeout:       cfg.HTTPTimeout,
		Transport:     &transport.CurlTracer{Log: log},
		Log:           log,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newRootCommand(a *app) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           config.AppName + " [filename]",
		Short:         "Subtitle downloader for opensubtitles.org",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filename string
			if len(args) == 1 {
				filename = args[0]
			}
			return a.run(cmd.Context(), opts, cmd.Flags().Changed("lang"), filename)
		},
	}

	bindFlags(cmd.Flags(), &opts)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	return cmd
}

func bindFlags(flags *pflag.FlagSet, opts *options) {
	flags.StringVarP(&opts.lang, "lang", "l", config.DefaultLanguage, "Language to search for")
	flags.BoolVarP(&opts.useName, "use-name", "n", false, "Search using movie file name instead of movie file hash (more results, but less accurate)")
	flags.BoolVarP(&opts.multi, "multi", "m", false, "Download multiple subtitles")
	flags.BoolVarP(&opts.sync, "sync", "s", false, "Synchronize downloaded subtitles with the video using alass")
	flags.StringVarP(&opts.output, "output", "o", "", "Output file name when downloading a single subtitle")
	flags.StringVarP(&opts.configPath, "config", "c", "", "Configuration file path")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
}

func (a *app) run(ctx context.Context, opts options, langSet bool, filename string) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	log, err := logging.New(logging.Options{Level: cfg.LogLevel, Verbose: opts.verbose, Output: a.stderr})
	if err != nil {
		return err
	}

	lang := cfg.Language
	if langSet {
		lang = opts.lang
	}

	wc, err := resolveWorkContext(ctx, filename, a.getwd, &video.Locator{Prompt: a.prompt})
	if err != nil {
		return err
	}

	finder := &subtitles.Finder{
		Credentials: &creds.Store{Path: cfg.CredentialsFile, Prompt: a.prompt, Log: log},
		NewClient: func(_ context.Context, account creds.Credentials) (subtitles.Searcher, error) {
			return a.newSearcher(cfg, log, account)
		},
		Log: log,
	}
	subs, err := finder.Find(ctx, subtitles.FindRequest{VideoPath: wc.Filename, Language: lang, UseName: opts.useName})
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return subtitles.ErrNoSubtitles
	}

	chosen, err := selectSubtitles(ctx, a.prompt, subs, opts.multi)
	if err != nil {
		return err
	}

	b := &batch{
		Download: &subtitles.Downloader{
			Client:  transport.NewClient(log, cfg.HTTPTimeout),
			Confirm: prompt.RenameConfirmer{Prompt: a.prompt},
			Log:     log,
		},
		Log: log,
	}
	if opts.sync {
		b.Sync = a.newSyncer(cfg)
	}

	results, err := b.run(ctx, wc, chosen, opts.output)
	if err != nil {
		return err
	}
	if len(results) > 1 || failed(results) > 0 {
		fmt.Fprintln(a.stdout, renderSummary(results))
	}
	if n := failed(results); n > 0 {
		return fmt.Errorf("%w: %d of %d", errBatchFailed, n, len(results))
	}
	return nil
}

// selectSubtitles asks for one subtitle, or several in the order they were
// picked when multi is set.
func selectSubtitles(ctx context.Context, p prompt.Prompter, subs []subtitles.Subtitle, multi bool) ([]subtitles.Subtitle, error) {
	labels := make([]string, len(subs))
	for i, s := range subs {
		labels[i] = subtitles.ChoiceLabel(s)
	}

	if !multi {
		idx, err := p.Select(ctx, "Select subtitles to download", labels)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(subs) {
			return nil, fmt.Errorf("subtitle selection out of range: %d", idx)
		}
		return []subtitles.Subtitle{subs[idx]}, nil
	}

	indices, err := p.MultiSelect(ctx, "Select subtitles to download", labels)
	if err != nil {
		return nil, err
	}
	chosen := make([]subtitles.Subtitle, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(subs) {
			return nil, fmt.Errorf("subtitle selection out of range: %d", idx)
		}
		chosen = append(chosen, subs[idx])
	}
	return chosen, nil
}
