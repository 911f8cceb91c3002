// The batch command runs the operator-triggered pipeline: badge generation,
// archive packaging, and archive emailing.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"checkin/internal/archive"
	"checkin/internal/badge"
	"checkin/internal/config"
	"checkin/internal/mailer"
	"checkin/internal/notify"
	"checkin/internal/registrant"
	"checkin/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "batch: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Event check-in batch pipeline",
		Long: `batch runs the operator-triggered stages over the registrant roster:
generating barcode badge images grouped by district/church, packaging them
into per-church and per-district zip archives, and emailing each church its
archive.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newBadgesCmd(),
		newArchivesCmd(),
		newSendCmd(),
	)
	return cmd
}

// openRepo connects to the store for a batch run. The caller closes the DB.
func openRepo(ctx context.Context, cfg config.App) (*store.DB, *registrant.Repository, error) {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, registrant.NewRepository(db.Client), nil
}

func newBadgesCmd() *cobra.Command {
	var (
		idsFlag string
		path    string
		chunk   int
		font    string
	)
	cmd := &cobra.Command{
		Use:   "badges",
		Short: "Generate barcode badge PNGs grouped by district/church",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.Load()

			var ids []int64
			if idsFlag != "" {
				parsed, ok := registrant.ParseIDList(idsFlag)
				if !ok {
					return fmt.Errorf("--ids %q contains no valid ids", idsFlag)
				}
				ids = parsed
			}

			opts := badge.DefaultOptions()
			opts.FontPath = font
			if opts.FontPath == "" {
				opts.FontPath = cfg.BadgeFont
			}
			renderer, err := badge.NewRenderer(opts)
			if err != nil {
				return err
			}

			db, repo, err := openRepo(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			runner := badge.NewRunner(repo, renderer)
			if chunk > 0 {
				runner.ChunkSize = chunk
			}
			report, err := runner.Run(ctx, path, ids)
			if err != nil {
				return err
			}
			fmt.Printf("done. generated %d badge(s), %d failed. see %s/<district>/<church>/\n",
				report.Generated, report.Failed, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&idsFlag, "ids", "", "Comma-separated registrant ids (default: whole roster)")
	cmd.Flags().StringVar(&path, "path", "barcodes", "Base folder for badge images")
	cmd.Flags().IntVar(&chunk, "chunk", badge.DefaultChunkSize, "Registrants loaded per chunk")
	cmd.Flags().StringVar(&font, "font", "", "TTF font file (default: BADGE_FONT env)")
	return cmd
}

func newArchivesCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "archives",
		Short: "Pack badge folders into church and district zip archives",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := archive.BuildAll(path)
			if err != nil {
				return err
			}
			fmt.Printf("done. %d church archive(s), %d district archive(s), %d failed.\n",
				report.ChurchArchives, report.DistrictArchives, report.Failed)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "barcodes", "Base folder holding the badge tree")
	return cmd
}

func newSendCmd() *cobra.Command {
	var (
		path    string
		subject string
		body    string
		from    string
		dryRun  bool
		sleep   int
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Email each church its badge archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.Load()

			db, repo, err := openRepo(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			sender := mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom, cfg.MailFromName)
			dispatcher := notify.NewDispatcher(repo, sender)

			if sleep < 0 {
				sleep = 0
			}
			report, err := dispatcher.Run(ctx, notify.Options{
				BaseDir: path,
				Subject: subject,
				Body:    body,
				From:    from,
				DryRun:  dryRun,
				Sleep:   time.Duration(sleep) * time.Second,
			})
			if err != nil {
				return err
			}

			fmt.Printf("sent: %d\n", report.Sent)
			fmt.Printf("skipped (missing archive): %d\n", report.SkippedMissingArchive)
			fmt.Printf("skipped (invalid email): %d\n", report.SkippedInvalidEmail)
			fmt.Printf("send failures: %d\n", report.SendFailures)
			if dryRun {
				fmt.Println("dry-run: no mail was sent.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "barcodes", "Base folder holding the archives")
	cmd.Flags().StringVar(&subject, "subject", notify.DefaultSubject, "Email subject")
	cmd.Flags().StringVar(&body, "body", notify.DefaultBody, "Email body text")
	cmd.Flags().StringVar(&from, "from", "", "From address override (default: MAIL_FROM env)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report intended sends without sending")
	cmd.Flags().IntVar(&sleep, "sleep", int(notify.DefaultSleep.Seconds()), "Seconds to wait between successful sends")
	return cmd
}
