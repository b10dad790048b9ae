package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kdange/portfolio/internal/logging"
	"github.com/kdange/portfolio/internal/server"
	"github.com/kdange/portfolio/internal/service"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

var checkTimeout time.Duration

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify SMTP, LLM and counter store connectivity without sending mail",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRuntime()
		if err != nil {
			return err
		}
		logger := logging.GetGlobalLogger()
		defer logger.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
		defer cancel()

		var failed bool
		run := func(name string, fn func(context.Context) error) {
			s := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			s.Suffix = fmt.Sprintf(" Checking %s...", name)
			s.Start()
			err := fn(ctx)
			s.Stop()

			switch {
			case errors.Is(err, service.ErrServiceUnavailable):
				logger.Warn("%s: not configured", name)
			case err != nil:
				failed = true
				logger.Error("%s: %v", name, err)
			default:
				logger.Info("%s: ok", name)
			}
		}

		mailer, err := service.NewMailer(cfg.Mail)
		if err != nil {
			return err
		}
		run("mail transport", func(ctx context.Context) error {
			prober, ok := mailer.(service.Prober)
			if !ok {
				return service.ErrServiceUnavailable
			}
			return prober.Probe(ctx)
		})

		svc, err := server.BuildServices(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		run("email counter", func(ctx context.Context) error {
			status, err := svc.Contacts.QuotaStatus(ctx)
			if err == nil {
				logger.Info("email counter: %d of %d used", status.Used, status.Limit)
			}
			return err
		})
		run("chat provider", svc.Chats.Ping)

		if failed {
			return fmt.Errorf("one or more checks failed")
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 30*time.Second, "Overall time allowed for all checks")
}
