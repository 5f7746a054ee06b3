package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/mbeckett/herald/internal/config"
	"github.com/mbeckett/herald/internal/service"
	"github.com/mbeckett/herald/internal/store"
)

var dispatchLimit int
var dispatchEvery string

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Deliver queued outreach requests",
	Long: `Dispatch flushes the outreach queue, oldest requests first.

Each queued request is resolved to a recipient email and handed to the
delivery provider; failures are recorded on the request and never stop
the batch. Without --every the queue is flushed once and the command
exits. With --every it keeps flushing on a cron schedule until
interrupted.

Examples:
  # Flush up to 50 queued requests once
  ./herald dispatch

  # Flush up to 200 requests every ten minutes
  ./herald dispatch --limit 200 --every "*/10 * * * *"`,
	Run: runDispatch,
}

func init() {
	rootCmd.AddCommand(dispatchCmd)

	dispatchCmd.Flags().IntVar(&dispatchLimit, "limit", 50, "Maximum requests to deliver per flush")
	dispatchCmd.Flags().StringVar(&dispatchEvery, "every", "", "Cron schedule for repeated flushes (e.g. \"*/10 * * * *\")")
}

func runDispatch(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	outreach := store.NewOutreachStore(db)
	reps := store.NewRepresentativeStore(db)
	bindings := store.NewBindingStore(db)
	prayers := store.NewPrayerStore(db)
	profiles := store.NewProfileStore(db)
	mailer := service.NewMailjetMailer(cfg.MailjetPublicKey, cfg.MailjetPrivateKey, cfg.OutreachSender, cfg.OutreachSenderName, cfg.MailjetTemplateID)
	dispatcher := service.NewDispatcher(outreach, reps, bindings, prayers, profiles, mailer)

	flush := func() *service.DeliveryResult {
		result, err := dispatcher.DeliverQueued(ctx, dispatchLimit)
		if err != nil {
			log.Printf("Dispatch failed: %v", err)
			return nil
		}
		printDeliverySummary(result)
		return result
	}

	// One-shot mode
	if dispatchEvery == "" {
		result := flush()
		if result == nil || result.Failed > 0 {
			os.Exit(1)
		}
		return
	}

	// Scheduled mode
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(dispatchEvery, func() { flush() }); err != nil {
		log.Fatalf("Invalid cron schedule %q: %v", dispatchEvery, err)
	}
	scheduler.Start()
	log.Printf("Dispatching up to %d requests on schedule %q (Ctrl-C to stop)", dispatchLimit, dispatchEvery)

	<-sigChan
	log.Println("\nReceived interrupt signal, shutting down...")
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
}

func printDeliverySummary(result *service.DeliveryResult) {
	log.Println("=== Dispatch Summary ===")
	log.Printf("Processed: %d", result.Processed)
	log.Printf("Sent:      %d", result.Sent)
	log.Printf("Failed:    %d", result.Failed)
	for _, detail := range result.Details {
		if detail.Error != "" {
			log.Printf("  request %d: %s (%s)", detail.RequestID, detail.Status, detail.Error)
		} else {
			log.Printf("  request %d: %s", detail.RequestID, detail.Status)
		}
	}
}
