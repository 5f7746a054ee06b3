package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mbeckett/herald/internal/config"
	"github.com/mbeckett/herald/internal/service"
	"github.com/mbeckett/herald/internal/store"
)

var syncState string
var syncCD string
var syncSD string
var syncHD string
var syncAddress string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the representative directory from upstream sources",
	Long: `Sync pulls current representative records into the local directory.

Federal seats come from the congress.gov member API, state seats from
OpenStates, and the optional --address path seeds every office the
Google Civic aggregator returns for one street address. Each slot is
replaced wholesale, so re-running a sync is always safe.

Examples:
  # Both senators for Texas
  ./herald sync --state TX

  # Senators plus the 21st congressional district
  ./herald sync --state TX --cd 21

  # State legislature seats
  ./herald sync --state TX --sd 14 --hd 49

  # Everything the civic aggregator knows about one address
  ./herald sync --address "2101 Pearl St, Austin, TX 78705"`,
	Run: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&syncState, "state", "", "Two-letter state code")
	syncCmd.Flags().StringVar(&syncCD, "cd", "", "Congressional district number (or At-Large)")
	syncCmd.Flags().StringVar(&syncSD, "sd", "", "State senate district number")
	syncCmd.Flags().StringVar(&syncHD, "hd", "", "State house district number")
	syncCmd.Flags().StringVar(&syncAddress, "address", "", "Seed from a full street address via the civic aggregator")
}

func runSync(cmd *cobra.Command, args []string) {
	syncState = strings.ToUpper(strings.TrimSpace(syncState))
	if syncState == "" && syncAddress == "" {
		log.Fatal("--state or --address is required")
	}
	if syncState != "" && !service.ValidState(syncState) {
		log.Fatalf("Unknown state code: %s", syncState)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	// Connect to database
	log.Println("Connecting to database...")
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Create dependencies
	reps := store.NewRepresentativeStore(db)
	congress := service.NewCongressClient(cfg.CongressBaseURL, cfg.CongressAPIKey, cfg.UpstreamTimeout)
	openstates := service.NewOpenStatesClient(cfg.OpenStatesBaseURL, cfg.OpenStatesAPIKey, cfg.UpstreamTimeout)
	var civicSource service.CivicSource
	if cfg.CivicAPIKey != "" {
		civicSource = service.NewCivicClient(cfg.CivicBaseURL, cfg.CivicAPIKey, cfg.UpstreamTimeout)
	}
	syncer := service.NewSyncer(congress, openstates, civicSource, reps)

	failed := false
	senateSeeded, houseSeeded, stateSeeded, civicSeeded := 0, 0, 0, 0

	if syncState != "" {
		log.Printf("Syncing federal seats for %s...", syncState)
		seed, err := syncer.SyncFederal(ctx, syncState, syncCD)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("Sync cancelled")
				os.Exit(1)
			}
			log.Printf("Federal sync failed: %v", err)
			failed = true
		} else {
			senateSeeded = seed.Senate
			houseSeeded = seed.House
		}

		if syncSD != "" || syncHD != "" {
			log.Printf("Syncing state legislature seats for %s...", syncState)
			seed, err := syncer.SyncState(ctx, syncState, syncSD, syncHD)
			if err != nil {
				if ctx.Err() != nil {
					log.Println("Sync cancelled")
					os.Exit(1)
				}
				log.Printf("State sync failed: %v", err)
				failed = true
			} else {
				stateSeeded = seed.Senate + seed.House
			}
		}
	}

	if syncAddress != "" {
		log.Printf("Seeding from civic aggregator for %q...", syncAddress)
		seeded, err := syncer.SyncByAddress(ctx, syncAddress)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("Sync cancelled")
				os.Exit(1)
			}
			log.Printf("Civic seeding failed: %v", err)
			failed = true
		} else {
			civicSeeded = seeded
		}
	}

	total, withEmail, states, err := reps.DirectoryCounts(ctx)
	if err != nil {
		log.Printf("Warning: Failed to count directory: %v", err)
	}

	log.Println("")
	log.Println("=== Sync Summary ===")
	log.Printf("Federal senators seeded:  %d", senateSeeded)
	log.Printf("Federal house seeded:     %d", houseSeeded)
	log.Printf("State seats seeded:       %d", stateSeeded)
	log.Printf("Civic offices seeded:     %d", civicSeeded)
	log.Printf("Directory total:          %d (%d with email, %d states)", total, withEmail, states)

	if failed {
		os.Exit(1)
	}
}
