package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mbeckett/herald/internal/auth"
	"github.com/mbeckett/herald/internal/config"
)

var tokenUser string
var tokenEmail string
var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for local testing",
	Long:  `Mint a signed bearer token for the given user id, using the configured JWT secret. Intended for curl sessions against a local server.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		if cfg.JWTSecret == "" {
			log.Fatal("JWT_SECRET environment variable is required")
		}

		userID, err := uuid.Parse(tokenUser)
		if err != nil {
			log.Fatalf("Invalid --user id: %v", err)
		}

		signed, err := auth.Sign(userID, tokenEmail, cfg.JWTSecret, tokenTTL)
		if err != nil {
			log.Fatalf("Failed to sign token: %v", err)
		}
		fmt.Println(signed)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "User UUID to embed as the token subject")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Email claim to embed")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	tokenCmd.MarkFlagRequired("user")
}
