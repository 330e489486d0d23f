package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/templui/ecoscan/internal/repository"
)

func CleanupCmd() *cobra.Command {
	var olderThan time.Duration

	c := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired tokens and sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(conn *sqlx.DB, _ string) error {
				tokens, sessions, err := cleanup(cmd.Context(), conn, olderThan)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d tokens, %d sessions\n", tokens, sessions)
				return nil
			})
		},
	}

	c.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "keep rows newer than this")
	return c
}

func cleanup(ctx context.Context, conn *sqlx.DB, olderThan time.Duration) (int64, int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	tokens, err := repository.NewTokenRepository(conn).CleanupExpired(ctx, olderThan)
	if err != nil {
		return 0, 0, fmt.Errorf("clean tokens: %w", err)
	}

	sessions, err := repository.NewSessionRepository(conn).DeleteExpired(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return tokens, 0, fmt.Errorf("clean sessions: %w", err)
	}

	return tokens, sessions, nil
}
