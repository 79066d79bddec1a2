package cli

import (
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ByteForce-Labs/Tonance/internal/api"
	"github.com/ByteForce-Labs/Tonance/internal/app/leaderboard"
	"github.com/ByteForce-Labs/Tonance/internal/app/ledger"
	"github.com/ByteForce-Labs/Tonance/internal/app/referral"
	"github.com/ByteForce-Labs/Tonance/internal/app/stakebook"
	"github.com/ByteForce-Labs/Tonance/internal/app/tasks"
	"github.com/ByteForce-Labs/Tonance/internal/daemon"
	"github.com/ByteForce-Labs/Tonance/internal/domain"
	"github.com/ByteForce-Labs/Tonance/internal/infra/observability"
	"github.com/ByteForce-Labs/Tonance/internal/infra/sqlite"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("config", "", "Path to config file (default ~/.tonance/config.toml)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Tonance HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = daemon.ConfigPath()
	}
	cfg, err := daemon.Load(path)
	if err != nil {
		return err
	}

	db, err := sqlite.Open(cfg.DataDir())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.New(prometheus.DefaultRegisterer)
	}

	clock := domain.SystemClock{}
	srv := api.NewServer(
		db,
		ledger.NewService(db, db, clock, metrics),
		stakebook.NewService(db, db, db, clock, metrics),
		referral.NewService(db, db, clock, metrics),
		leaderboard.NewService(db),
		tasks.NewService(db, db, db, clock, metrics),
		clock,
	)
	if cfg.Metrics.Enabled {
		srv.EnableMetrics()
	}

	addr := cfg.ListenAddr()
	log.Printf("tonance %s listening on %s (data: %s)", Version, addr, cfg.DataDir())
	return http.ListenAndServe(addr, srv.Handler())
}
