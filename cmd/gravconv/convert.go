package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/gravity-convert/internal/assets"
	"github.com/Faultbox/gravity-convert/internal/batch"
	"github.com/Faultbox/gravity-convert/internal/config"
	"github.com/Faultbox/gravity-convert/internal/convert"
	"github.com/Faultbox/gravity-convert/internal/database"
	"github.com/Faultbox/gravity-convert/internal/ledger"
	"github.com/Faultbox/gravity-convert/internal/logger"
	"github.com/Faultbox/gravity-convert/internal/scene"
	"github.com/Faultbox/gravity-convert/internal/scene/gltfscene"
)

func convertCmd(overrides *config.Overrides) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert every model of the source directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup(overrides)
			if err != nil {
				return err
			}
			defer logger.Sync()

			logger.Info("gravconv", zap.String("version", version), zap.String("source", cfg.Paths.Source), zap.String("output", cfg.Paths.Output))

			store := assets.NewStore(cfg.MaterialDir())
			defer store.Close()

			db, err := database.Build(cfg, store, logger.Named("database"))
			if err != nil {
				return err
			}

			var opts []convert.Option
			if cfg.Run.Ledger != "" {
				l, err := ledger.Open(cfg.Run.Ledger)
				if err != nil {
					return err
				}
				defer l.Close()
				logger.Info("ledger opened", zap.String("path", cfg.Run.Ledger), zap.String("run", l.Run().ID))
				opts = append(opts, convert.WithLedger(l))
			}

			codec := gltfscene.New()
			codec.Binary = cfg.Conversion.Binary
			newConverter := func() *convert.Converter {
				return convert.New(scene.NewGraph(codec), cfg, logger.Named("convert"), opts...)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			var report *convert.Report
			if cfg.Run.Workers > 1 {
				report, err = batch.Run(ctx, db, newConverter, cfg.Run.Workers, logger.Named("batch"))
			} else {
				report, err = newConverter().ConvertAll(ctx, db)
			}

			printReport(cmd.OutOrStdout(), report)
			if err != nil {
				return err
			}
			if n := len(report.Failed()); n > 0 {
				logger.Error("conversion finished with failures", zap.Int("failed", n))
				return errModelsFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&overrides.Output, "output", "", "output directory")
	cmd.Flags().IntVar(&overrides.Workers, "workers", 0, "number of models converted in parallel")
	cmd.Flags().BoolVar(&overrides.Resume, "resume", false, "skip models unchanged since their last conversion (needs --ledger)")
	cmd.Flags().StringVar(&overrides.Ledger, "ledger", "", "SQLite run ledger path")
	cmd.Flags().BoolVar(&overrides.Binary, "binary", false, "write .glb bundles instead of .gltf")
	return cmd
}

// printReport writes the run summary. Skipped and failed models are listed
// with their reason.
func printReport(w io.Writer, r *convert.Report) {
	if r == nil {
		return
	}

	fmt.Fprintln(w, titleStyle.Render("Conversion summary"))
	fmt.Fprintf(w, "  %s %d  %s %d  %s %d  %s %d\n",
		okStyle.Render("converted"), r.Count(convert.StatusConverted),
		warnStyle.Render("skipped"), len(r.AllSkipped()),
		failStyle.Render("failed"), r.Count(convert.StatusFailed),
		warnStyle.Render("warnings"), r.WarningCount(),
	)

	if skipped := r.AllSkipped(); len(skipped) > 0 {
		fmt.Fprintln(w, warnStyle.Render("WARNING: some models were skipped."))
		for _, s := range skipped {
			fmt.Fprintf(w, "\t%s %s\n", s.Name, dimStyle.Render("reason: "+s.Reason+"."))
		}
	}

	if failed := r.Failed(); len(failed) > 0 {
		fmt.Fprintln(w, failStyle.Render("ERROR: some models failed to convert."))
		for _, f := range failed {
			fmt.Fprintf(w, "\t%s %s\n", f.Model, dimStyle.Render(f.Err.Error()))
		}
	}
}
