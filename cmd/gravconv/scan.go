package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Faultbox/gravity-convert/internal/assets"
	"github.com/Faultbox/gravity-convert/internal/config"
	"github.com/Faultbox/gravity-convert/internal/database"
	"github.com/Faultbox/gravity-convert/internal/logger"
)

func scanCmd(overrides *config.Overrides) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "List the models and variants the converter would process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup(overrides)
			if err != nil {
				return err
			}
			defer logger.Sync()

			store := assets.NewStore(cfg.MaterialDir())
			defer store.Close()

			db, err := database.Build(cfg, store, logger.Named("database"))
			if err != nil {
				return err
			}
			printDatabase(cmd.OutOrStdout(), db)
			return nil
		},
	}
}

func printDatabase(w io.Writer, db *database.Database) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d models", len(db.Order))))
	for _, m := range db.Bases() {
		fmt.Fprintf(w, "  %s %s\n", m.Name, dimStyle.Render(fmt.Sprintf("(%d materials)", m.Materials.Len())))
		for _, v := range m.Variants() {
			fmt.Fprintf(w, "    %-16s %s\n", v.Kind, v.Name)
		}
	}

	if len(db.Skipped) > 0 {
		fmt.Fprintln(w, warnStyle.Render("Skipped:"))
		for _, s := range db.Skipped {
			fmt.Fprintf(w, "\t%s %s\n", s.Name, dimStyle.Render("reason: "+s.Reason+"."))
		}
	}

	if len(db.Warnings) > 0 {
		fmt.Fprintln(w, warnStyle.Render("Warnings:"))
		for _, wn := range db.Warnings {
			fmt.Fprintf(w, "\t%s %s\n", wn.Name, strings.TrimSpace(wn.Message))
		}
	}
}
