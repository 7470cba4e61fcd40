package main

import (
	"os/signal"
	"syscall"

	"github.com/Alp4ka/keyset/internal/catalog"
	"github.com/Alp4ka/keyset/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	cmdServe := &cobra.Command{
		Use:   "serve",
		Short: "Serves the product API.",
		RunE:  serve,
	}
	flags := cmdServe.Flags()
	flags.String("addr", "", "Address to listen on")
	flags.String("static", "", "Directory with static files to serve")
	_ = viper.BindPFlag("http.addr", flags.Lookup("addr"))
	_ = viper.BindPFlag("http.static_dir", flags.Lookup("static"))
	rootCmd.AddCommand(cmdServe)
}

func serve(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := catalog.Open(ctx, cfg.Store, cfg.Paging, log)
	if err != nil {
		return err
	}
	defer c.Close()

	srv := server.New(c, log, server.Params{
		StaticDir:    cfg.HTTP.StaticDir,
		QueryTimeout: cfg.Paging.QueryTimeout,
	})

	return srv.Run(ctx, cfg.HTTP.Addr)
}
