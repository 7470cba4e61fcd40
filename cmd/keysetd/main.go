package main

import (
	"fmt"
	"os"

	"github.com/Alp4ka/keyset/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:          "keysetd",
	Short:        "Serves a product catalog with bidirectional keyset pagination.",
	SilenceUsage: true,
}

var configPath string

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Path to the config file")
	flags.String("driver", "", "Store driver: sqlite, postgres, mysql or mongo")
	flags.String("dsn", "", "Store connection string")
	flags.String("log-level", "", "Log level")
	_ = viper.BindPFlag("store.driver", flags.Lookup("driver"))
	_ = viper.BindPFlag("store.dsn", flags.Lookup("dsn"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
}

// setup loads the configuration and the logger shared by all commands.
func setup() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(viper.GetViper(), configPath)
	if err != nil {
		return nil, nil, err
	}

	log, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}

	return cfg, log, nil
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
