/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/corpclean/internal/config"
	"github.com/valpere/corpclean/internal/logging"
)

var version = "0.1.0"

var (
	configFile string
	settings   = config.New()
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "corpclean",
	Short: "Parallel-text corpus cleaner",
	Long: `A CLI application that cleans bilingual (parallel-text) corpora concurrently,
dropping untranslated drafts and other unusable sentence pairs.

Settings come from flags, CORPCLEAN_* environment variables and an optional
corpclean.yaml file, in that order of precedence.

Use "corpclean clean --help" for cleaning options.`,
	Version:       version,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(settings, cmd)
	},
}

// setup merges flags into the configuration and initialises logging.
func setup(v *viper.Viper, cmd *cobra.Command) error {
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	loaded, err := config.Load(v, configFile)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(loaded.Log.Level)
	if err != nil {
		return err
	}
	logging.Init(level, loaded.Log.Format, os.Stderr)

	cfg = loaded
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ./corpclean.yaml if present)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.SetVersionTemplate(fmt.Sprintf("corpclean %s\n", version))
}
