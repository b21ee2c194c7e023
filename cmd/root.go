package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cloudharbor/s3front/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string
var envFiles string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "s3front",
	Short: "An S3-compatible read gateway",
	Long: `s3front exposes posix directories and upstream S3 buckets through a
single S3-compatible HTTP API. Which bucket maps to which backend is
driven by a config file that is hot-reloaded on change.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	logging.InitializeLogging(logging.EnvironmentLvl, nil, nil)
	rootCmd.PersistentFlags().StringVar(&envFiles, "dot-env", "etc/.env", "File paths to .env files comma separated")

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.s3front.yaml)")
}

func loadEnvVarsFromDotEnv() {
	for _, dotEnv := range strings.Split(envFiles, ",") {
		if dotEnv == "skip" {
			slog.Info("Skip dotEnv filename %s", "filename", dotEnv)
			return
		}
		if dotEnv == "" {
			continue
		}
		err := godotenv.Load(dotEnv)
		if err != nil {
			dir, _ := os.Getwd()
			slog.Error("Error loading .env file", "cwd", dir, "filepath", dotEnv)
			os.Exit(1)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".s3front" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".s3front")
	}

	viper.SetEnvPrefix("S3FRONT")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
	var startupCmd = strings.Join(os.Args, " ")
	slog.Info("Loading env vars from dotenv", "startup_cmd", startupCmd)
	loadEnvVarsFromDotEnv()
}
