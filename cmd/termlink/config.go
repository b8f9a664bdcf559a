package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/Gaurav-Gosain/termlink/internal/config"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage termlink configuration",
		Long:  `Manage the termlink configuration file and settings`,
	}

	configPathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print configuration file path",
		Long:  `Print the path to the termlink configuration file`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return printConfigPath()
		},
	}

	var force bool
	configInitCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Long: `Write the default termlink configuration file

An existing file is kept unless --force is given, in which case you are asked
to confirm before it is overwritten.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return initConfig(force)
		},
	}
	configInitCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration")

	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  `Print the configuration after defaults are filled in`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return showConfig()
		},
	}

	configCmd.AddCommand(configPathCmd, configInitCmd, configShowCmd)
	return configCmd
}

func printConfigPath() error {
	path, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	fmt.Println(path)
	return nil
}

func initConfig(force bool) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if !force {
			fmt.Printf("Configuration already exists: %s\n", path)
			return nil
		}
		fmt.Printf("Overwrite %s with defaults? [y/N]: ", path)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Println("Cancelled")
			return nil
		}
	}

	if err := config.WriteDefaultConfig(path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func showConfig() error {
	cfg, err := config.LoadUserConfig()
	if err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}
