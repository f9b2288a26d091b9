package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/echoprint/go/pkg/capture"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		timeout, _ := cfg.CodegenTimeout()
		level, _ := cfg.LogLevel()
		return printResult(cmd, map[string]any{
			"dir":     cfg.Dir,
			"seconds": capture.ClampSeconds(cfg.CaptureSeconds()),
			"codegen": map[string]any{
				"path":    cfg.Codegen.Path,
				"args":    cfg.Codegen.Args,
				"timeout": timeout.String(),
			},
			"history": map[string]any{
				"dir":      cfg.HistoryDir(),
				"keep":     cfg.HistoryKeep(),
				"disabled": cfg.History.Disabled,
			},
			"log": map[string]any{"level": level.String()},
		})
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.File())
		return nil
	},
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if fileExists(cfg.File()) && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cfg.File())
		}
		if cfg.Seconds == 0 {
			cfg.Seconds = capture.DefaultSeconds
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		status(cmd).Success("wrote %s", cfg.File())
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
