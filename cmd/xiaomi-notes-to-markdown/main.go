// Package main is the entry point for the xiaomi-notes-to-markdown CLI.
// It recovers notes and media from a MIUI notes backup container and
// writes them out as a folder of markdown files.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/putnikproj/xiaomi-notes-to-markdown/internal/app/exporter"
)

// version is set at build time via ldflags.
var version = "dev"

var summaryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))

var rootCmd = &cobra.Command{
	Use:   "xiaomi-notes-to-markdown [backup.bak] [output-dir]",
	Short: "Recover notes from a MIUI notes backup into markdown files",
	Long: `xiaomi-notes-to-markdown reads an undocumented MIUI notes backup container
(.bak), recovers every note it can find, and writes each one as a markdown
file. Recovery is best effort: note titles, bodies, folders, embedded images
and voice recordings are carved out of the raw bytes, and the proprietary
note markup is rewritten as markdown.

Without arguments the tool looks for a single .bak file in the current
directory and writes next to it.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runExport,

	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./xiaomi-notes-to-markdown.yaml or ~/.config/xiaomi-notes-to-markdown/config.yaml)")
	rootCmd.Flags().Bool("include-deleted", false, "also recover titles of deleted notes")
	rootCmd.Flags().Bool("extract-media", false, "carve embedded images and voice recordings out of the backup")
	rootCmd.Flags().StringP("output", "o", "", "output directory (default: ./exported_notes)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("xiaomi-notes-to-markdown")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "xiaomi-notes-to-markdown"))
		}
	}

	viper.SetDefault("output_dir", "exported_notes")
	viper.SetEnvPrefix("XIAOMI_NOTES")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	if err := viper.BindPFlag("include_deleted", cmd.Flags().Lookup("include-deleted")); err != nil {
		return err
	}
	if err := viper.BindPFlag("extract_media", cmd.Flags().Lookup("extract-media")); err != nil {
		return err
	}
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		viper.Set("output_dir", out)
	}

	backupPath := ""
	if len(args) > 0 {
		backupPath = args[0]
	} else {
		detected, err := detectBackup(".")
		if err != nil {
			return err
		}
		backupPath = detected
	}

	outputDir := viper.GetString("output_dir")
	if len(args) > 1 {
		outputDir = args[1]
	}

	exp := exporter.Exporter{
		BackupPath:     backupPath,
		OutputDir:      outputDir,
		IncludeDeleted: viper.GetBool("include_deleted"),
		ExtractMedia:   viper.GetBool("extract_media"),
	}

	fmt.Printf("reading %s\n", backupPath)
	stats, err := exp.Run()
	if err != nil {
		return err
	}
	if stats.Notes == 0 {
		return fmt.Errorf("no notes recovered from %s", backupPath)
	}

	summary := fmt.Sprintf("exported %d of %d notes to %s", stats.Exported, stats.Notes, outputDir)
	if exp.ExtractMedia {
		summary += fmt.Sprintf(", %d attachments", stats.Attachments)
	}
	fmt.Println(summaryStyle.Render(summary))
	return nil
}

// detectBackup finds the backup file when none is given on the command
// line: exactly one .bak file in dir.
func detectBackup(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.bak"))
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no .bak file found in %s, pass the backup path as an argument", dir)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("multiple .bak files found in %s, pass the backup path as an argument", dir)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		os.Exit(1)
	}
}
