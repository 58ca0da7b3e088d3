package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

var flagConfigEdit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved devcontainer configuration, or edit the source file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagConfigEdit {
			return runConfigEdit()
		}
		return runConfigShow()
	},
}

func init() {
	configCmd.Flags().BoolVar(&flagConfigEdit, "edit", false, "open devcontainer.json in $EDITOR instead of printing it")
}

func runConfigShow() error {
	_, _, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}

func runConfigEdit() error {
	_, _, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	c := exec.Command(editor, cfg.SourcePath)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	return c.Run()
}
