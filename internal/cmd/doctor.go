package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long: `Check that the environment can process transcription jobs: the
external tool must be present and executable, and the uploads root must
be writable.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("[1/3] Loading configuration... FAIL: %v\n", err)
		return fmt.Errorf("diagnostics failed")
	}
	fmt.Println("[1/3] Loading configuration... ok")

	failed := false

	exe := cfg.Transcriber.ExecutablePath
	switch {
	case exe == "":
		fmt.Println("[2/3] Checking transcriber executable... FAIL: transcriber.executable_path is not set")
		failed = true
	default:
		resolved := exe
		if !filepath.IsAbs(exe) {
			resolved, err = exec.LookPath(exe)
		} else {
			_, err = os.Stat(exe)
		}
		if err != nil {
			fmt.Printf("[2/3] Checking transcriber executable... FAIL: %v\n", err)
			failed = true
		} else {
			fmt.Printf("[2/3] Checking transcriber executable... ok (%s)\n", resolved)
		}
	}

	if err := checkWritable(cfg.Jobs.UploadsRoot); err != nil {
		fmt.Printf("[3/3] Checking uploads root... FAIL: %v\n", err)
		failed = true
	} else {
		fmt.Printf("[3/3] Checking uploads root... ok (%s)\n", cfg.Jobs.UploadsRoot)
	}

	if failed {
		return fmt.Errorf("diagnostics failed")
	}
	fmt.Println("All checks passed.")
	return nil
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}
