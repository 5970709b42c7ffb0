package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/jcdickinson/ferrishover/internal/config"
	"github.com/jcdickinson/ferrishover/internal/daemon"
	"github.com/jcdickinson/ferrishover/internal/rpc"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [crate[@version] ...]",
	Short: "Index crate documentation from docs.rs",
	Long:  `Fetch, parse, and render Rust crate documentation for hover queries. Version defaults to "latest".`,
	Example: `  ferrishover add serde
  ferrishover add serde@1.0 tokio@1.0
  ferrishover add serde serde_json tokio`,
	Args: cobra.MinimumNArgs(1),
	Run:  runAdd,
}

func runAdd(cmd *cobra.Command, args []string) {
	var specs []rpc.CrateSpec
	for _, arg := range args {
		name, version, _ := strings.Cut(arg, "@")
		specs = append(specs, rpc.CrateSpec{Name: name, Version: version})
	}

	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.AddCrates(context.Background(), specs, func(msg string) {
		fmt.Printf("  %s\n", msg)
	})
	if err != nil {
		log.Fatalf("failed to add crates: %v", err)
	}

	for _, r := range resp.Results {
		if r.Error != "" {
			fmt.Printf("  %s@%s: error: %s\n", r.Name, r.Version, r.Error)
		} else {
			fmt.Printf("  %s@%s: %d items indexed\n", r.Name, r.Version, r.Items)
		}
	}
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show indexed crates and daemon state",
	Run:   runStatus,
}

var statusJSON bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

func runStatus(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.Status(context.Background())
	if err != nil {
		log.Fatalf("status failed: %v", err)
	}

	if statusJSON {
		out, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(out))
		return
	}

	if len(resp.Crates) == 0 {
		fmt.Println("no crates indexed")
		return
	}

	for _, c := range resp.Crates {
		state := "processing"
		if c.Processed {
			state = "ready"
		}
		fmt.Printf("  %s@%s [%s] %d items\n", c.Name, c.Version, state, c.Items)
	}
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background daemon",
	Run:   runStop,
}

func runStop(cmd *cobra.Command, args []string) {
	client := daemon.NewClient(config.SocketPath())
	if !client.IsAvailable() {
		fmt.Println("daemon is not running")
		return
	}

	if err := client.Shutdown(context.Background()); err != nil {
		// Connection reset is expected — the daemon exits after responding.
		fmt.Println("daemon stopped")
		return
	}
	fmt.Println("daemon stopped")
}
