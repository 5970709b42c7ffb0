package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jcdickinson/ferrishover/internal/rpc"
	"github.com/spf13/cobra"
)

var hoverCmd = &cobra.Command{
	Use:   "hover <crate[@version]> <path>",
	Short: "Render hover documentation for an item",
	Example: `  ferrishover hover serde serde::Deserialize
  ferrishover hover tokio@1.0 tokio::spawn`,
	Args: cobra.ExactArgs(2),
	Run:  runHover,
}

var navCmd = &cobra.Command{
	Use:   "nav <crate[@version]> <path>",
	Short: "Show the one-line quick-navigation summary for an item",
	Args:  cobra.ExactArgs(2),
	Run:   runNav,
}

var urlsCmd = &cobra.Command{
	Use:   "urls <crate[@version]> <path>",
	Short: "List validated external documentation URLs for an item",
	Args:  cobra.ExactArgs(2),
	Run:   runURLs,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <crate[@version]> <reference>",
	Short: "Resolve an intra-doc reference to its canonical path",
	Example: `  ferrishover resolve serde Deserialize
  ferrishover resolve tokio "crate::task::JoinHandle"`,
	Args: cobra.ExactArgs(2),
	Run:  runResolve,
}

var resolveContext string

func init() {
	resolveCmd.Flags().StringVar(&resolveContext, "context", "", "path of the item the reference appears on")
}

func itemReq(args []string) rpc.HoverRequest {
	name, version, _ := strings.Cut(args[0], "@")
	return rpc.HoverRequest{Crate: name, Version: version, Path: args[1]}
}

func runHover(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.Hover(context.Background(), itemReq(args))
	if err != nil {
		log.Fatalf("hover failed: %v", err)
	}
	if !resp.Found {
		fmt.Println("no hover documentation")
		return
	}
	fmt.Println(resp.HTML)
}

func runNav(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.Nav(context.Background(), itemReq(args))
	if err != nil {
		log.Fatalf("quick-nav failed: %v", err)
	}
	if !resp.Found {
		fmt.Println("no summary")
		return
	}
	fmt.Println(resp.Summary)
}

func runURLs(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.URLs(context.Background(), itemReq(args))
	if err != nil {
		log.Fatalf("doc-urls failed: %v", err)
	}
	if len(resp.URLs) == 0 {
		fmt.Println("no reachable documentation URLs")
		return
	}
	for _, u := range resp.URLs {
		fmt.Println(u)
	}
}

func runResolve(cmd *cobra.Command, args []string) {
	name, version, _ := strings.Cut(args[0], "@")

	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.Resolve(context.Background(), rpc.ResolveRequest{
		Crate:     name,
		Version:   version,
		Reference: args[1],
		Context:   resolveContext,
	})
	if err != nil {
		log.Fatalf("resolve failed: %v", err)
	}
	if !resp.Found {
		fmt.Println("unresolved")
		return
	}
	fmt.Printf("%s %s\n", resp.Kind, resp.Path)
}
