package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Describe the metrics, traces, and events a pool exposes",
	Long:  "Prints the metricz counters/gauges, tracez spans, and hookz events a poolz Pool registers, for operators wiring up dashboards or alerts.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Counters:")
		fmt.Println("  pool.submitted.total, pool.completed.total, pool.rejected.total")
		fmt.Println("  pool.spawned.total, pool.retired.total")
		fmt.Println("Gauges:")
		fmt.Println("  pool.active.current, pool.total.current, pool.queue.depth")
		fmt.Println("Spans:")
		fmt.Println("  pool.submit, pool.tick")
		fmt.Println("Events (hookz):")
		fmt.Println("  pool.critical, pool.scaled, pool.stopped")
	},
}
