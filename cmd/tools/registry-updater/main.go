package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"unichance/pkg/registry"
)

const defaultPath = "configs/activity-registry.json"

func main() {
	generateCmd := flag.NewFlagSet("generate", flag.ExitOnError)
	generatePath := generateCmd.String("path", defaultPath, "Path to write the registry to")

	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validatePath := validateCmd.String("path", defaultPath, "Path to registry file")

	listCmd := flag.NewFlagSet("list", flag.ExitOnError)

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		generateCmd.Parse(os.Args[2:])
		reg := registry.Build(time.Now())
		if err := registry.SaveRegistry(reg, *generatePath); err != nil {
			fmt.Printf("Error writing registry: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d activities to %s\n", len(reg.Activities), *generatePath)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		reg, err := registry.LoadRegistry(*validatePath)
		if err != nil {
			fmt.Printf("Error loading registry: %v\n", err)
			os.Exit(1)
		}
		problems := registry.Validate(reg)
		for _, p := range problems {
			fmt.Printf("  - %v\n", p)
		}
		if len(problems) > 0 {
			fmt.Printf("Registry validation failed with %d problem(s). Run 'registry-updater generate' to refresh it.\n", len(problems))
			os.Exit(1)
		}
		fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))

	case "list":
		listCmd.Parse(os.Args[2:])
		for _, a := range registry.Activities() {
			fmt.Printf("%-24s %-12s timeout=%-4s %s\n", a.TaskType, a.Category, a.Timeout, a.DisplayName)
		}

	case "help":
		help()
	default:
		help()
		os.Exit(1)
	}
}

func help() {
	fmt.Println(`
Usage: registry-updater <command> [flags]

Commands:
  generate  Write the registry for the workers compiled into this binary
  validate  Check a registry file against the compiled workers
  list      Print the compiled workers
  help      Show this help message

Examples:
  registry-updater generate -path configs/activity-registry.json
  registry-updater validate -path configs/activity-registry.json`)
}
