// cmd/tools/store-inspect/main.go
//
// Small operator tool: dumps the device-local store (submitted records,
// checklist state, last identity) as JSON for debugging a deployment.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"smartstore-assistant/internal/common/logger"
	"smartstore-assistant/internal/store"
)

func main() {
	dataDir := flag.String("data", "./data", "Path to the local data directory")
	what := flag.String("what", "all", "What to dump: records, checklist, identity, all")
	flag.Parse()

	st, err := store.New(*dataDir, logger.NewNoOpLogger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: open store: %v\n", err)
		os.Exit(1)
	}

	out := map[string]interface{}{}

	if *what == "records" || *what == "all" {
		records, err := st.Records()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: read records: %v\n", err)
			os.Exit(1)
		}
		out["records"] = records
	}
	if *what == "checklist" || *what == "all" {
		items, err := st.Checklist()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: read checklist: %v\n", err)
			os.Exit(1)
		}
		out["checklist"] = items
	}
	if *what == "identity" || *what == "all" {
		id, err := st.LastIdentity()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: read identity: %v\n", err)
			os.Exit(1)
		}
		out["identity"] = id
	}

	if len(out) == 0 {
		fmt.Fprintf(os.Stderr, "Error: unknown -what value %q\n", *what)
		os.Exit(1)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: encode output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
