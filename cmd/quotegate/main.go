// quotegate is a synchronous front for an external spreadsheet-style pricing
// engine. Each preview writes a normalized request into the engine's input
// slot, tags it with a correlation token, and waits until the engine's
// output table answers that token.
//
// Usage:
//
//	# Serve the preview API
//	quotegate serve --config /etc/quotegate/config.yaml
//
//	# Submit one request from flags
//	quotegate submit --job-type "Renovering badrum" --region storstad \
//	    --pricing FAST --fixed-price 85000 --material-cost 12500
//
//	# Submit a batch from a JSON array
//	quotegate submit --file requests.json --output json
//
//	# Inspect the run ledger
//	quotegate runs list --status timeout --since 24h
//	quotegate runs show qg-2f1c...
//
//	# Check a configuration file and a request without submitting
//	quotegate validate --request request.json
package main

import "os"

func main() {
	os.Exit(Execute())
}
