// Package secrets resolves ${secret:name} references in the engine
// credentials, so a configuration file can be committed without them.
//
// Two providers are supported:
//
//   - FileProvider reads <dir>/<name>, as mounted from a Kubernetes secret.
//     The file must be mode 0600 or 0400.
//   - EnvProvider reads <PREFIX><NAME>, where hyphens in the name become
//     underscores: "sheets-key" is QUOTEGATE_SECRET_SHEETS_KEY.
//
// The directory is tried before the environment:
//
//	engine:
//	  sheets:
//	    spreadsheet_id: ${secret:pricing-sheet-id}
//	    credentials_json: ${secret:sheets-service-account}
//	security:
//	  secrets:
//	    dir: /var/run/secrets/quotegate
//
// Values are never logged.
package secrets
