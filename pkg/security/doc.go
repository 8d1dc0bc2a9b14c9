// Package security groups the server's security support packages.
//
//   - secrets resolves ${secret:name} references in the engine credentials
//     from a secrets directory or the environment.
//   - tls builds the HTTPS configuration and reloads renewed certificates
//     without a restart.
//
// Both are configured under the security section:
//
//	security:
//	  tls:
//	    enabled: true
//	    cert_file: /etc/quotegate/tls/server.crt
//	    key_file: /etc/quotegate/tls/server.key
//	    min_version: "1.3"
//	    reload_interval: 5m
//	  secrets:
//	    env_prefix: QUOTEGATE_SECRET_
//	    dir: /var/run/secrets/quotegate
package security
