/*
Package tls builds the server's TLS configuration from security.tls.

The certificate is served through a CertificateReloader, which polls the
certificate and key files and swaps in a renewed pair without a restart:

	tlsConfig, reloader, err := tls.NewServerConfig(cfg.Security.TLS)
	if err != nil {
		return err
	}
	go reloader.Run(ctx)
	srv.TLSConfig = tlsConfig

A renewed pair that fails to load or has expired is logged and ignored;
the previous certificate stays in use.
*/
package tls
