// Package server provides the dependency container for the mcp-jobnimbus
// MCP server.
//
// ServerContext holds the JobNimbus client, the result handle store, the
// response shaping configuration and the derived builder and lazy referencer,
// wired together through functional options:
//
//	sc, err := server.NewServerContext(ctx,
//		server.WithClient(client),
//		server.WithStore(store),
//		server.WithOutputConfig(outputCfg),
//		server.WithLogger(logger),
//	)
//	if err != nil {
//		return err
//	}
//	defer sc.Shutdown()
//
// The package also carries the health endpoints and HTTP middleware used by
// the streamable HTTP transport.
package server
