// Package bootstrap runs a service through its lifecycle: config defaults
// and validation, logger setup, component start, configure callbacks, a
// ready check, the startup summary, then graceful shutdown on SIGINT or
// SIGTERM.
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    return err
//	}
//	_ = app.RegisterComponent(fetcher)
//	_ = app.RegisterComponent(server.NewComponent(srv))
//	return app.Run(ctx)
package bootstrap
