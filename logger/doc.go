// Package logger wraps zerolog with map-style fields, component tags and
// request/trace correlation.
//
//	logging:
//	  level: info
//	  format: json   # or console
//	  output: stdout
//
//	log := logger.WithComponent("memes")
//	log.Info("templates fetched", logger.Fields("count", 100))
//	log.WithContext(ctx).Warn("primary attempt failed", logger.MergeWithError(nil, err))
package logger
