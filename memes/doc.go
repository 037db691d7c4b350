// Package memes fetches the upstream meme template list.
//
// A Fetcher owns a sliding-window rate limiter and a single-slot TTL cache.
// Each FetchTemplates call spends one admission, serves a fresh cached list
// when there is one, and otherwise makes at most two bounded attempts: the
// direct endpoint, then the same request through a CORS relay. Failures are
// returned as *errors.AppError values carrying one of the fetch error codes.
//
//	f, err := memes.NewFetcher(cfg, memes.WithMetrics(metrics))
//	list, err := f.FetchTemplates(ctx)
//	if wait, ok := errors.WaitDuration(err); ok {
//	    // rate limited, retry after wait
//	}
package memes
