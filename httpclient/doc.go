// Package httpclient is the outbound HTTP client used for upstream calls.
// Every request runs under an explicit deadline, bodies are read in full up
// to a size cap, and failures come back as *Error classified by Kind.
//
//	client, err := httpclient.New(httpclient.Config{UserAgent: "memecraft/1.0"})
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Path:    "https://api.imgflip.com/get_memes",
//	    Timeout: 10 * time.Second,
//	})
//	if httpclient.Is(err, httpclient.KindTimeout) {
//	    ...
//	}
package httpclient
