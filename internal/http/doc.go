// Package http executes the HTTP exchanges behind sqlite-http's network
// functions.
//
// A Client consults a shared settings.Settings before every exchange: it waits
// on the rate limiter, then bounds the exchange (including the body read) by
// the current timeout. Responses are all-or-nothing; failures are classified
// as httperr Timeout, Connection or Protocol errors and are never retried.
//
// Key features:
//   - Per-exchange timing record via net/http/httptrace
//   - Remote address capture from the established connection
//   - Lazy, non-restartable response streams for table-valued functions
//   - Request/response hooks for tracing
//
// Example usage:
//
//	client := http.NewClient(http.Config{
//	    Settings: settings.New(5*time.Second, 10),
//	})
//
//	req, _ := http.NewRequest("GET", "https://example.com", headers.Collection{}, nil, nil)
//	resp, err := client.Do(req)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.Status, resp.Timings.JSON())
package http
