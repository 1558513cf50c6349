package collector

import (
	"time"
)

var cst = time.FixedZone("CST", 8*3600)

func testHTTPClient() *HTTPClient {
	return NewHTTPClient(HTTPClientOptions{
		Timeout:              5 * time.Second,
		RequestsPerSec:       100,
		MaxRetryElapsed:      2 * time.Second,
		RetryInitialInterval: 10 * time.Millisecond,
	})
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, cst) }
