package fetcher

import "time"

// FetchParam bundles one request's inputs — generalized unchanged from the
// teacher's internal/fetcher.FetchParam (url.URL replaced with a plain
// string since .onion hosts never need url.URL's IDNA/punycode machinery).
type FetchParam struct {
	URL       string
	UserAgent string
}

func NewFetchParam(url, userAgent string) FetchParam {
	return FetchParam{URL: url, UserAgent: userAgent}
}

// FetchResult is what survives a successful fetch: body bytes, status,
// response headers, and timing. The fetcher never parses content — it only
// returns bytes and metadata, per the teacher's fetcher doc comment.
type FetchResult struct {
	url         string
	body        []byte
	statusCode  int
	headers     map[string]string
	cookieNames []string
	fetchedAt   time.Time
	elapsed     time.Duration
}

func (f FetchResult) URL() string                   { return f.url }
func (f FetchResult) Body() []byte                  { return f.body }
func (f FetchResult) StatusCode() int                { return f.statusCode }
func (f FetchResult) Headers() map[string]string     { return f.headers }
func (f FetchResult) CookieNames() []string          { return f.cookieNames }
func (f FetchResult) FetchedAt() time.Time           { return f.fetchedAt }
func (f FetchResult) Elapsed() time.Duration         { return f.elapsed }
func (f FetchResult) ContentType() string            { return f.headers["Content-Type"] }
func (f FetchResult) SizeBytes() int                 { return len(f.body) }

// NewFetchResultForTest builds a FetchResult without a live network round
// trip, mirroring the teacher's exported test constructor. cookieNames is
// variadic so existing call sites that predate tech-stack cookie
// fingerprinting keep compiling unchanged.
func NewFetchResultForTest(url string, body []byte, statusCode int, headers map[string]string, fetchedAt time.Time, elapsed time.Duration, cookieNames ...string) FetchResult {
	return FetchResult{url: url, body: body, statusCode: statusCode, headers: headers, cookieNames: cookieNames, fetchedAt: fetchedAt, elapsed: elapsed}
}
