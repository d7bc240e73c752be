// Package pocket implements driven.ArticleSource against the Pocket v3 API
// and the consumer authorization flow that obtains an access token.
//
// Every request is a JSON POST carrying the consumer key. Pocket reports
// failures through the X-Error and X-Error-Code response headers, which
// are surfaced as *APIError.
package pocket
