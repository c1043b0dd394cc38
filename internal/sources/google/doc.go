// Package google provides source adapters over Google APIs.
//
// Both adapters use the generated clients from google.golang.org/api with
// an API key:
//
//   - pagespeed: PageSpeed Insights v5 Lighthouse category scores
//   - youtube: YouTube Data v3 channel search and statistics
//
// The key is added by a RoundTripper so the shared http.Client is kept.
package google
