// Package sources provides the adapter factory and registers the built-in
// source adapters. Each adapter kind lives in its own sub-package:
//
//	website    business homepage scrape (goquery)
//	serper     serper.dev search, places and news
//	google     PageSpeed Insights and YouTube Data (google.golang.org/api)
//	reddit     Reddit search (oauth2 client credentials)
//	news       Google News RSS (gofeed)
//	weather    OpenWeather current conditions
//	openai     chat completion synthesis
//	github     GitHub organisation (go-github)
//	httpjson   any JSON API described by a URL template
//
// Adapters make exactly one logical call per Fetch. Retries, timeouts,
// rate limits and caching belong to the guard and cache layers.
package sources
