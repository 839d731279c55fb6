// Package stream consumes catalyst completion streams: a chunked
// "data: <json>\n\n" event stream whose content deltas are accumulated into
// one message, from which a trailing JSON object may be extracted once the
// transport reaches end of stream.
//
//	┌───────────┐   ┌─────────────┐   ┌────────────┐   ┌─────────────┐
//	│ body.Read │──▶│ TextDecoder │──▶│ LineBuffer │──▶│ Accumulator │──▶ progress
//	└───────────┘   └─────────────┘   └────────────┘   └─────────────┘
//	                                                          │ EOF
//	                                                          ▼
//	                                                   ExtractObject
package stream
