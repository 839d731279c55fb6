package stream

// WithChunkSize exposes small body reads to the external test package so
// chunk boundaries can split lines and code points.
var WithChunkSize = withChunkSize
