// Package tokencount estimates transcript size for the compaction
// trigger: a tiktoken-backed counter for OpenAI-family models with a
// CJK-aware character estimator fallback that needs no encoding data.
package tokencount
