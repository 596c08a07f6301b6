// Package dupe detects near-duplicate incident reports by embedding a
// candidate report and a bounded window of prior reports into unit vectors
// and comparing cosine similarity. Embedding backends are pluggable: a
// remote service with a deterministic local model as silent fallback.
package dupe
