// Package index implements the progressive HNSW mount table and the
// traversal/centroid-routing primitives spec §4.5 describes. It works
// purely against decoded segment bytes handed to it by store/query; it
// never opens a file itself.
package index
