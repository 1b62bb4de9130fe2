// Package config resolves the capsule manager's runtime configuration from
// three sources with per-setting precedence: command-line flags > YAML config
// file > compiled-in defaults. Every source produces a Shape whose leaves are
// optional; Merge folds two shapes leaf by leaf and Load runs the whole
// pipeline, returning a fully populated Config.
package config
