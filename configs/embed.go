// Package configs provides the embedded configuration template.
//
// The template is embedded at build time with go:embed so it ships in
// every distribution. `recall init` writes it as recall.yaml into the
// vault.
package configs

import _ "embed"

// ConfigTemplate is the annotated default configuration, written by
// `recall init`.
//
//go:embed config.example.yaml
var ConfigTemplate string
