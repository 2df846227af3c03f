// Package config loads the craftctl server definition.
//
// A craftctl project directory carries a single configuration file that
// declares the managed server: container name, image, ports, memory,
// data directory, the remote worlds archive, and the plugin source tree.
//
// Two formats are supported, matching what users actually keep in their
// repos: YAML (craftctl.yml / craftctl.yaml, parsed with gopkg.in/yaml.v3)
// and JSON with comments (craftctl.json / craftctl.jsonc, stripped with
// github.com/tidwall/jsonc before parsing with encoding/json).
package config
