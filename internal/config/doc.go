// Package config loads the alarm-ack settings file.
//
// Settings are YAML: the controller base URL, a per-call timeout, the log
// level and the API version segment for each endpoint. A missing default
// settings file is not an error; built-in defaults apply.
package config
