// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Configuration is declared with struct tags understood by
// github.com/caarlos0/env and loaded via the generic Load function. Each
// config type is parsed once per process and cached, so components can load
// their own config independently without coordinating.
package config
