// Package config loads, normalizes, and validates Auto-Bangumi configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// AB_DOWNLOADER_HOST and OPENAI_API_KEY. The Config type centralizes every knob
// the daemon and CLI need: download client credentials, rename policy, feed
// filters, and the optional LLM extractor.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
