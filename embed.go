package pubcms

import "embed"

// EmbeddedAssets holds the default stylesheet served at /public/pubcms.css.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
