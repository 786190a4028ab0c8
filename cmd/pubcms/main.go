package main

import (
	"fmt"
	"os"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("pubcms %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`pubcms - A blog front end for a headless CMS, built with Go and Echo

Usage:
  pubcms <command> [arguments]

Commands:
  serve [-config site.yaml] [-env .env]   Start the web server
  version                                 Print the pubcms version
  help                                    Show this help message

Environment (overrides the config file):
  CMS_TOKEN          CMS read API token (required)
  CMS_BASE_URL       CMS API base URL
  CMS_TIMEOUT        CMS request timeout, e.g. 10s
  SITE_NAME, SITE_URL, SITE_DESCRIPTION, SITE_AUTHOR, SITE_REL_AUTHOR
  ADDR               Listen address (default :3000)
  DATABASE_PATH      Snapshot database (default data/pubcms.db)
  PAGE_SIZE          Posts per blog page (default 10)
  POST_CACHE_TTL     In-memory content cache TTL (default 5m)
  OG_IMAGE_PROXY     Serve resized Open Graph images (true/false)
  PREVIEW_PASSWORD   Enables draft preview mode
  SESSION_SECRET     Cookie signing key, required with PREVIEW_PASSWORD
  COOKIE_SECURE      Mark session cookies Secure (true/false)
  DEBUG              Debug logging (true/false)

Examples:
  pubcms serve
  CMS_TOKEN=xxxx pubcms serve -config site.yaml`)
}
