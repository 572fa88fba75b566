// Package config provides configuration parsing for vizsite projects.
//
// The configuration is stored in vizsite.json at the project root.
// This package handles loading, saving and validating it, and selecting the
// base path for a build mode.
//
// # Configuration File Structure
//
//	{
//	  "name": "CSCI5609GP",
//	  "paths": {
//	    "routes": "src/routes",
//	    "static": "static"
//	  },
//	  "base": {
//	    "development": "",
//	    "production": "/CSCI5609GP"
//	  },
//	  "build": {
//	    "output": "build",
//	    "trailingSlash": "never",
//	    "concurrency": 4,
//	    "precompress": false
//	  },
//	  "dev": {
//	    "port": 5173,
//	    "host": "localhost"
//	  },
//	  "deploy": {
//	    "bucket": "my-site",
//	    "region": "us-east-1",
//	    "prefix": "CSCI5609GP/"
//	  }
//	}
//
// # Modes
//
// Exactly one base path is active per build. The mode is taken from the
// --mode flag, then VIZSITE_MODE, then NODE_ENV, and defaults to
// development:
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	base, err := cfg.BasePath(config.ModeFromEnv(""))
package config
