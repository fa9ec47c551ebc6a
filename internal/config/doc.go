// Package config provides configuration parsing for navintent.
//
// The configuration is stored in navintent.json at the project root, or in
// an S3 object addressed as s3://bucket/key. Every field is optional; missing
// fields take the defaults shown below.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "host": "0.0.0.0",
//	    "port": 8080,
//	    "appScheme": "shop",
//	    "shutdownTimeout": "10s"
//	  },
//	  "deeplink": {
//	    "homeRoute": "/home",
//	    "locales": ["en", "ar"],
//	    "defaultLocale": "en",
//	    "identifiers": "verbatim",
//	    "routes": [
//	      {"keyword": "categories", "kind": "category", "template": "/category/{id}"},
//	      {"keyword": "products", "kind": "product", "template": "/product/{id}"},
//	      {"keyword": "brands", "kind": "brand", "template": "/brand/{id}"}
//	    ]
//	  },
//	  "search": {
//	    "debounce": "300ms",
//	    "maxDelay": "5s"
//	  },
//	  "telemetry": {
//	    "metricsPath": "/metrics",
//	    "namespace": "navintent",
//	    "tracerName": "navintent"
//	  }
//	}
//
// Route order is priority order. An explicit empty "locales" list disables
// locale stripping.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resolver, err := cfg.NewResolver()
package config
