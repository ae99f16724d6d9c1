// Package config provides configuration parsing for controlstore tools.
//
// The configuration is stored in controlstore.json. This package handles
// loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "inspector": {
//	    "address": "localhost:7070",
//	    "allowedOrigins": ["http://localhost:3000"],
//	    "history": 100
//	  },
//	  "metrics": {
//	    "namespace": "controlstore"
//	  },
//	  "tracing": {
//	    "enabled": true,
//	    "tracerName": "checkout"
//	  },
//	  "persist": {
//	    "backend": "s3",
//	    "bucket": "snapshots",
//	    "prefix": "dev/",
//	    "region": "eu-west-1"
//	  },
//	  "diagnostics": {
//	    "enabled": true,
//	    "level": "warn"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Inspector:", cfg.Inspector.Address)
package config
