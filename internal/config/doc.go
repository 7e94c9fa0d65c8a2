// Package config loads resume.yaml, the settings shared by the resumectl
// command and the preview server.
//
// # Configuration File Structure
//
//	snapshot:
//	  version: "1.0.0"
//	  maxSize: 1048576
//	  serializeSource: false
//	resume:
//	  strategy: compatible
//	  timeout: 5s
//	  fallbackToHydration: true
//	  allowSource: false
//	metrics:
//	  namespace: resume
//	  labels:
//	    env: dev
//	  buckets: [0.001, 0.01, 0.1, 1]
//	dev:
//	  host: localhost
//	  port: 3000
//	  checkpointSchedule: "*/5 * * * *"
//
// resume.json with the same keys is accepted as well.
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	opts, err := cfg.BootstrapOptions()
package config
