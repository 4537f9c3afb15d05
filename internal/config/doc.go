// Package config loads poolbench settings from a YAML or JSON file, an
// optional .env file and POOLBENCH_* environment variables.
//
// Precedence, highest first: process environment, .env file, config file,
// package defaults. Command-line flags are applied on top by the caller.
//
//	fc, err := config.LoadFile("poolbench.yaml")
//	if err != nil {
//	    return err
//	}
//	if err := fc.ApplyEnv(".env"); err != nil {
//	    return err
//	}
//	if err := fc.Validate(); err != nil {
//	    return err
//	}
//	srvConfig, err := fc.ToServerConfig()
package config
