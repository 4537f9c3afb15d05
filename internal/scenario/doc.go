// Package scenario runs the same load against both execution strategies and
// compares the results.
//
// For every configured mode the Engine starts an in-process server on a
// loopback port, drives it with the load generator, stops it and records
// a metrics snapshot.
//
// # Basic Usage
//
//	engine := scenario.New(scenario.QuickScenario())
//	result, err := engine.Run(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Report())
//
// # Presets
//
//   - quick: short sanity check (default)
//   - basic: moderate fixed request count
//   - contended: more clients than workers
//   - stress: long, high-concurrency run
package scenario
