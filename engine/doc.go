// Package engine provides the batch query driver for sightline.
//
// A Driver runs many independent ray queries against one immutable index on
// a fixed WorkerPool:
//
//   - Results keep the input order; each worker writes only its own slot.
//   - Failures are per item: a malformed ray fails its own result and never
//     aborts the batch.
//   - Cancellation is cooperative and checked between rays. Items that never
//     started report the context error.
//   - Throughput can be capped through a resource.Controller.
//
// # Example
//
//	d, _ := engine.NewDriver(tree, engine.WithWorkers(8))
//	defer d.Close()
//
//	results, err := d.Run(ctx, requests)
//	for _, r := range results {
//		if r.Err != nil {
//			continue
//		}
//		fmt.Println(r.Index, len(r.Segments))
//	}
package engine
