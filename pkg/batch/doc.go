// Package batch runs independent jobs on a bounded worker pool.
//
// Each job runs under its own timeout, a failing job never cancels its
// siblings, and results land in a slice indexed by the job's position so
// callers can merge them back in input order.
//
// Example usage:
//
//	jobs := []batch.Job[string]{
//		{Index: 0, Label: "Tommy Tuberville", Do: lookup("/wiki/Tommy_Tuberville")},
//		{Index: 2, Label: "Lisa Murkowski", Do: lookup("/wiki/Lisa_Murkowski")},
//	}
//	results := batch.Run(ctx, batch.DefaultConfig(), 3, jobs)
//	for _, r := range results {
//		if r.Submitted && r.Err == nil {
//			use(r.Index, r.Value)
//		}
//	}
//
// Run:
//   - Starts at most MaxConcurrency jobs at a time (default 10)
//   - Bounds every job with Timeout (default 15s)
//   - Leaves indices without a job as zero-valued, unsubmitted results
//   - Waits for every submitted job before returning
package batch
