// Package collector implements the collection campaign engine: curated
// keyword sets searched per category, per-note detail fetches with failure
// isolation, artifact persistence and run statistics.
//
// The entry point is the Facade, which wires an API client, the artifact
// store and the pacing gate into campaign runners:
//
//	facade, err := collector.NewFacade(cfg, creds, log)
//	if err != nil {
//		return err
//	}
//	run, err := facade.RunCategory(ctx, collector.CategoryMedicalBeauty)
//
// Keywords within a category run strictly in order and never in parallel;
// only media downloads fan out through a bounded worker pool. Failures are
// contained at the smallest useful scope: a failed note detail is skipped,
// a failed search marks one keyword as failed, and a scheduled job that
// fails is logged and retried at the next trigger.
package collector
