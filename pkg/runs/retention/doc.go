// Package retention prunes the run ledger by age and by count.
//
// A Pruner applies config.RetentionConfig in two phases: runs that started
// more than Days ago are deleted, then if more than MaxRecords remain the
// oldest are deleted. A Scheduler runs the pruner on the PruneSchedule cron
// expression ("0 3 * * *" is daily at 03:00):
//
//	pruner := retention.NewPruner(store, cfg.Runs.Retention)
//	sched := retention.NewScheduler(pruner)
//	if err := sched.Start(ctx); err != nil {
//		return err
//	}
//	defer sched.Stop()
//
// "quotegate runs prune" calls Prune once without a scheduler.
package retention
