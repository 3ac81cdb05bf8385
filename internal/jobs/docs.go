// Package jobs provides scheduled background tasks for the slaughterhouse service.
//
// Jobs are cron-based (github.com/robfig/cron/v3) and go through the same state machine as
// HTTP requests, so they take the same locks, write the same timeline entries and are
// subject to the same gates.
//
// # Available Jobs
//
// 1. PaymentOverdueJob - flags unpaid processes received more than a grace period ago as Overdue
//
// # Usage
//
//	jobManager, err := jobs.NewJobManager(cfg, reader, machine, logger)
//	if err != nil {
//		return err
//	}
//	if err := jobManager.StartAll(); err != nil {
//		return err
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// Business rejections (the process moved on, someone else already marked it, a concurrent
// update won) are expected and logged at debug level. Anything else is logged as an error and
// the run continues with the next process.
package jobs
