package workers

import "context"

// RegisterHandlers binds each worker's entry point to its job type on the
// dispatcher. Workers expose no other entry point.
func RegisterHandlers(d *Dispatcher, fanOut *FanOutWorker, backfill *BackfillWorker, invalidate *InvalidationWorker, reconcile *CounterReconciler) {
	d.Register(JobFanOut, func(ctx context.Context, job Job) error {
		return fanOut.Run(ctx, job.PostID)
	})
	d.Register(JobBackfill, func(ctx context.Context, job Job) error {
		return backfill.Run(ctx, job.FollowerID, job.FollowedID)
	})
	d.Register(JobInvalidate, func(ctx context.Context, job Job) error {
		return invalidate.Run(ctx, job.AuthorID)
	})
	d.Register(JobReconcile, func(ctx context.Context, job Job) error {
		return reconcile.Run(ctx, job.Counter)
	})
}
