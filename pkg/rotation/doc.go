/*
Package rotation triggers the reopen half of the log-rotation handshake.

The filesystem package exposes Reopen but deliberately never decides when to
call it. This package provides the two common deciders:

Scheduler reopens a file on a cron schedule, for deployments where the files
are renamed by a time-based external rotator:

	sched, err := rotation.NewScheduler(file, rotation.SchedulerConfig{
		Schedule: "@daily",
	})
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

Broadcast coordinates rotation across a fleet of instances through a Redis
pub/sub channel: one instance calls Trigger and every subscriber reopens its
local file.
*/
package rotation
