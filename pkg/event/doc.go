/*
Package event provides the timer surface logflow components are driven by.

A Dispatcher creates one-shot Timers. A timer fires its callback once per
EnableTimer call; periodic behavior is achieved by re-arming the timer from
inside the callback, which is exactly how the filesystem flusher schedules its
periodic flushes.

The real dispatcher runs callbacks on timer goroutines. Tests inject a mock
dispatcher and fire callbacks manually.

Example:

	d := event.NewDispatcher()
	var timer event.Timer
	timer = d.CreateTimer(func() {
		doPeriodicWork()
		timer.EnableTimer(40 * time.Millisecond)
	})
	timer.EnableTimer(40 * time.Millisecond)
*/
package event
