// Package livepush keeps a live audio-push session alive across real-world
// interruptions: incoming phone calls, transient network loss, and their
// overlap.
//
// The host application injects its platform collaborators (the streaming
// transport, phone-call and network signals, an audio device, and an event
// sink) and drives the session through the Publisher facade:
//
//	emitter := event.NewChannelEmitter(32)
//
//	pub, err := livepush.New(livepush.NewOptions(), livepush.Deps{
//	    Transport: rtmpTransport,
//	    Phone:     callObserver,
//	    Network:   reachabilityObserver,
//	    Emitter:   emitter,
//	    Device:    micDevice,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := pub.Start("rtmp://ingest.example.com/live", "stream-key"); err != nil {
//	    log.Fatal(err)
//	}
//	defer pub.Stop()
//
//	for evt := range emitter.Events() {
//	    fmt.Printf("%s: %s\n", evt.Type, evt.Message)
//	}
//
// Interruption handling is automatic: a phone call or connectivity loss
// closes the transport, arms a bounded per-source timer, and reconnects to
// the original destination when the cause clears. A phone call always
// pre-empts a network interruption. If no recovery signal arrives before
// the timeout, the session ends terminally with a single rtmp_stopped
// event; the host never observes silence after an interruption begins.
package livepush
