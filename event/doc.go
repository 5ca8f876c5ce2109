// Package event defines the notification channel from the streaming
// coordinator to the host application.
//
// Events are the only way the host observes the session lifecycle: every
// interruption, recovery, retry, and terminal outcome is reported as exactly
// one event, emitted strictly after the corresponding state transition and
// transport action have completed. The host never observes silence after an
// interruption begins.
package event
