// Package mqtt owns the broker session for the speaker: connect with a last
// will, announce availability, publish Home Assistant discovery configs,
// subscribe to the command topics and publish state documents.
//
// The session does not reconnect on its own. The control loop calls
// [Manager.Maintain] every tick; when disconnected and the retry window has
// elapsed it makes a bounded number of connect attempts separated by a fixed
// backoff. Inbound messages are queued for the control loop rather than
// handled on the paho goroutine, so controllers are only touched from one
// goroutine.
package mqtt
