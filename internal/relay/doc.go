// Package relay implements the websocket relay for live-audio agents.
// Browsers connect to the relay; the relay holds a websocket session to the
// hosted live model, forwards client audio and text upstream, streams model
// output back, and runs tool calls against locally registered handlers.
package relay
