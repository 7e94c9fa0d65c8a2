// Package devserver is a preview server for resumable pages.
//
// It hosts a small counter application whose state lives in a reactive graph.
// Every page render serializes that graph into the page, and the server
// resumes its own output to obtain the live document that incoming events are
// dispatched into. Checkpoints of the serializable state are streamed to
// websocket clients after every dispatch and on a cron schedule.
//
// Routes:
//
//	GET  /                        page with embedded snapshot
//	GET  /snapshot                snapshot JSON
//	POST /dispatch/{node}/{event} deliver an event, JSON body becomes event data
//	GET  /checkpoints             websocket checkpoint stream
//	GET  /metrics                 Prometheus metrics
package devserver
