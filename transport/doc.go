// Package transport defines the streaming-transport collaborator contract
// and connection-failure classification.
//
// The actual RTMP/RTSP publish primitive lives in the host application; this
// package fixes the minimal interface the coordinator needs (prepare, start,
// stop, mute, asynchronous connect callbacks) plus a typed error contract so
// connection failures can be classified as network-related without string
// matching.
package transport
