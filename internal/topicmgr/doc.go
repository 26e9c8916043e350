// Package topicmgr is the catalog of bus topics.
//
// Every topic published on the internal bus is declared once, at package
// level, and registered here so that it can be listed and inspected:
//
//	var ClientEvent = topicmgr.DefineFramework(topicmgr.TopicConfig{
//		Name:        "ws.client.event",
//		Description: "An inbound frame read from a websocket client",
//	})
//
// The CLI's "topics" command prints the catalog.
package topicmgr
