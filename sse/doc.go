// Package sse streams the shared pointer and content notifications to
// browsers over Server-Sent Events.
//
// The Hub keeps the client registry and fans out broadcasts such as
// content.updated. Each connection served by Handler also subscribes to
// the pointer broadcaster for as long as it stays open:
//
//	comp := sse.NewComponent("/events/pointer")
//	router.GET("/events/pointer", gin.WrapH(sse.NewHandler(comp.Hub(), broadcaster)))
package sse
