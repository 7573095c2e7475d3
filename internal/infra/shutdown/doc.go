// Package shutdown coordinates an orderly stop of the terminal process.
//
// A stop is requested by SIGINT/SIGTERM, by cancelling the parent context,
// or programmatically through Handler.Trigger (the /quit command). Cleanup
// hooks then run in reverse order of registration under a shared deadline.
//
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown(node.Shutdown)
//	ctx := h.Context(context.Background())
//	<-ctx.Done()
//	err := h.Run()
package shutdown
