package dispatch

import "github.com/google/wire"

var Provider = wire.NewSet(NewCallbackTaskHandler, NewExhaustionNotifier, NewCompletionHandler, NewExecUnit, NewCallbackUnit, NewUnitPool, NewDispatcher)
