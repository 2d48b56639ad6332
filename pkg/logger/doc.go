// Package logger builds *slog.Logger values for statekit services and the
// fsmctl CLI and provides the attribute helpers used across the module.
//
// New applies functional options, picks a text or JSON handler and wraps it
// with LogHandlerDecorator, which runs registered ContextExtractor callbacks
// on every record. WithMachineContext registers the extractor for the state
// machine instance id that machines store in the context they pass to hooks:
//
//	log := logger.New(
//	    logger.WithEnvironment("production", "orders"),
//	    logger.WithMachineContext(),
//	)
//
//	def := statemachine.MustNew[*Order]("order",
//	    statemachine.WithLogger[*Order](log),
//	    ...
//	)
//
// Attribute helpers (Machine, Event, FromState, ToState, InstanceID, Error and
// friends) keep key names consistent. Helpers taking an error or identifier
// return an empty slog.Attr for zero values, so they can be passed without a
// nil check.
package logger
