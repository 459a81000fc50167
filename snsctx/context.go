// Package snsctx carries CLI options down to bus adapters through the context.
package snsctx

import "context"

type ctxIndex int

const ctxIndexVerbose ctxIndex = iota

// IsVerbose reports whether raw adapter traffic should be dumped to the debug log.
func IsVerbose(ctx context.Context) bool {
	verbose, _ := ctx.Value(ctxIndexVerbose).(bool)
	return verbose
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, ctxIndexVerbose, value)
}
